package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func assignmentIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return 0, false
	}
	return id, true
}

type offerAssignmentReq struct {
	SubmissionID int `json:"submission_id" binding:"required"`
	CandidateID  int `json:"candidate_id" binding:"required"`
}

// OfferAssignment sends an editor-in-charge offer to a candidate fellow.
func OfferAssignment(c *gin.Context) {
	wire()
	adminID, _ := currentUserID(c)

	var req offerAssignmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	offer, err := assignSvc.Offer(req.SubmissionID, req.CandidateID, adminID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "assignment": offer})
}

// GetMyAssignmentOffers lists the current fellow's unanswered offers.
func GetMyAssignmentOffers(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	offers, err := assignSvc.OpenOffersFor(userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignments": offers, "total": len(offers)})
}

// GetSubmissionAssignments lists all offers for one submission.
func GetSubmissionAssignments(c *gin.Context) {
	wire()
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	offers, err := assignSvc.ListForSubmission(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignments": offers, "total": len(offers)})
}

// AcceptAssignment records the candidate's acceptance; the submission
// moves to eic_assigned and sibling offers deprecate.
func AcceptAssignment(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := assignmentIDParam(c)
	if !ok {
		return
	}
	offer, err := assignSvc.Accept(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": offer})
}

type declineAssignmentReq struct {
	Reason string `json:"reason"`
}

// DeclineAssignment records the candidate's refusal.
func DeclineAssignment(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := assignmentIDParam(c)
	if !ok {
		return
	}

	var req declineAssignmentReq
	_ = c.ShouldBindJSON(&req)

	offer, err := assignSvc.Decline(id, userID, strings.TrimSpace(req.Reason))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "assignment": offer})
}

type failPreScreeningReq struct {
	Reason string `json:"reason" binding:"required"`
}

// FailPreScreening abandons the search for an editor-in-charge.
func FailPreScreening(c *gin.Context) {
	wire()
	adminID, _ := currentUserID(c)
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req failPreScreeningReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := assignSvc.FailPreScreening(id, adminID, strings.TrimSpace(req.Reason))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}
