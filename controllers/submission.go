package controllers

import (
	"editorial-workflow-api/models"
	"editorial-workflow-api/services"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func submissionIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return 0, false
	}
	return id, true
}

type createSubmissionReq struct {
	Title         string `json:"title" binding:"required"`
	AuthorList    string `json:"author_list" binding:"required"`
	TargetJournal string `json:"target_journal" binding:"required"`
}

// CreateSubmission performs intake of a fresh manuscript.
func CreateSubmission(c *gin.Context) {
	wire()
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createSubmissionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := submSvc.CreateSubmission(&services.CreateSubmissionInput{
		Title:         strings.TrimSpace(req.Title),
		AuthorList:    strings.TrimSpace(req.AuthorList),
		TargetJournal: strings.TrimSpace(req.TargetJournal),
		SubmittedBy:   userID,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "submission": sub})
}

// CreateResubmission performs intake of a new version of an existing thread.
func CreateResubmission(c *gin.Context) {
	wire()
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	predecessorID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req createSubmissionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := submSvc.CreateResubmission(predecessorID, currentRoleID(c) == models.RoleAdmin, &services.CreateSubmissionInput{
		Title:       strings.TrimSpace(req.Title),
		AuthorList:  strings.TrimSpace(req.AuthorList),
		SubmittedBy: userID,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "submission": sub})
}

// GetPool lists pool-visible submissions, optionally filtered by status.
func GetPool(c *gin.Context) {
	wire()
	subs, err := submSvc.Pool(strings.TrimSpace(c.Query("status")))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submissions": subs, "total": len(subs)})
}

// GetSubmission returns one submission with its relations.
func GetSubmission(c *gin.Context) {
	wire()
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	sub, err := submSvc.Get(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

// GetRequiredActions returns the derived task list for the editor-in-charge.
func GetRequiredActions(c *gin.Context) {
	wire()
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	actions, err := submSvc.RequiredActionsFor(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "required_actions": actions, "total": len(actions)})
}

type chooseCycleReq struct {
	Cycle string `json:"cycle" binding:"required"`
}

// ChooseCycle records the refereeing-cycle choice for the submission.
func ChooseCycle(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req chooseCycleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := submSvc.ChooseCycle(id, userID, strings.TrimSpace(req.Cycle))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

// ResetReportingDeadline restarts the refereeing window.
func ResetReportingDeadline(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	sub, err := submSvc.ResetReportingDeadline(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

// CloseRefereeingRound closes the refereeing phase.
func CloseRefereeingRound(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	sub, err := submSvc.CloseRefereeingRound(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

type withdrawReq struct {
	Reason string `json:"reason"`
}

// WithdrawSubmission retires the submission at the authors' request.
func WithdrawSubmission(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req withdrawReq
	_ = c.ShouldBindJSON(&req)

	sub, err := submSvc.Withdraw(id, userID, currentRoleID(c) == models.RoleAdmin, strings.TrimSpace(req.Reason))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}

// MarkPublished records the production outcome for an accepted submission.
func MarkPublished(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	sub, err := submSvc.MarkPublished(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "submission": sub})
}
