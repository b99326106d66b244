package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func recommendationIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recommendation ID"})
		return 0, false
	}
	return id, true
}

type formulateReq struct {
	Recommendation string `json:"recommendation" binding:"required"`
	Remarks        string `json:"remarks"`
}

// FormulateRecommendation records the editor-in-charge's recommendation
// and moves the submission into voting preparation.
func FormulateRecommendation(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req formulateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	rec, err := recSvc.Formulate(submissionID, userID, strings.TrimSpace(req.Recommendation), req.Remarks)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "recommendation": rec})
}

// GetActiveRecommendation returns the active recommendation for a submission.
func GetActiveRecommendation(c *gin.Context) {
	wire()
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}
	rec, err := recSvc.Active(submissionID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "recommendation": rec})
}

type addVoterReq struct {
	FellowID int `json:"fellow_id" binding:"required"`
}

// AddEligibleVoter enrolls a fellow on the recommendation's voter list.
func AddEligibleVoter(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := recommendationIDParam(c)
	if !ok {
		return
	}

	var req addVoterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	voter, err := recSvc.AddEligibleVoter(id, req.FellowID, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "voter": voter})
}

// PutToVoting opens the recommendation for voting by the eligible fellows.
func PutToVoting(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := recommendationIDParam(c)
	if !ok {
		return
	}
	rec, err := recSvc.PutToVoting(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "recommendation": rec})
}

type castVoteReq struct {
	Vote string `json:"vote" binding:"required"`
	Tier *int   `json:"tier"`
}

// CastVote records or switches the calling fellow's vote.
func CastVote(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := recommendationIDParam(c)
	if !ok {
		return
	}

	var req castVoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	vote, err := recSvc.CastVote(id, userID, strings.TrimSpace(req.Vote), req.Tier)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "vote": vote})
}

// GetVoteTally returns the current vote counts for a recommendation.
func GetVoteTally(c *gin.Context) {
	wire()
	id, ok := recommendationIDParam(c)
	if !ok {
		return
	}
	tally, err := recSvc.Tally(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tally": tally})
}

// FixDecision finalizes the recommendation into an editorial decision.
func FixDecision(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := recommendationIDParam(c)
	if !ok {
		return
	}
	rec, err := recSvc.FixDecision(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "recommendation": rec})
}

type correctTieringReq struct {
	FellowID int `json:"fellow_id" binding:"required"`
	Tier     int `json:"tier" binding:"required"`
}

// CorrectTiering lets an administrator amend a recorded tiering.
func CorrectTiering(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	submissionID, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req correctTieringReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := recSvc.CorrectTiering(submissionID, req.FellowID, userID, req.Tier); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
