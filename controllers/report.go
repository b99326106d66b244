package controllers

import (
	"editorial-workflow-api/services"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func reportIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return 0, false
	}
	return id, true
}

type reportDraftReq struct {
	SubmissionID     int    `json:"submission_id" binding:"required"`
	Strengths        string `json:"strengths"`
	Weaknesses       string `json:"weaknesses"`
	ReportText       string `json:"report_text"`
	RequestedChanges string `json:"requested_changes"`
	Validity         *int   `json:"validity"`
	Significance     *int   `json:"significance"`
	Originality      *int   `json:"originality"`
	Clarity          *int   `json:"clarity"`
	Recommendation   string `json:"recommendation"`
}

// SaveReportDraft creates or updates the referee's private draft.
func SaveReportDraft(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)

	var req reportDraftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	report, err := reportSvc.SaveDraft(userID, &services.ReportInput{
		SubmissionID:     req.SubmissionID,
		Strengths:        req.Strengths,
		Weaknesses:       req.Weaknesses,
		ReportText:       req.ReportText,
		RequestedChanges: req.RequestedChanges,
		Validity:         req.Validity,
		Significance:     req.Significance,
		Originality:      req.Originality,
		Clarity:          req.Clarity,
		Recommendation:   req.Recommendation,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// SubmitReport moves the draft to unvetted and numbers it.
func SubmitReport(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := reportIDParam(c)
	if !ok {
		return
	}
	report, err := reportSvc.Submit(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

type vetReportReq struct {
	Decision string `json:"decision" binding:"required"`
}

// VetReport records the editor-in-charge's vetting decision.
func VetReport(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := reportIDParam(c)
	if !ok {
		return
	}

	var req vetReportReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	report, err := reportSvc.Vet(id, userID, strings.TrimSpace(req.Decision))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// GetSubmissionReports lists the non-draft reports for one submission.
func GetSubmissionReports(c *gin.Context) {
	wire()
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	reports, err := reportSvc.ListForSubmission(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": reports, "total": len(reports)})
}

type createCommentReq struct {
	SubmissionID int    `json:"submission_id" binding:"required"`
	TargetType   string `json:"target_type" binding:"required"`
	TargetID     int    `json:"target_id"`
	Text         string `json:"text" binding:"required"`
}

// CreateComment files a contributor comment; it starts unvetted.
func CreateComment(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)

	var req createCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	comment, err := reportSvc.CreateComment(userID, req.SubmissionID,
		strings.TrimSpace(req.TargetType), req.TargetID, req.Text)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

type vetCommentReq struct {
	Approve bool `json:"approve"`
}

// VetComment records the vetting decision for a comment.
func VetComment(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	var req vetCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	comment, err := reportSvc.VetComment(id, userID, req.Approve)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comment": comment})
}
