package controllers

import (
	"editorial-workflow-api/services"
	"editorial-workflow-api/utils"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func invitationIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invitation ID"})
		return 0, false
	}
	return id, true
}

type inviteRefereeReq struct {
	SubmissionID int    `json:"submission_id" binding:"required"`
	RefereeID    *int   `json:"referee_id"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
}

// InviteReferee sends a refereeing invitation on behalf of the
// editor-in-charge. Unregistered referees are invited by contact email
// and respond via their token link.
func InviteReferee(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)

	var req inviteRefereeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.RefereeID == nil {
		email := strings.TrimSpace(req.ContactEmail)
		if !utils.ValidateEmail(email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A valid contact email is required for an unregistered referee"})
			return
		}
		req.ContactEmail = email
	}

	inv, err := inviteSvc.Invite(userID, &services.InviteInput{
		SubmissionID: req.SubmissionID,
		RefereeID:    req.RefereeID,
		ContactName:  utils.SanitizeInput(req.ContactName),
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "invitation": inv})
}

// GetSubmissionInvitations lists all invitations for one submission.
func GetSubmissionInvitations(c *gin.Context) {
	wire()
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}
	invitations, err := inviteSvc.ListForSubmission(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invitations": invitations, "total": len(invitations)})
}

// AcceptInvitation records the registered referee's acceptance.
func AcceptInvitation(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}
	inv, err := inviteSvc.Accept(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invitation": inv})
}

type declineInvitationReq struct {
	Reason string `json:"reason"`
}

// DeclineInvitation records the registered referee's refusal.
func DeclineInvitation(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}

	var req declineInvitationReq
	_ = c.ShouldBindJSON(&req)

	inv, err := inviteSvc.Decline(id, userID, strings.TrimSpace(req.Reason))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invitation": inv})
}

type tokenAnswerReq struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason"`
}

// AnswerInvitationByToken lets an unregistered referee respond via the
// emailed token link. Public route.
func AnswerInvitationByToken(c *gin.Context) {
	wire()
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invitation token"})
		return
	}

	var req tokenAnswerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	inv, err := inviteSvc.AnswerByToken(token, req.Accept, strings.TrimSpace(req.Reason))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invitation": inv})
}

// CancelInvitation withdraws the invitation; terminal for that row.
func CancelInvitation(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}
	inv, err := inviteSvc.Cancel(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invitation": inv})
}

// SendInvitationReminder nudges the invitee and bumps the counter.
func SendInvitationReminder(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}
	inv, err := inviteSvc.SendReminder(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invitation": inv})
}

type reinviteReq struct {
	InvitationIDs []int `json:"invitation_ids" binding:"required"`
}

// ReinviteReferees duplicates earlier invitations with fresh deadlines.
func ReinviteReferees(c *gin.Context) {
	wire()
	userID, _ := currentUserID(c)
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req reinviteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := inviteSvc.Reinvite(id, userID, req.InvitationIDs)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "invitations": created, "total": len(created)})
}
