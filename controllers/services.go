package controllers

import (
	"editorial-workflow-api/config"
	"editorial-workflow-api/services"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	wireOnce  sync.Once
	notifier  *services.NotificationService
	submSvc   *services.SubmissionService
	assignSvc *services.AssignmentService
	inviteSvc *services.InvitationService
	reportSvc *services.ReportService
	recSvc    *services.RecommendationService
)

// wire builds the service graph once, after config.InitDB has run.
func wire() {
	wireOnce.Do(func() {
		notifier = services.NewNotificationService(config.DB)
		submSvc = services.NewSubmissionService(config.DB, notifier)
		assignSvc = services.NewAssignmentService(config.DB, notifier)
		inviteSvc = services.NewInvitationService(config.DB, notifier)
		reportSvc = services.NewReportService(config.DB, notifier)
		recSvc = services.NewRecommendationService(config.DB, notifier)
	})
}

func currentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}

func currentRoleID(c *gin.Context) int {
	if v, ok := c.Get("roleID"); ok {
		if id, ok := v.(int); ok {
			return id
		}
	}
	return 0
}

// respondDomainError maps service errors onto HTTP statuses. Domain
// errors surface with their own message; anything unrecognised is a 500.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAlreadyAnswered),
		errors.Is(err, services.ErrInvitationClosed),
		errors.Is(err, services.ErrReportImmutable),
		errors.Is(err, services.ErrAlreadyFixed),
		errors.Is(err, services.ErrDuplicateVote),
		errors.Is(err, services.ErrConflictOfInterest),
		errors.Is(err, services.ErrInsufficientQuorum):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCycleUnresolved):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrIneligibleVoter):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
