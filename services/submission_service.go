package services

import (
	"editorial-workflow-api/models"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// validTransitions is the submission state machine. A status missing from
// the map is terminal: no outgoing edges, mutation attempts fail with
// InvalidTransitionError.
var validTransitions = map[string][]string{
	models.StatusUnassigned: {
		models.StatusEICAssigned,
		models.StatusAssignmentFailed,
		models.StatusWithdrawn,
	},
	models.StatusResubmissionIncoming: {
		models.StatusEICAssigned,
		models.StatusAssignmentFailed,
		models.StatusWithdrawn,
	},
	models.StatusEICAssigned: {
		models.StatusReviewClosed,
		models.StatusVotingInPreparation,
		models.StatusResubmitted,
		models.StatusWithdrawn,
	},
	models.StatusReviewClosed: {
		models.StatusEICAssigned,
		models.StatusVotingInPreparation,
		models.StatusResubmitted,
		models.StatusWithdrawn,
	},
	models.StatusVotingInPreparation: {
		models.StatusPutToVoting,
		models.StatusReviewClosed,
		models.StatusWithdrawn,
	},
	models.StatusPutToVoting: {
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusReviewClosed,
		models.StatusWithdrawn,
	},
	models.StatusAccepted: {
		models.StatusPublished,
	},
	models.StatusResubmitted: {
		models.StatusResubmittedRejected,
		models.StatusResubmittedRejectedVisible,
	},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SubmissionService owns the submission status machine. Every mutation
// runs inside one transaction scoped to the submission row, locked with
// SELECT ... FOR UPDATE so writers on one submission serialize.
type SubmissionService struct {
	db       *gorm.DB
	notifier *NotificationService
	now      func() time.Time
}

func NewSubmissionService(db *gorm.DB, notifier *NotificationService) *SubmissionService {
	return &SubmissionService{db: db, notifier: notifier, now: time.Now}
}

// lockSubmission loads the submission row under an exclusive lock.
func lockSubmission(tx *gorm.DB, submissionID int) (*models.Submission, error) {
	var sub models.Submission
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// transition applies one legal status change and writes the history row.
// Callers hold the row lock.
func transition(tx *gorm.DB, sub *models.Submission, to string, actorID int, reason, notes string, now time.Time) error {
	if !CanTransition(sub.Status, to) {
		return &InvalidTransitionError{SubmissionID: sub.SubmissionID, From: sub.Status, To: to}
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": now,
	}
	if err := tx.Model(&models.Submission{}).
		Where("submission_id = ?", sub.SubmissionID).
		Updates(updates).Error; err != nil {
		return err
	}

	old := sub.Status
	history := models.SubmissionStatusHistory{
		SubmissionID: sub.SubmissionID,
		OldStatus:    &old,
		NewStatus:    to,
		ChangedBy:    actorID,
		CreatedAt:    now,
	}
	if reason != "" {
		history.Reason = &reason
	}
	if notes != "" {
		history.Notes = &notes
	}
	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	sub.Status = to
	sub.UpdatedAt = now
	return nil
}

type CreateSubmissionInput struct {
	Title         string
	AuthorList    string
	TargetJournal string
	SubmittedBy   int
}

// CreateSubmission performs intake of a fresh manuscript: version 1 of a
// new thread, status unassigned, Regular cycle preselected.
func (s *SubmissionService) CreateSubmission(in *CreateSubmissionInput) (*models.Submission, error) {
	now := s.now()
	sub := models.Submission{
		ThreadID:          uuid.NewString(),
		VersionNumber:     1,
		Title:             in.Title,
		AuthorList:        in.AuthorList,
		TargetJournal:     in.TargetJournal,
		SubmittedBy:       in.SubmittedBy,
		Status:            models.StatusUnassigned,
		IsCurrent:         true,
		VisiblePool:       true,
		RefereeingCycle:   models.CycleRegular,
		OpenForReporting:  false,
		OpenForCommenting: false,
		SubmittedAt:       now,
		UpdatedAt:         now,
	}
	if err := s.db.Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateResubmission performs intake of a new version of an existing
// thread. Only the author of the thread (or an administrator) may
// resubmit. The predecessor moves to resubmitted and loses the
// is_current flag; the new version starts at resubmission_incoming with
// the cycle deliberately unset (the EIC must choose one).
func (s *SubmissionService) CreateResubmission(predecessorID int, actorIsAdmin bool, in *CreateSubmissionInput) (*models.Submission, error) {
	now := s.now()
	var created *models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pred, err := lockSubmission(tx, predecessorID)
		if err != nil {
			return err
		}
		if pred.SubmittedBy != in.SubmittedBy && !actorIsAdmin {
			return ErrPermissionDenied
		}
		if !pred.IsCurrent {
			return fmt.Errorf("submission %d is not the current version of its thread", predecessorID)
		}
		if err := transition(tx, pred, models.StatusResubmitted, in.SubmittedBy, "resubmission received", "", now); err != nil {
			return err
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", pred.SubmissionID).
			Updates(map[string]interface{}{"is_current": false, "open_for_reporting": false, "open_for_commenting": false}).Error; err != nil {
			return err
		}

		sub := models.Submission{
			ThreadID:         pred.ThreadID,
			VersionNumber:    pred.VersionNumber + 1,
			Title:            in.Title,
			AuthorList:       in.AuthorList,
			TargetJournal:    pred.TargetJournal,
			SubmittedBy:      in.SubmittedBy,
			Status:           models.StatusResubmissionIncoming,
			IsCurrent:        true,
			VisiblePool:      true,
			RefereeingCycle:  "", // must be chosen anew
			EditorInChargeID: pred.EditorInChargeID,
			PredecessorID:    &pred.SubmissionID,
			SubmittedAt:      now,
			UpdatedAt:        now,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		created = &sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventResubmissionReceived, created.SubmissionID, map[string]string{
		"title":   created.Title,
		"version": fmt.Sprintf("%d", created.VersionNumber),
	})
	return created, nil
}

// ChooseCycle records the refereeing-cycle choice and opens the
// refereeing round: deadline = now + policy window, reporting and
// commenting opened. On a resubmission this also confirms the inherited
// editor-in-charge and moves the version to eic_assigned.
func (s *SubmissionService) ChooseCycle(submissionID, actorID int, cycle string) (*models.Submission, error) {
	policy, err := PolicyFor(cycle, "")
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out *models.Submission

	err = s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.EditorInChargeID == nil || *sub.EditorInChargeID != actorID {
			return ErrPermissionDenied
		}
		switch sub.Status {
		case models.StatusResubmissionIncoming:
			if err := transition(tx, sub, models.StatusEICAssigned, actorID, "cycle chosen on resubmission", "", now); err != nil {
				return err
			}
		case models.StatusEICAssigned:
		default:
			return &InvalidTransitionError{SubmissionID: sub.SubmissionID, From: sub.Status, To: models.StatusEICAssigned}
		}

		// recompute the window against the real target journal
		policy, err = PolicyFor(cycle, sub.TargetJournal)
		if err != nil {
			return err
		}
		deadline := policy.Deadline(now)
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", sub.SubmissionID).
			Updates(map[string]interface{}{
				"refereeing_cycle":    cycle,
				"reporting_deadline":  deadline,
				"open_for_reporting":  policy.AllowsSolicitation,
				"open_for_commenting": true,
				"updated_at":          now,
			}).Error; err != nil {
			return err
		}
		sub.RefereeingCycle = cycle
		sub.ReportingDeadline = &deadline
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResetReportingDeadline restarts the refereeing window for the chosen
// cycle and re-opens reporting and commenting.
func (s *SubmissionService) ResetReportingDeadline(submissionID, actorID int) (*models.Submission, error) {
	now := s.now()
	var out *models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.EditorInChargeID == nil || *sub.EditorInChargeID != actorID {
			return ErrPermissionDenied
		}
		policy, err := PolicyFor(sub.RefereeingCycle, sub.TargetJournal)
		if err != nil {
			return err
		}
		if sub.Status == models.StatusReviewClosed {
			if err := transition(tx, sub, models.StatusEICAssigned, actorID, "refereeing round reopened", "", now); err != nil {
				return err
			}
		}
		if sub.Status != models.StatusEICAssigned {
			return &InvalidTransitionError{SubmissionID: sub.SubmissionID, From: sub.Status, To: models.StatusEICAssigned}
		}
		deadline := policy.Deadline(now)
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", sub.SubmissionID).
			Updates(map[string]interface{}{
				"reporting_deadline":  deadline,
				"open_for_reporting":  true,
				"open_for_commenting": true,
				"updated_at":          now,
			}).Error; err != nil {
			return err
		}
		sub.ReportingDeadline = &deadline
		sub.OpenForReporting = true
		sub.OpenForCommenting = true
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CloseRefereeingRound closes the refereeing phase explicitly. Legal only
// while the submission is eic_assigned.
func (s *SubmissionService) CloseRefereeingRound(submissionID, actorID int) (*models.Submission, error) {
	now := s.now()
	var out *models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.EditorInChargeID == nil || *sub.EditorInChargeID != actorID {
			return ErrPermissionDenied
		}
		if err := transition(tx, sub, models.StatusReviewClosed, actorID, "refereeing round closed", "", now); err != nil {
			return err
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", sub.SubmissionID).
			Updates(map[string]interface{}{"open_for_reporting": false, "updated_at": now}).Error; err != nil {
			return err
		}
		sub.OpenForReporting = false
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Withdraw retires the submission at the authors' request. Only the
// submitting author (or an administrator) may withdraw. Open offers and
// invitations are closed in the same transaction.
func (s *SubmissionService) Withdraw(submissionID, actorID int, actorIsAdmin bool, reason string) (*models.Submission, error) {
	now := s.now()
	var out *models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.SubmittedBy != actorID && !actorIsAdmin {
			return ErrPermissionDenied
		}
		if err := transition(tx, sub, models.StatusWithdrawn, actorID, reason, "withdrawn by authors", now); err != nil {
			return err
		}
		if err := tx.Model(&models.EditorialAssignment{}).
			Where("submission_id = ? AND accepted IS NULL AND deprecated = ?", sub.SubmissionID, false).
			Update("deprecated", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.RefereeInvitation{}).
			Where("submission_id = ? AND cancelled = ? AND fulfilled = ?", sub.SubmissionID, false, false).
			Update("cancelled", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.EICRecommendation{}).
			Where("submission_id = ? AND active = ?", sub.SubmissionID, true).
			Updates(map[string]interface{}{"active": false, "status": models.RecStatusDeprecated}).Error; err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventSubmissionWithdrawn, out.SubmissionID, map[string]string{"title": out.Title})
	return out, nil
}

// MarkPublished records the downstream production outcome. Legal only
// from accepted.
func (s *SubmissionService) MarkPublished(submissionID, actorID int) (*models.Submission, error) {
	now := s.now()
	var out *models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if err := transition(tx, sub, models.StatusPublished, actorID, "published", "", now); err != nil {
			return err
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", sub.SubmissionID).
			Updates(map[string]interface{}{"visible_public": true, "updated_at": now}).Error; err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Pool lists the non-deleted submissions visible to the editorial pool,
// optionally filtered by status.
func (s *SubmissionService) Pool(status string) ([]models.Submission, error) {
	query := s.db.Preload("EditorInCharge").Preload("SubmittedByUser").
		Where("deleted_at IS NULL").Where("visible_pool = ?", true)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var subs []models.Submission
	if err := query.Order("submitted_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// Get loads one submission with its relations.
func (s *SubmissionService) Get(submissionID int) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.Preload("EditorInCharge").Preload("SubmittedByUser").
		Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// RequiredActionsFor loads the sub-lifecycle rows and runs the pure
// derivation. Read-only: safe to call on any polling cadence.
func (s *SubmissionService) RequiredActionsFor(submissionID int) ([]RequiredAction, error) {
	sub, err := s.Get(submissionID)
	if err != nil {
		return nil, err
	}

	var activeRec *models.EICRecommendation
	var rec models.EICRecommendation
	if err := s.db.Where("submission_id = ? AND active = ?", submissionID, true).
		First(&rec).Error; err == nil {
		activeRec = &rec
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var invitations []models.RefereeInvitation
	if err := s.db.Preload("Referee").Where("submission_id = ?", submissionID).Find(&invitations).Error; err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := s.db.Preload("Author").Where("submission_id = ?", submissionID).Find(&reports).Error; err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := s.db.Where("submission_id = ?", submissionID).Find(&comments).Error; err != nil {
		return nil, err
	}

	return RequiredActions(sub, activeRec, invitations, reports, comments, s.now()), nil
}
