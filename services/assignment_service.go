package services

import (
	"editorial-workflow-api/models"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AssignmentService runs the editorial-assignment sub-lifecycle: offers
// of editor-in-charge duties, accept/decline answers, and pre-screening
// failure. Acceptance is first-wins; sibling offers deprecate in the same
// transaction, serialized by the submission row lock.
type AssignmentService struct {
	db       *gorm.DB
	notifier *NotificationService
	now      func() time.Time
}

func NewAssignmentService(db *gorm.DB, notifier *NotificationService) *AssignmentService {
	return &AssignmentService{db: db, notifier: notifier, now: time.Now}
}

// Offer sends an editor-in-charge offer to one candidate fellow.
func (s *AssignmentService) Offer(submissionID, candidateID, actorID int) (*models.EditorialAssignment, error) {
	now := s.now()
	var created *models.EditorialAssignment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.Status != models.StatusUnassigned && sub.Status != models.StatusResubmissionIncoming {
			return &InvalidTransitionError{SubmissionID: sub.SubmissionID, From: sub.Status, To: models.StatusEICAssigned}
		}

		var candidate models.User
		if err := tx.Where("user_id = ? AND delete_at IS NULL", candidateID).First(&candidate).Error; err != nil {
			return err
		}
		if !candidate.IsFellow() {
			return fmt.Errorf("user %d is not a college fellow: %w", candidateID, ErrPermissionDenied)
		}

		var existing int64
		if err := tx.Model(&models.EditorialAssignment{}).
			Where("submission_id = ? AND candidate_id = ? AND deprecated = ?", submissionID, candidateID, false).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("candidate %d already has an open offer for submission %d", candidateID, submissionID)
		}

		offer := models.EditorialAssignment{
			SubmissionID: submissionID,
			CandidateID:  candidateID,
			CreatedAt:    now,
		}
		if err := tx.Create(&offer).Error; err != nil {
			return err
		}
		created = &offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventAssignmentOffered, submissionID, nil)
	return created, nil
}

// Accept records the candidate's acceptance: the submission moves to
// eic_assigned with this candidate in charge, all sibling pending offers
// deprecate, and the reporting deadline opens on the current cycle's
// window. First acceptance wins; a second acceptance attempt finds the
// offer deprecated and fails.
func (s *AssignmentService) Accept(assignmentID, actorID int) (*models.EditorialAssignment, error) {
	now := s.now()
	var out *models.EditorialAssignment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var offer models.EditorialAssignment
		if err := tx.Where("assignment_id = ?", assignmentID).First(&offer).Error; err != nil {
			return err
		}
		if offer.CandidateID != actorID {
			return ErrPermissionDenied
		}

		// Lock the submission before rereading the offer: the lock is the
		// serialization point for sibling accept/decline races.
		sub, err := lockSubmission(tx, offer.SubmissionID)
		if err != nil {
			return err
		}
		// reread into a zero-value struct: a populated primary key would
		// otherwise be added by GORM as an extra query condition
		offer = models.EditorialAssignment{}
		if err := tx.Where("assignment_id = ?", assignmentID).First(&offer).Error; err != nil {
			return err
		}
		if !offer.Open() {
			return ErrAlreadyAnswered
		}

		if err := transition(tx, sub, models.StatusEICAssigned, actorID, "editorial assignment accepted", "", now); err != nil {
			return err
		}

		accepted := true
		if err := tx.Model(&models.EditorialAssignment{}).
			Where("assignment_id = ?", offer.AssignmentID).
			Updates(map[string]interface{}{"accepted": true, "answered_at": now}).Error; err != nil {
			return err
		}
		offer.Accepted = &accepted
		offer.AnsweredAt = &now

		if err := tx.Model(&models.EditorialAssignment{}).
			Where("submission_id = ? AND assignment_id <> ? AND accepted IS NULL", offer.SubmissionID, offer.AssignmentID).
			Update("deprecated", true).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"editor_in_charge_id": actorID,
			"updated_at":          now,
		}
		if sub.RefereeingCycle != "" {
			policy, err := PolicyFor(sub.RefereeingCycle, sub.TargetJournal)
			if err != nil {
				return err
			}
			deadline := policy.Deadline(now)
			updates["reporting_deadline"] = deadline
			updates["open_for_reporting"] = policy.AllowsSolicitation
			updates["open_for_commenting"] = true
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", sub.SubmissionID).
			Updates(updates).Error; err != nil {
			return err
		}

		out = &offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventAssignmentAccepted, out.SubmissionID, nil)
	return out, nil
}

// Decline records the candidate's refusal with an optional reason.
func (s *AssignmentService) Decline(assignmentID, actorID int, reason string) (*models.EditorialAssignment, error) {
	now := s.now()
	var out *models.EditorialAssignment
	lastOpen := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var offer models.EditorialAssignment
		if err := tx.Where("assignment_id = ?", assignmentID).First(&offer).Error; err != nil {
			return err
		}
		if offer.CandidateID != actorID {
			return ErrPermissionDenied
		}

		if _, err := lockSubmission(tx, offer.SubmissionID); err != nil {
			return err
		}
		if err := tx.Where("assignment_id = ?", assignmentID).First(&offer).Error; err != nil {
			return err
		}
		if !offer.Open() {
			return ErrAlreadyAnswered
		}

		updates := map[string]interface{}{"accepted": false, "answered_at": now}
		if reason != "" {
			updates["refusal_reason"] = reason
		}
		if err := tx.Model(&models.EditorialAssignment{}).
			Where("assignment_id = ?", offer.AssignmentID).
			Updates(updates).Error; err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&models.EditorialAssignment{}).
			Where("submission_id = ? AND accepted IS NULL AND deprecated = ?", offer.SubmissionID, false).
			Count(&open).Error; err != nil {
			return err
		}
		lastOpen = open == 0

		declined := false
		offer.Accepted = &declined
		offer.AnsweredAt = &now
		out = &offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	if lastOpen {
		// pre-screening is not abandoned automatically; alert the admins
		s.notifier.Dispatch(EventAssignmentDeclined, out.SubmissionID, map[string]string{
			"note": "No open editorial assignment offers remain for this submission.",
		})
	}
	return out, nil
}

// FailPreScreening abandons the search for an editor-in-charge: the
// submission moves to the terminal assignment_failed state and all open
// offers deprecate. Reported to the authors, never retried.
func (s *AssignmentService) FailPreScreening(submissionID, adminID int, reason string) (*models.Submission, error) {
	now := s.now()
	var out *models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if err := transition(tx, sub, models.StatusAssignmentFailed, adminID, reason, "pre-screening abandoned", now); err != nil {
			return err
		}
		if err := tx.Model(&models.EditorialAssignment{}).
			Where("submission_id = ? AND accepted IS NULL AND deprecated = ?", submissionID, false).
			Update("deprecated", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(map[string]interface{}{"visible_pool": false, "updated_at": now}).Error; err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventPreScreeningFailed, submissionID, map[string]string{"reason": reason})
	return out, nil
}

// ListForSubmission returns all offers for one submission, oldest first.
func (s *AssignmentService) ListForSubmission(submissionID int) ([]models.EditorialAssignment, error) {
	var offers []models.EditorialAssignment
	err := s.db.Preload("Candidate").
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// OpenOffersFor returns the candidate's unanswered offers.
func (s *AssignmentService) OpenOffersFor(candidateID int) ([]models.EditorialAssignment, error) {
	var offers []models.EditorialAssignment
	err := s.db.Preload("Submission").
		Where("candidate_id = ? AND accepted IS NULL AND deprecated = ?", candidateID, false).
		Order("created_at ASC").Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}
