package services

import (
	"editorial-workflow-api/models"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationService runs the referee-invitation sub-lifecycle. Rows are
// never deleted; cancellation is terminal and re-engaging a referee means
// a fresh invitation.
type InvitationService struct {
	db       *gorm.DB
	notifier *NotificationService
	now      func() time.Time
}

func NewInvitationService(db *gorm.DB, notifier *NotificationService) *InvitationService {
	return &InvitationService{db: db, notifier: notifier, now: time.Now}
}

type InviteInput struct {
	SubmissionID int
	RefereeID    *int   // registered user, or
	ContactName  string // unresolved contact
	ContactEmail string
}

// Invite sends a refereeing invitation on behalf of the editor-in-charge.
// The cycle must be chosen and must allow solicitation.
func (s *InvitationService) Invite(actorID int, in *InviteInput) (*models.RefereeInvitation, error) {
	now := s.now()
	var created *models.RefereeInvitation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, in.SubmissionID)
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
		if !policy.AllowsSolicitation {
			return fmt.Errorf("the %s cycle does not solicit referees: %w", policy.Cycle, ErrPermissionDenied)
		}
		if !sub.InRefereeingPhase() {
			return fmt.Errorf("submission %d is not in the refereeing phase (status %s): %w",
				sub.SubmissionID, sub.Status, ErrInvalidTransition)
		}

		inv := models.RefereeInvitation{
			SubmissionID: in.SubmissionID,
			RefereeID:    in.RefereeID,
			InviteToken:  uuid.NewString(),
			InvitedBy:    actorID,
			DateInvited:  now,
		}
		if in.RefereeID == nil {
			if in.ContactEmail == "" {
				return fmt.Errorf("an unregistered referee needs a contact email")
			}
			inv.ContactName = &in.ContactName
			inv.ContactEmail = &in.ContactEmail
		}
		if err := tx.Create(&inv).Error; err != nil {
			return err
		}
		created = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyInvitee(EventRefereeInvited, created, map[string]string{
		"token": created.InviteToken,
	})
	s.notifier.Dispatch(EventRefereeInvited, created.SubmissionID, nil)
	return created, nil
}

// Accept records the referee's acceptance by user id.
func (s *InvitationService) Accept(invitationID, actorID int) (*models.RefereeInvitation, error) {
	return s.answer(invitationID, &actorID, "", true, "")
}

// Decline records the referee's refusal by user id.
func (s *InvitationService) Decline(invitationID, actorID int, reason string) (*models.RefereeInvitation, error) {
	return s.answer(invitationID, &actorID, "", false, reason)
}

// AnswerByToken lets an unregistered referee respond via the token link.
func (s *InvitationService) AnswerByToken(token string, accept bool, reason string) (*models.RefereeInvitation, error) {
	return s.answer(0, nil, token, accept, reason)
}

func (s *InvitationService) answer(invitationID int, actorID *int, token string, accept bool, reason string) (*models.RefereeInvitation, error) {
	now := s.now()
	var out *models.RefereeInvitation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.RefereeInvitation
		query := tx.Model(&models.RefereeInvitation{})
		if token != "" {
			query = query.Where("invite_token = ?", token)
		} else {
			query = query.Where("invitation_id = ?", invitationID)
		}
		if err := query.First(&inv).Error; err != nil {
			return err
		}
		if actorID != nil && (inv.RefereeID == nil || *inv.RefereeID != *actorID) {
			return ErrPermissionDenied
		}

		if _, err := lockSubmission(tx, inv.SubmissionID); err != nil {
			return err
		}
		if err := tx.Where("invitation_id = ?", inv.InvitationID).First(&inv).Error; err != nil {
			return err
		}
		if inv.Cancelled || inv.Fulfilled {
			return ErrInvitationClosed
		}
		if inv.Accepted != nil {
			return ErrAlreadyAnswered
		}

		updates := map[string]interface{}{
			"accepted":       accept,
			"date_responded": now,
		}
		if !accept && reason != "" {
			updates["refusal_reason"] = reason
		}
		if err := tx.Model(&models.RefereeInvitation{}).
			Where("invitation_id = ?", inv.InvitationID).
			Updates(updates).Error; err != nil {
			return err
		}
		inv.Accepted = &accept
		inv.DateResponded = &now
		out = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := EventRefereeAccepted
	if !accept {
		event = EventRefereeDeclined
	}
	s.notifier.Dispatch(event, out.SubmissionID, map[string]string{"referee": out.RefereeDisplay()})
	return out, nil
}

// Cancel withdraws the invitation. Terminal: the row stays for audit and
// a fresh invitation is needed to re-engage the same referee.
func (s *InvitationService) Cancel(invitationID, actorID int) (*models.RefereeInvitation, error) {
	now := s.now()
	var out *models.RefereeInvitation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.RefereeInvitation
		if err := tx.Where("invitation_id = ?", invitationID).First(&inv).Error; err != nil {
			return err
		}
		sub, err := lockSubmission(tx, inv.SubmissionID)
		if err != nil {
			return err
		}
		if sub.EditorInChargeID == nil || *sub.EditorInChargeID != actorID {
			return ErrPermissionDenied
		}
		if err := tx.Where("invitation_id = ?", invitationID).First(&inv).Error; err != nil {
			return err
		}
		if inv.Cancelled || inv.Fulfilled {
			return ErrInvitationClosed
		}
		if err := tx.Model(&models.RefereeInvitation{}).
			Where("invitation_id = ?", inv.InvitationID).
			Updates(map[string]interface{}{"cancelled": true, "date_responded": now}).Error; err != nil {
			return err
		}
		inv.Cancelled = true
		out = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyInvitee(EventInvitationCancelled, out, nil)
	return out, nil
}

// SendReminder nudges a non-responding or unfulfilled invitee and bumps
// the reminder counter. The derivation of who needs a reminder lives in
// the required-actions engine; this is the effectful half.
func (s *InvitationService) SendReminder(invitationID, actorID int) (*models.RefereeInvitation, error) {
	var out *models.RefereeInvitation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.RefereeInvitation
		if err := tx.Where("invitation_id = ?", invitationID).First(&inv).Error; err != nil {
			return err
		}
		sub, err := lockSubmission(tx, inv.SubmissionID)
		if err != nil {
			return err
		}
		if sub.EditorInChargeID == nil || *sub.EditorInChargeID != actorID {
			return ErrPermissionDenied
		}
		if err := tx.Where("invitation_id = ?", invitationID).First(&inv).Error; err != nil {
			return err
		}
		if !inv.NeedsAttention() {
			return ErrInvitationClosed
		}
		if err := tx.Model(&models.RefereeInvitation{}).
			Where("invitation_id = ?", inv.InvitationID).
			Update("reminder_count", gorm.Expr("reminder_count + 1")).Error; err != nil {
			return err
		}
		inv.ReminderCount++
		out = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyInvitee(EventRefereeReminder, out, map[string]string{
		"token": out.InviteToken,
	})
	return out, nil
}

// Reinvite duplicates earlier invitations with refreshed dates and
// tokens, on behalf of the editor-in-charge. Originals stay untouched for
// audit. Used when a refereeing round restarts on a resubmission.
func (s *InvitationService) Reinvite(submissionID, actorID int, invitationIDs []int) ([]models.RefereeInvitation, error) {
	now := s.now()
	var created []models.RefereeInvitation

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
		if !policy.AllowsSolicitation {
			return fmt.Errorf("the %s cycle does not solicit referees: %w", policy.Cycle, ErrPermissionDenied)
		}

		for _, id := range invitationIDs {
			var prior models.RefereeInvitation
			if err := tx.Where("invitation_id = ?", id).First(&prior).Error; err != nil {
				return err
			}
			if prior.SubmissionID != submissionID {
				return fmt.Errorf("invitation %d does not belong to submission %d", id, submissionID)
			}
			fresh := models.RefereeInvitation{
				SubmissionID: submissionID,
				RefereeID:    prior.RefereeID,
				ContactName:  prior.ContactName,
				ContactEmail: prior.ContactEmail,
				InviteToken:  uuid.NewString(),
				InvitedBy:    actorID,
				DateInvited:  now,
			}
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
			created = append(created, fresh)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range created {
		s.notifier.NotifyInvitee(EventRefereeInvited, &created[i], map[string]string{
			"token": created[i].InviteToken,
		})
	}
	return created, nil
}

// ListForSubmission returns all invitations for one submission, oldest
// first.
func (s *InvitationService) ListForSubmission(submissionID int) ([]models.RefereeInvitation, error) {
	var invitations []models.RefereeInvitation
	err := s.db.Preload("Referee").
		Where("submission_id = ?", submissionID).
		Order("date_invited ASC").Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}
