package services

import (
	"editorial-workflow-api/models"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ReportService runs the report sub-lifecycle: draft, submission,
// vetting. A draft is private to its author; submission assigns the
// monotonic per-submission report number inside the same transaction and
// fulfils the linked invitation; a vetted report is immutable.
type ReportService struct {
	db       *gorm.DB
	notifier *NotificationService
	now      func() time.Time
}

func NewReportService(db *gorm.DB, notifier *NotificationService) *ReportService {
	return &ReportService{db: db, notifier: notifier, now: time.Now}
}

type ReportInput struct {
	SubmissionID     int
	Strengths        string
	Weaknesses       string
	ReportText       string
	RequestedChanges string
	Validity         *int
	Significance     *int
	Originality      *int
	Clarity          *int
	Recommendation   string
}

func validRecommendation(value string) bool {
	switch value {
	case models.RecPublishTier1, models.RecPublishTier2, models.RecPublishTier3,
		models.RecMinorRevision, models.RecMajorRevision, models.RecReject:
		return true
	}
	return false
}

// SaveDraft creates or updates the author's draft for one submission.
func (s *ReportService) SaveDraft(authorID int, in *ReportInput) (*models.Report, error) {
	now := s.now()
	var out *models.Report

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var sub models.Submission
		if err := tx.Where("submission_id = ? AND deleted_at IS NULL", in.SubmissionID).
			First(&sub).Error; err != nil {
			return err
		}
		if !sub.OpenForReporting {
			return fmt.Errorf("submission %d is not open for reporting: %w", sub.SubmissionID, ErrInvalidTransition)
		}

		var report models.Report
		err := tx.Where("submission_id = ? AND author_id = ? AND status = ?",
			in.SubmissionID, authorID, models.ReportDraft).First(&report).Error
		switch {
		case err == nil:
			if err := tx.Model(&models.Report{}).
				Where("report_id = ?", report.ReportID).
				Updates(draftUpdates(in, now)).Error; err != nil {
				return err
			}
			if err := tx.Where("report_id = ?", report.ReportID).First(&report).Error; err != nil {
				return err
			}
		case err == gorm.ErrRecordNotFound:
			report = models.Report{
				SubmissionID:     in.SubmissionID,
				AuthorID:         authorID,
				Status:           models.ReportDraft,
				Strengths:        in.Strengths,
				Weaknesses:       in.Weaknesses,
				ReportText:       in.ReportText,
				RequestedChanges: in.RequestedChanges,
				Validity:         in.Validity,
				Significance:     in.Significance,
				Originality:      in.Originality,
				Clarity:          in.Clarity,
				Recommendation:   in.Recommendation,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := tx.Create(&report).Error; err != nil {
				return err
			}
		default:
			return err
		}
		out = &report
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func draftUpdates(in *ReportInput, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"strengths":         in.Strengths,
		"weaknesses":        in.Weaknesses,
		"report_text":       in.ReportText,
		"requested_changes": in.RequestedChanges,
		"validity":          in.Validity,
		"significance":      in.Significance,
		"originality":       in.Originality,
		"clarity":           in.Clarity,
		"recommendation":    in.Recommendation,
		"updated_at":        now,
	}
}

// Submit moves the author's draft to unvetted. The report number is the
// count of already-numbered reports plus one, read under the submission
// row lock so numbering stays monotonic. A live invitation from the same
// referee is marked fulfilled.
func (s *ReportService) Submit(reportID, authorID int) (*models.Report, error) {
	now := s.now()
	var out *models.Report

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var report models.Report
		if err := tx.Where("report_id = ?", reportID).First(&report).Error; err != nil {
			return err
		}
		if report.AuthorID != authorID {
			return ErrPermissionDenied
		}

		sub, err := lockSubmission(tx, report.SubmissionID)
		if err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", reportID).First(&report).Error; err != nil {
			return err
		}
		if report.Status != models.ReportDraft {
			return ErrReportImmutable
		}
		if !sub.OpenForReporting {
			return fmt.Errorf("submission %d is not open for reporting: %w", sub.SubmissionID, ErrInvalidTransition)
		}
		if !validRecommendation(report.Recommendation) {
			return fmt.Errorf("report %d carries no valid recommendation tier", report.ReportID)
		}

		var numbered int64
		if err := tx.Model(&models.Report{}).
			Where("submission_id = ? AND report_number IS NOT NULL", report.SubmissionID).
			Count(&numbered).Error; err != nil {
			return err
		}
		number := int(numbered) + 1

		updates := map[string]interface{}{
			"status":        models.ReportUnvetted,
			"report_number": number,
			"submitted_at":  now,
			"updated_at":    now,
		}

		// fulfil the referee's live invitation, if any
		var inv models.RefereeInvitation
		err = tx.Where("submission_id = ? AND referee_id = ? AND cancelled = ? AND accepted = ?",
			report.SubmissionID, report.AuthorID, false, true).First(&inv).Error
		switch {
		case err == nil:
			if err := tx.Model(&models.RefereeInvitation{}).
				Where("invitation_id = ?", inv.InvitationID).
				Update("fulfilled", true).Error; err != nil {
				return err
			}
			updates["invited"] = true
			updates["invitation_id"] = inv.InvitationID
		case err == gorm.ErrRecordNotFound:
			// contributed report, not invited
		default:
			return err
		}

		if err := tx.Model(&models.Report{}).
			Where("report_id = ?", report.ReportID).
			Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", report.ReportID).First(&report).Error; err != nil {
			return err
		}
		out = &report
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventReportSubmitted, out.SubmissionID, map[string]string{
		"report_number": fmt.Sprintf("%d", derefInt(out.ReportNumber)),
	})
	return out, nil
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func validVettingDecision(status string) bool {
	switch status {
	case models.ReportVetted, models.ReportRejectedUnclear, models.ReportRejectedIncorrect,
		models.ReportRejectedNotUseful, models.ReportRejectedNotAcademic:
		return true
	}
	return false
}

// Vet records the editor-in-charge's vetting decision: acceptance or one
// of the rejected variants. The report is immutable afterwards.
func (s *ReportService) Vet(reportID, actorID int, decision string) (*models.Report, error) {
	if !validVettingDecision(decision) {
		return nil, fmt.Errorf("unknown vetting decision %q", decision)
	}
	now := s.now()
	var out *models.Report

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var report models.Report
		if err := tx.Where("report_id = ?", reportID).First(&report).Error; err != nil {
			return err
		}
		sub, err := lockSubmission(tx, report.SubmissionID)
		if err != nil {
			return err
		}
		if sub.EditorInChargeID == nil || *sub.EditorInChargeID != actorID {
			return ErrPermissionDenied
		}
		if err := tx.Where("report_id = ?", reportID).First(&report).Error; err != nil {
			return err
		}
		if report.Status != models.ReportUnvetted {
			return ErrReportImmutable
		}

		if err := tx.Model(&models.Report{}).
			Where("report_id = ?", report.ReportID).
			Updates(map[string]interface{}{
				"status":     decision,
				"vetted_by":  actorID,
				"vetted_at":  now,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		report.Status = decision
		out = &report
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventReportVetted, out.SubmissionID, map[string]string{"decision": decision})
	return out, nil
}

// VetComment records the vetting decision for a contributor comment.
func (s *ReportService) VetComment(commentID, actorID int, approve bool) (*models.Comment, error) {
	now := s.now()
	var out *models.Comment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Where("comment_id = ?", commentID).First(&comment).Error; err != nil {
			return err
		}
		sub, err := lockSubmission(tx, comment.SubmissionID)
		if err != nil {
			return err
		}
		if sub.EditorInChargeID == nil || *sub.EditorInChargeID != actorID {
			return ErrPermissionDenied
		}
		if comment.Status != models.CommentUnvetted {
			return ErrReportImmutable
		}

		status := models.CommentVetted
		if !approve {
			status = models.CommentRejected
		}
		if err := tx.Model(&models.Comment{}).
			Where("comment_id = ?", comment.CommentID).
			Updates(map[string]interface{}{
				"status":    status,
				"vetted_by": actorID,
				"vetted_at": now,
			}).Error; err != nil {
			return err
		}
		comment.Status = status
		out = &comment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventCommentVetted, out.SubmissionID, nil)
	return out, nil
}

// CreateComment files a contributor comment against a submission or one
// of its reports. Comments start unvetted.
func (s *ReportService) CreateComment(authorID int, submissionID int, targetType string, targetID int, text string) (*models.Comment, error) {
	if targetType != models.CommentTargetSubmission && targetType != models.CommentTargetReport {
		return nil, fmt.Errorf("unknown comment target %q", targetType)
	}
	now := s.now()

	var sub models.Submission
	if err := s.db.Where("submission_id = ? AND deleted_at IS NULL", submissionID).
		First(&sub).Error; err != nil {
		return nil, err
	}
	if !sub.OpenForCommenting {
		return nil, fmt.Errorf("submission %d is not open for commenting: %w", submissionID, ErrInvalidTransition)
	}
	if targetType == models.CommentTargetReport {
		var report models.Report
		if err := s.db.Where("report_id = ? AND submission_id = ?", targetID, submissionID).
			First(&report).Error; err != nil {
			return nil, err
		}
	} else {
		targetID = submissionID
	}

	comment := models.Comment{
		SubmissionID: submissionID,
		TargetType:   targetType,
		TargetID:     targetID,
		AuthorID:     authorID,
		Text:         text,
		Status:       models.CommentUnvetted,
		CreatedAt:    now,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListForSubmission returns the reports visible to the editor, numbered
// ones first.
func (s *ReportService) ListForSubmission(submissionID int) ([]models.Report, error) {
	var reports []models.Report
	err := s.db.Preload("Author").
		Where("submission_id = ? AND status <> ?", submissionID, models.ReportDraft).
		Order("report_number ASC").Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}
