package services

import (
	"editorial-workflow-api/models"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RecommendationService manages formulation of the editorial
// recommendation, the curated eligible-to-vote set, vote tallying and
// decision fixation. All set mutations run inside the submission-scoped
// transaction; one vote row per (recommendation, fellow) keeps the
// for/against/abstain sets disjoint by construction.
type RecommendationService struct {
	db         *gorm.DB
	notifier   *NotificationService
	now        func() time.Time
	onAccepted func(sub *models.Submission)
}

func NewRecommendationService(db *gorm.DB, notifier *NotificationService) *RecommendationService {
	return &RecommendationService{db: db, notifier: notifier, now: time.Now}
}

// SetProductionHandoff installs the downstream hook invoked exactly once
// after a submission becomes accepted.
func (s *RecommendationService) SetProductionHandoff(fn func(sub *models.Submission)) {
	s.onAccepted = fn
}

// Formulate creates the editor-in-charge's recommendation. A previous
// active recommendation deprecates in the same transaction, so at most
// one stays active per submission. The submission mirrors the
// recommendation into voting_in_preparation.
func (s *RecommendationService) Formulate(submissionID, actorID int, value, remarks string) (*models.EICRecommendation, error) {
	if !validRecommendation(value) {
		return nil, fmt.Errorf("unknown recommendation value %q", value)
	}
	now := s.now()
	var out *models.EICRecommendation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub, err := lockSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.EditorInChargeID == nil || *sub.EditorInChargeID != actorID {
			return ErrPermissionDenied
		}
		if _, err := PolicyFor(sub.RefereeingCycle, sub.TargetJournal); err != nil {
			return err
		}

		version := 1
		var prior models.EICRecommendation
		err = tx.Where("submission_id = ? AND active = ?", submissionID, true).First(&prior).Error
		switch {
		case err == nil:
			if prior.Status == models.RecStatusFixed {
				return ErrAlreadyFixed
			}
			if err := tx.Model(&models.EICRecommendation{}).
				Where("recommendation_id = ?", prior.RecommendationID).
				Updates(map[string]interface{}{"active": false, "status": models.RecStatusDeprecated}).Error; err != nil {
				return err
			}
			version = prior.Version + 1
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first formulation for this submission
		default:
			return err
		}

		if sub.Status != models.StatusVotingInPreparation {
			if err := transition(tx, sub, models.StatusVotingInPreparation, actorID, "recommendation formulated", "", now); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(map[string]interface{}{"open_for_reporting": false, "updated_at": now}).Error; err != nil {
			return err
		}

		rec := models.EICRecommendation{
			SubmissionID:   submissionID,
			FormulatedBy:   actorID,
			Recommendation: value,
			Status:         models.RecStatusVotingInPreparation,
			Version:        version,
			Active:         true,
			Remarks:        remarks,
			FormulatedAt:   now,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventRecommendationFormed, submissionID, map[string]string{
		"recommendation": out.Recommendation,
	})
	return out, nil
}

// AddEligibleVoter puts one fellow into the curated eligible-to-vote set.
// Fellows with a declared conflict against the submission's authors must
// never be added.
func (s *RecommendationService) AddEligibleVoter(recommendationID, fellowID, adminID int) (*models.EligibleVoter, error) {
	now := s.now()
	var out *models.EligibleVoter

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockRecommendation(tx, recommendationID)
		if err != nil {
			return err
		}
		if rec.Status != models.RecStatusVotingInPreparation && rec.Status != models.RecStatusPutToVoting {
			return fmt.Errorf("recommendation %d is not open for voter curation: %w", rec.RecommendationID, ErrInvalidTransition)
		}

		var fellow models.User
		if err := tx.Where("user_id = ? AND delete_at IS NULL", fellowID).First(&fellow).Error; err != nil {
			return err
		}
		if !fellow.IsFellow() {
			return fmt.Errorf("user %d is not a college fellow: %w", fellowID, ErrIneligibleVoter)
		}

		var conflicts int64
		if err := tx.Model(&models.CompetingInterest{}).
			Where("submission_id = ? AND fellow_id = ?", rec.SubmissionID, fellowID).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return ErrConflictOfInterest
		}

		var existing int64
		if err := tx.Model(&models.EligibleVoter{}).
			Where("recommendation_id = ? AND fellow_id = ?", recommendationID, fellowID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("fellow %d is already eligible on recommendation %d", fellowID, recommendationID)
		}

		voter := models.EligibleVoter{
			RecommendationID: recommendationID,
			FellowID:         fellowID,
			AddedBy:          adminID,
			AddedAt:          now,
		}
		if err := tx.Create(&voter).Error; err != nil {
			return err
		}
		out = &voter
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutToVoting opens the vote: recommendation and submission both move to
// put_to_voting.
func (s *RecommendationService) PutToVoting(recommendationID, adminID int) (*models.EICRecommendation, error) {
	now := s.now()
	var out *models.EICRecommendation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockRecommendation(tx, recommendationID)
		if err != nil {
			return err
		}
		if rec.Status != models.RecStatusVotingInPreparation {
			return fmt.Errorf("recommendation %d is not in voting preparation: %w", rec.RecommendationID, ErrInvalidTransition)
		}

		sub, err := lockSubmission(tx, rec.SubmissionID)
		if err != nil {
			return err
		}
		if err := transition(tx, sub, models.StatusPutToVoting, adminID, "put to College voting", "", now); err != nil {
			return err
		}
		if err := tx.Model(&models.EICRecommendation{}).
			Where("recommendation_id = ?", rec.RecommendationID).
			Update("status", models.RecStatusPutToVoting).Error; err != nil {
			return err
		}
		rec.Status = models.RecStatusPutToVoting
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventVotingOpened, out.SubmissionID, nil)
	return out, nil
}

// CastVote records one eligible fellow's vote. The row per
// (recommendation, fellow) is the whole move: inserting a first vote,
// or switching an existing one, is a single atomic write. Re-casting the
// same choice is rejected with ErrDuplicateVote, not silently ignored.
// An optional tier records the fellow's quality tiering at voting time.
func (s *RecommendationService) CastVote(recommendationID, fellowID int, vote string, tier *int) (*models.RecommendationVote, error) {
	switch vote {
	case models.VoteFor, models.VoteAgainst, models.VoteAbstain:
	default:
		return nil, fmt.Errorf("unknown vote choice %q", vote)
	}
	now := s.now()
	var out *models.RecommendationVote

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockRecommendation(tx, recommendationID)
		if err != nil {
			return err
		}
		if rec.Status != models.RecStatusPutToVoting {
			return fmt.Errorf("recommendation %d is not open for voting: %w", rec.RecommendationID, ErrInvalidTransition)
		}

		var eligible int64
		if err := tx.Model(&models.EligibleVoter{}).
			Where("recommendation_id = ? AND fellow_id = ?", recommendationID, fellowID).
			Count(&eligible).Error; err != nil {
			return err
		}
		if eligible == 0 {
			return ErrIneligibleVoter
		}

		var existing models.RecommendationVote
		err = tx.Where("recommendation_id = ? AND fellow_id = ?", recommendationID, fellowID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.Vote == vote {
				return ErrDuplicateVote
			}
			if err := tx.Model(&models.RecommendationVote{}).
				Where("recommendation_id = ? AND fellow_id = ?", recommendationID, fellowID).
				Updates(map[string]interface{}{"vote": vote, "updated_at": now}).Error; err != nil {
				return err
			}
			existing.Vote = vote
			existing.UpdatedAt = now
			out = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := models.RecommendationVote{
				RecommendationID: recommendationID,
				FellowID:         fellowID,
				Vote:             vote,
				CastAt:           now,
				UpdatedAt:        now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			out = &row
		default:
			return err
		}

		if tier != nil {
			if err := s.recordTiering(tx, rec, fellowID, *tier, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// recordTiering creates the (submission, fellow, journal) tiering once;
// later votes leave an existing record untouched.
func (s *RecommendationService) recordTiering(tx *gorm.DB, rec *models.EICRecommendation, fellowID, tier int, now time.Time) error {
	if tier < 1 || tier > 3 {
		return fmt.Errorf("tier must be 1, 2 or 3, got %d", tier)
	}
	var sub models.Submission
	if err := tx.Where("submission_id = ?", rec.SubmissionID).First(&sub).Error; err != nil {
		return err
	}
	var existing int64
	if err := tx.Model(&models.SubmissionTiering{}).
		Where("submission_id = ? AND fellow_id = ? AND journal = ?", rec.SubmissionID, fellowID, sub.TargetJournal).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}
	return tx.Create(&models.SubmissionTiering{
		SubmissionID: rec.SubmissionID,
		FellowID:     fellowID,
		Journal:      sub.TargetJournal,
		Tier:         tier,
		RecordedAt:   now,
	}).Error
}

// CorrectTiering is the explicit correction path for an existing record.
func (s *RecommendationService) CorrectTiering(submissionID, fellowID, adminID, tier int) error {
	if tier < 1 || tier > 3 {
		return fmt.Errorf("tier must be 1, 2 or 3, got %d", tier)
	}
	result := s.db.Model(&models.SubmissionTiering{}).
		Where("submission_id = ? AND fellow_id = ?", submissionID, fellowID).
		Update("tier", tier)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// VoteTally is the current standing of one recommendation's vote.
type VoteTally struct {
	Eligible int `json:"eligible"`
	For      int `json:"for"`
	Against  int `json:"against"`
	Abstain  int `json:"abstain"`
}

func (t VoteTally) votesCast() int {
	return t.For + t.Against + t.Abstain
}

// quorum is the minimum number of cast votes required before fixation:
// at least half of the eligible set, rounded up.
func (t VoteTally) quorumMet() bool {
	return t.votesCast() >= (t.Eligible+1)/2
}

// Tally counts the vote sets for one recommendation.
func (s *RecommendationService) Tally(recommendationID int) (VoteTally, error) {
	return tallyVotes(s.db, recommendationID)
}

func tallyVotes(tx *gorm.DB, recommendationID int) (VoteTally, error) {
	var tally VoteTally

	var eligible int64
	if err := tx.Model(&models.EligibleVoter{}).
		Where("recommendation_id = ?", recommendationID).
		Count(&eligible).Error; err != nil {
		return tally, err
	}
	tally.Eligible = int(eligible)

	rows := []struct {
		Vote  string
		Total int
	}{}
	if err := tx.Model(&models.RecommendationVote{}).
		Select("vote, COUNT(*) AS total").
		Where("recommendation_id = ?", recommendationID).
		Group("vote").Scan(&rows).Error; err != nil {
		return tally, err
	}
	for _, row := range rows {
		switch row.Vote {
		case models.VoteFor:
			tally.For = row.Total
		case models.VoteAgainst:
			tally.Against = row.Total
		case models.VoteAbstain:
			tally.Abstain = row.Total
		}
	}
	return tally, nil
}

// FixDecision closes voting and drives the terminal submission
// transition. Repeat invocation on a fixed recommendation fails with
// ErrAlreadyFixed. Outcomes:
//   - publish tiers: submission accepted, acceptance date set, production
//     handoff written (unique per submission, so delivered at most once);
//   - reject: submission rejected, every other version of the thread
//     retroactively marked resubmitted_rejected;
//   - minor/major revision: no terminal transition, the submission
//     returns to review_closed awaiting a resubmission.
func (s *RecommendationService) FixDecision(recommendationID, adminID int) (*models.EICRecommendation, error) {
	now := s.now()
	var out *models.EICRecommendation
	var acceptedSub *models.Submission

	err := s.db.Transaction(func(tx *gorm.DB) error {
		rec, err := s.lockRecommendation(tx, recommendationID)
		if err != nil {
			return err
		}
		if rec.Status == models.RecStatusFixed {
			return ErrAlreadyFixed
		}
		if rec.Status != models.RecStatusPutToVoting {
			return fmt.Errorf("recommendation %d is not at the voting stage: %w", rec.RecommendationID, ErrInvalidTransition)
		}

		tally, err := tallyVotes(tx, rec.RecommendationID)
		if err != nil {
			return err
		}
		if !tally.quorumMet() {
			return fmt.Errorf("%d of %d eligible votes cast: %w", tally.votesCast(), tally.Eligible, ErrInsufficientQuorum)
		}

		sub, err := lockSubmission(tx, rec.SubmissionID)
		if err != nil {
			return err
		}

		switch {
		case rec.ForPublication():
			if err := transition(tx, sub, models.StatusAccepted, adminID, "College decision: accept", rec.Recommendation, now); err != nil {
				return err
			}
			today := now
			if err := tx.Model(&models.Submission{}).
				Where("submission_id = ?", sub.SubmissionID).
				Updates(map[string]interface{}{"acceptance_date": today, "updated_at": now}).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.ProductionEvent{
				SubmissionID: sub.SubmissionID,
				CreatedAt:    now,
			}).Error; err != nil {
				return err
			}
			sub.AcceptanceDate = &today
			acceptedSub = sub

		case rec.Recommendation == models.RecReject:
			if err := transition(tx, sub, models.StatusRejected, adminID, "College decision: reject", "", now); err != nil {
				return err
			}
			if err := s.propagateThreadRejection(tx, sub, adminID, now); err != nil {
				return err
			}

		case rec.ForRevision():
			if err := transition(tx, sub, models.StatusReviewClosed, adminID, "College decision: revision requested", rec.Recommendation, now); err != nil {
				return err
			}

		default:
			return fmt.Errorf("recommendation %d carries unknown value %q", rec.RecommendationID, rec.Recommendation)
		}

		if err := tx.Model(&models.EICRecommendation{}).
			Where("recommendation_id = ?", rec.RecommendationID).
			Updates(map[string]interface{}{
				"status":   models.RecStatusFixed,
				"fixed_at": now,
				"fixed_by": adminID,
			}).Error; err != nil {
			return err
		}
		rec.Status = models.RecStatusFixed
		rec.FixedAt = &now
		rec.FixedBy = &adminID
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(EventDecisionFixed, out.SubmissionID, map[string]string{
		"recommendation": out.Recommendation,
	})
	if acceptedSub != nil {
		s.notifier.Dispatch(EventSubmissionAccepted, acceptedSub.SubmissionID, nil)
		if s.onAccepted != nil {
			s.onAccepted(acceptedSub)
		}
	} else if out.Recommendation == models.RecReject {
		s.notifier.Dispatch(EventSubmissionRejected, out.SubmissionID, nil)
	}
	return out, nil
}

// propagateThreadRejection marks every superseded version of the thread
// as resubmitted_rejected; the current version keeps the plain rejected
// status.
func (s *RecommendationService) propagateThreadRejection(tx *gorm.DB, current *models.Submission, adminID int, now time.Time) error {
	var versions []models.Submission
	if err := tx.Where("thread_id = ? AND submission_id <> ? AND deleted_at IS NULL",
		current.ThreadID, current.SubmissionID).Find(&versions).Error; err != nil {
		return err
	}
	for i := range versions {
		v := &versions[i]
		if v.Status != models.StatusResubmitted {
			continue
		}
		if err := transition(tx, v, models.StatusResubmittedRejected, adminID,
			"thread rejected by College decision", "", now); err != nil {
			return err
		}
	}
	return nil
}

// lockRecommendation loads the active recommendation row under lock via
// its submission (the submission row is the serialization point).
func (s *RecommendationService) lockRecommendation(tx *gorm.DB, recommendationID int) (*models.EICRecommendation, error) {
	var rec models.EICRecommendation
	if err := tx.Where("recommendation_id = ?", recommendationID).First(&rec).Error; err != nil {
		return nil, err
	}
	if _, err := lockSubmission(tx, rec.SubmissionID); err != nil {
		return nil, err
	}
	// reread now that the lock is held, into a zero-value struct: a
	// populated primary key would otherwise be added by GORM as an
	// extra query condition
	rec = models.EICRecommendation{}
	if err := tx.Where("recommendation_id = ?", recommendationID).First(&rec).Error; err != nil {
		return nil, err
	}
	if !rec.Active {
		return nil, fmt.Errorf("recommendation %d has been superseded: %w", recommendationID, ErrInvalidTransition)
	}
	return &rec, nil
}

// Active returns the submission's active recommendation, if any.
func (s *RecommendationService) Active(submissionID int) (*models.EICRecommendation, error) {
	var rec models.EICRecommendation
	err := s.db.Preload("Formulator").
		Where("submission_id = ? AND active = ?", submissionID, true).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
