package models

import "time"

// EICRecommendation statuses. voting_in_preparation and put_to_voting are
// mirrored onto the submission; fixed is terminal for the recommendation.
const (
	RecStatusDraft               = "draft"
	RecStatusVotingInPreparation = "voting_in_preparation"
	RecStatusPutToVoting         = "put_to_voting"
	RecStatusFixed               = "fixed"
	RecStatusDeprecated          = "deprecated"
)

// Vote choices.
const (
	VoteFor     = "for"
	VoteAgainst = "against"
	VoteAbstain = "abstain"
)

// EICRecommendation is the editor-in-charge's formal recommendation for
// the disposition of one submission. Reformulation deactivates the old
// row and creates a new version; at most one row per submission is active.
type EICRecommendation struct {
	RecommendationID int        `gorm:"primaryKey;column:recommendation_id" json:"recommendation_id"`
	SubmissionID     int        `gorm:"column:submission_id" json:"submission_id"`
	FormulatedBy     int        `gorm:"column:formulated_by" json:"formulated_by"`
	Recommendation   string     `gorm:"column:recommendation" json:"recommendation"`
	Status           string     `gorm:"column:status" json:"status"`
	Version          int        `gorm:"column:version" json:"version"`
	Active           bool       `gorm:"column:active" json:"active"`
	Remarks          string     `gorm:"column:remarks" json:"remarks"`
	FormulatedAt     time.Time  `gorm:"column:formulated_at" json:"formulated_at"`
	FixedAt          *time.Time `gorm:"column:fixed_at" json:"fixed_at,omitempty"`
	FixedBy          *int       `gorm:"column:fixed_by" json:"fixed_by,omitempty"`

	// Relations
	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
	Formulator *User       `gorm:"foreignKey:FormulatedBy" json:"formulator,omitempty"`
}

func (EICRecommendation) TableName() string {
	return "eic_recommendations"
}

// ForPublication reports whether the recommendation value is one of the
// publish tiers.
func (r *EICRecommendation) ForPublication() bool {
	switch r.Recommendation {
	case RecPublishTier1, RecPublishTier2, RecPublishTier3:
		return true
	}
	return false
}

// ForRevision reports whether the recommendation asks the authors for a
// revised version rather than a terminal disposition.
func (r *EICRecommendation) ForRevision() bool {
	return r.Recommendation == RecMinorRevision || r.Recommendation == RecMajorRevision
}

// EligibleVoter is one fellow's membership in the curated eligible-to-vote
// set of one recommendation. The primary key forbids double insertion.
type EligibleVoter struct {
	RecommendationID int       `gorm:"primaryKey;column:recommendation_id" json:"recommendation_id"`
	FellowID         int       `gorm:"primaryKey;column:fellow_id" json:"fellow_id"`
	AddedBy          int       `gorm:"column:added_by" json:"added_by"`
	AddedAt          time.Time `gorm:"column:added_at" json:"added_at"`

	Fellow *User `gorm:"foreignKey:FellowID" json:"fellow,omitempty"`
}

func (EligibleVoter) TableName() string {
	return "recommendation_eligible_voters"
}

// RecommendationVote is one fellow's current vote on one recommendation.
// One row per (recommendation, fellow) keeps the for/against/abstain sets
// disjoint by construction; switching updates the row in place.
type RecommendationVote struct {
	RecommendationID int       `gorm:"primaryKey;column:recommendation_id" json:"recommendation_id"`
	FellowID         int       `gorm:"primaryKey;column:fellow_id" json:"fellow_id"`
	Vote             string    `gorm:"column:vote" json:"vote"`
	CastAt           time.Time `gorm:"column:cast_at" json:"cast_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`

	Fellow *User `gorm:"foreignKey:FellowID" json:"fellow,omitempty"`
}

func (RecommendationVote) TableName() string {
	return "recommendation_votes"
}

// SubmissionTiering records one voter's quality tier for one submission
// against one target journal, at voting time. Immutable after creation
// except by explicit correction.
type SubmissionTiering struct {
	TieringID    int       `gorm:"primaryKey;column:tiering_id" json:"tiering_id"`
	SubmissionID int       `gorm:"column:submission_id;uniqueIndex:uniq_tiering" json:"submission_id"`
	FellowID     int       `gorm:"column:fellow_id;uniqueIndex:uniq_tiering" json:"fellow_id"`
	Journal      string    `gorm:"column:journal;uniqueIndex:uniq_tiering" json:"journal"`
	Tier         int       `gorm:"column:tier" json:"tier"`
	RecordedAt   time.Time `gorm:"column:recorded_at" json:"recorded_at"`
}

func (SubmissionTiering) TableName() string {
	return "submission_tierings"
}

// CompetingInterest is a declared conflict between a fellow and the
// authors of one submission. Conflicted fellows must never enter the
// eligible-to-vote set.
type CompetingInterest struct {
	InterestID   int       `gorm:"primaryKey;column:interest_id" json:"interest_id"`
	SubmissionID int       `gorm:"column:submission_id" json:"submission_id"`
	FellowID     int       `gorm:"column:fellow_id" json:"fellow_id"`
	Nature       string    `gorm:"column:nature" json:"nature"`
	DeclaredAt   time.Time `gorm:"column:declared_at" json:"declared_at"`
}

func (CompetingInterest) TableName() string {
	return "competing_interests"
}

// ProductionEvent is the handoff row written exactly once when a
// submission is accepted. The unique submission_id enforces once-only
// delivery to production.
type ProductionEvent struct {
	EventID      int       `gorm:"primaryKey;column:event_id" json:"event_id"`
	SubmissionID int       `gorm:"column:submission_id;uniqueIndex" json:"submission_id"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ProductionEvent) TableName() string {
	return "production_events"
}
