package models

import "time"

// Submission statuses. One manuscript version moves through these; the
// terminal ones are immutable (see IsTerminal).
const (
	StatusUnassigned                 = "unassigned"
	StatusResubmissionIncoming       = "resubmission_incoming"
	StatusEICAssigned                = "eic_assigned"
	StatusReviewClosed               = "review_closed"
	StatusVotingInPreparation        = "voting_in_preparation"
	StatusPutToVoting                = "put_to_voting"
	StatusAccepted                   = "accepted"
	StatusRejected                   = "rejected"
	StatusRejectedVisible            = "rejected_visible"
	StatusResubmitted                = "resubmitted"
	StatusResubmittedRejected        = "resubmitted_rejected"
	StatusResubmittedRejectedVisible = "resubmitted_rejected_visible"
	StatusPublished                  = "published"
	StatusWithdrawn                  = "withdrawn"
	StatusAssignmentFailed           = "assignment_failed"
)

// Refereeing cycle choices. Empty string means not yet chosen
// (always the case on a fresh resubmission).
const (
	CycleRegular   = "regular"
	CycleShort     = "short"
	CycleDirectRec = "direct_rec"
)

// Submission represents one version of a manuscript under consideration.
// All versions of one manuscript share a thread_id; exactly one of them
// has is_current = true.
type Submission struct {
	SubmissionID      int        `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	ThreadID          string     `gorm:"column:thread_id" json:"thread_id"`
	VersionNumber     int        `gorm:"column:version_number" json:"version_number"`
	Title             string     `gorm:"column:title" json:"title"`
	AuthorList        string     `gorm:"column:author_list" json:"author_list"`
	SubmittedBy       int        `gorm:"column:submitted_by" json:"submitted_by"`
	TargetJournal     string     `gorm:"column:target_journal" json:"target_journal"`
	Status            string     `gorm:"column:status" json:"status"`
	IsCurrent         bool       `gorm:"column:is_current" json:"is_current"`
	VisiblePublic     bool       `gorm:"column:visible_public" json:"visible_public"`
	VisiblePool       bool       `gorm:"column:visible_pool" json:"visible_pool"`
	EditorInChargeID  *int       `gorm:"column:editor_in_charge_id" json:"editor_in_charge_id,omitempty"`
	RefereeingCycle   string     `gorm:"column:refereeing_cycle" json:"refereeing_cycle"`
	ReportingDeadline *time.Time `gorm:"column:reporting_deadline" json:"reporting_deadline,omitempty"`
	OpenForReporting  bool       `gorm:"column:open_for_reporting" json:"open_for_reporting"`
	OpenForCommenting bool       `gorm:"column:open_for_commenting" json:"open_for_commenting"`
	PredecessorID     *int       `gorm:"column:predecessor_id" json:"predecessor_id,omitempty"`
	AcceptanceDate    *time.Time `gorm:"column:acceptance_date" json:"acceptance_date,omitempty"`
	SubmittedAt       time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt         *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	// Relations
	SubmittedByUser *User `gorm:"foreignKey:SubmittedBy" json:"submitted_by_user,omitempty"`
	EditorInCharge  *User `gorm:"foreignKey:EditorInChargeID" json:"editor_in_charge,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// InRefereeingPhase reports whether referee activity (invitations,
// reports) is still meaningful for this version.
func (s *Submission) InRefereeingPhase() bool {
	return s.Status == StatusEICAssigned
}

// IsTerminal reports whether the submission has reached an immutable state.
func (s *Submission) IsTerminal() bool {
	switch s.Status {
	case StatusPublished, StatusWithdrawn, StatusRejected, StatusRejectedVisible,
		StatusResubmittedRejected, StatusResubmittedRejectedVisible, StatusAssignmentFailed:
		return true
	}
	return false
}
