package models

import "time"

// EditorialAssignment is an offer of editor-in-charge duties to one
// candidate fellow for one submission. Accepted is tri-state: nil while
// the offer is pending, then true/false.
type EditorialAssignment struct {
	AssignmentID  int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	SubmissionID  int        `gorm:"column:submission_id" json:"submission_id"`
	CandidateID   int        `gorm:"column:candidate_id" json:"candidate_id"`
	Accepted      *bool      `gorm:"column:accepted" json:"accepted"`
	Deprecated    bool       `gorm:"column:deprecated" json:"deprecated"`
	Completed     bool       `gorm:"column:completed" json:"completed"`
	RefusalReason *string    `gorm:"column:refusal_reason" json:"refusal_reason,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	AnsweredAt    *time.Time `gorm:"column:answered_at" json:"answered_at,omitempty"`

	// Relations
	Candidate  *User       `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}

func (EditorialAssignment) TableName() string {
	return "editorial_assignments"
}

// Open reports whether the offer is still awaiting an answer.
func (a *EditorialAssignment) Open() bool {
	return a.Accepted == nil && !a.Deprecated
}
