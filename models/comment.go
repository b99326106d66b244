package models

import "time"

// Comment anchor targets. The set is closed: a comment attaches either
// to a submission or to a report on it.
const (
	CommentTargetSubmission = "submission"
	CommentTargetReport     = "report"
)

// Comment statuses mirror the unvetted/vetted/rejected report flow.
const (
	CommentUnvetted = "unvetted"
	CommentVetted   = "vetted"
	CommentRejected = "rejected"
)

// Comment is a contributor comment on a submission or one of its reports.
type Comment struct {
	CommentID    int        `gorm:"primaryKey;column:comment_id" json:"comment_id"`
	SubmissionID int        `gorm:"column:submission_id" json:"submission_id"`
	TargetType   string     `gorm:"column:target_type" json:"target_type"`
	TargetID     int        `gorm:"column:target_id" json:"target_id"`
	AuthorID     int        `gorm:"column:author_id" json:"author_id"`
	Text         string     `gorm:"column:text" json:"text"`
	Status       string     `gorm:"column:status" json:"status"`
	VettedBy     *int       `gorm:"column:vetted_by" json:"vetted_by,omitempty"`
	VettedAt     *time.Time `gorm:"column:vetted_at" json:"vetted_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`

	// Relations
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) AwaitingVetting() bool {
	return c.Status == CommentUnvetted
}
