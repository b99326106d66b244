package models

import "time"

// Report statuses. A draft is private to its author; submission moves it
// to unvetted and the editor-in-charge vets it from there. Reports are
// immutable once vetted.
const (
	ReportDraft               = "draft"
	ReportUnvetted            = "unvetted"
	ReportVetted              = "vetted"
	ReportRejectedUnclear     = "rejected_unclear"
	ReportRejectedIncorrect   = "rejected_incorrect"
	ReportRejectedNotUseful   = "rejected_not_useful"
	ReportRejectedNotAcademic = "rejected_not_academic"
)

// Report recommendation tiers, shared with EICRecommendation values.
const (
	RecPublishTier1  = "publish_tier_1"
	RecPublishTier2  = "publish_tier_2"
	RecPublishTier3  = "publish_tier_3"
	RecMinorRevision = "minor_revision"
	RecMajorRevision = "major_revision"
	RecReject        = "reject"
)

// Report is a referee's review of one submission.
type Report struct {
	ReportID         int        `gorm:"primaryKey;column:report_id" json:"report_id"`
	SubmissionID     int        `gorm:"column:submission_id" json:"submission_id"`
	AuthorID         int        `gorm:"column:author_id" json:"author_id"`
	ReportNumber     *int       `gorm:"column:report_number" json:"report_number,omitempty"`
	Status           string     `gorm:"column:status" json:"status"`
	Invited          bool       `gorm:"column:invited" json:"invited"`
	InvitationID     *int       `gorm:"column:invitation_id" json:"invitation_id,omitempty"`
	Strengths        string     `gorm:"column:strengths" json:"strengths"`
	Weaknesses       string     `gorm:"column:weaknesses" json:"weaknesses"`
	ReportText       string     `gorm:"column:report_text" json:"report_text"`
	RequestedChanges string     `gorm:"column:requested_changes" json:"requested_changes"`
	Validity         *int       `gorm:"column:validity" json:"validity,omitempty"`
	Significance     *int       `gorm:"column:significance" json:"significance,omitempty"`
	Originality      *int       `gorm:"column:originality" json:"originality,omitempty"`
	Clarity          *int       `gorm:"column:clarity" json:"clarity,omitempty"`
	Recommendation   string     `gorm:"column:recommendation" json:"recommendation"`
	VettedBy         *int       `gorm:"column:vetted_by" json:"vetted_by,omitempty"`
	VettedAt         *time.Time `gorm:"column:vetted_at" json:"vetted_at,omitempty"`
	SubmittedAt      *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Author     *User       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}

func (Report) TableName() string {
	return "reports"
}

// AwaitingVetting reports whether the report sits in the editor's queue.
func (r *Report) AwaitingVetting() bool {
	return r.Status == ReportUnvetted
}

// Vetted reports whether the report has received a vetting decision
// (acceptance or any of the rejected variants).
func (r *Report) Vetted() bool {
	switch r.Status {
	case ReportVetted, ReportRejectedUnclear, ReportRejectedIncorrect,
		ReportRejectedNotUseful, ReportRejectedNotAcademic:
		return true
	}
	return false
}
