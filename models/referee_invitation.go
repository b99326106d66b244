package models

import "time"

// RefereeInvitation is an offer to one person to referee one submission.
// The referee may not be a registered user yet; in that case only the
// contact fields are set and the invitation is answered via its token.
// Invitations are never deleted: cancellation is terminal and a fresh
// row is created to re-engage the same referee.
type RefereeInvitation struct {
	InvitationID  int        `gorm:"primaryKey;column:invitation_id" json:"invitation_id"`
	SubmissionID  int        `gorm:"column:submission_id" json:"submission_id"`
	RefereeID     *int       `gorm:"column:referee_id" json:"referee_id,omitempty"`
	ContactName   *string    `gorm:"column:contact_name" json:"contact_name,omitempty"`
	ContactEmail  *string    `gorm:"column:contact_email" json:"contact_email,omitempty"`
	InviteToken   string     `gorm:"column:invite_token" json:"-"`
	InvitedBy     int        `gorm:"column:invited_by" json:"invited_by"`
	Accepted      *bool      `gorm:"column:accepted" json:"accepted"`
	Fulfilled     bool       `gorm:"column:fulfilled" json:"fulfilled"`
	Cancelled     bool       `gorm:"column:cancelled" json:"cancelled"`
	RefusalReason *string    `gorm:"column:refusal_reason" json:"refusal_reason,omitempty"`
	DateInvited   time.Time  `gorm:"column:date_invited" json:"date_invited"`
	DateResponded *time.Time `gorm:"column:date_responded" json:"date_responded,omitempty"`
	ReminderCount int        `gorm:"column:reminder_count" json:"reminder_count"`

	// Relations
	Referee    *User       `gorm:"foreignKey:RefereeID" json:"referee,omitempty"`
	Submission *Submission `gorm:"foreignKey:SubmissionID" json:"submission,omitempty"`
}

func (RefereeInvitation) TableName() string {
	return "referee_invitations"
}

// NeedsAttention reports whether the invitation still counts toward the
// editor's open items: not cancelled, and either unanswered or accepted
// but without a submitted report.
func (inv *RefereeInvitation) NeedsAttention() bool {
	if inv.Cancelled {
		return false
	}
	if inv.Accepted == nil {
		return true
	}
	return *inv.Accepted && !inv.Fulfilled
}

// RefereeDisplay returns the registered referee's name when resolved,
// falling back to the stored contact name.
func (inv *RefereeInvitation) RefereeDisplay() string {
	if inv.Referee != nil {
		return inv.Referee.DisplayName()
	}
	if inv.ContactName != nil {
		return *inv.ContactName
	}
	return ""
}
