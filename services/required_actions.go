package services

import (
	"editorial-workflow-api/models"
	"fmt"
	"sort"
	"time"
)

// Required action codes.
const (
	ActionChooseCycle          = "choose_cycle"
	ActionFormulateRec         = "formulate_recommendation"
	ActionVetReport            = "vet_report"
	ActionVetComment           = "vet_comment"
	ActionNeedMoreReferees     = "need_more_referees"
	ActionInvitationNoResponse = "invitation_no_response"
	ActionDeadlineApproaching  = "invitation_deadline_approaching"
	ActionInvitationOverdue    = "invitation_overdue"
)

// RequiredAction is one outstanding task for the editor-in-charge.
// TargetType/TargetID give the calling layer a navigable reference.
type RequiredAction struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	TargetType string `json:"target_type,omitempty"` // invitation|report|comment
	TargetID   int    `json:"target_id,omitempty"`
}

const (
	invitationResponseGrace = 3 * 24 * time.Hour
	deadlineApproachWindow  = 7 * 24 * time.Hour
)

// RequiredActions derives the ordered task list for one submission from
// its sub-lifecycle state. It is a pure function: no side effects, and
// identical input always yields the identical ordered list. Reminder and
// notification dispatch live elsewhere.
func RequiredActions(
	sub *models.Submission,
	activeRec *models.EICRecommendation,
	invitations []models.RefereeInvitation,
	reports []models.Report,
	comments []models.Comment,
	now time.Time,
) []RequiredAction {
	actions := []RequiredAction{}

	if sub.IsTerminal() || sub.EditorInChargeID == nil {
		return actions
	}

	// An ambiguous cycle makes every other computation undefined.
	if sub.RefereeingCycle == "" {
		return append(actions, RequiredAction{
			Code:    ActionChooseCycle,
			Message: "Choose the refereeing cycle for this submission before any other action.",
		})
	}

	policy, err := PolicyFor(sub.RefereeingCycle, sub.TargetJournal)
	if err != nil {
		// unreachable once the cycle is set; keep the engine error-free
		return actions
	}

	if recommendationOverdue(sub, activeRec, now) {
		actions = append(actions, RequiredAction{
			Code:    ActionFormulateRec,
			Message: "The reporting deadline has passed: formulate an editorial recommendation or extend the deadline.",
		})
	}

	for _, r := range sortedReports(reports) {
		if r.AwaitingVetting() {
			actions = append(actions, RequiredAction{
				Code:       ActionVetReport,
				Message:    fmt.Sprintf("Vet the report submitted by %s.", reportAuthorName(&r)),
				TargetType: "report",
				TargetID:   r.ReportID,
			})
		}
	}
	for _, cm := range sortedComments(comments) {
		if cm.AwaitingVetting() {
			actions = append(actions, RequiredAction{
				Code:       ActionVetComment,
				Message:    "Vet the comment awaiting moderation.",
				TargetType: "comment",
				TargetID:   cm.CommentID,
			})
		}
	}

	if policy.AllowsSolicitation && sub.InRefereeingPhase() {
		open := 0
		for _, inv := range invitations {
			if inv.Cancelled {
				continue
			}
			// A declined invitation can never produce a report.
			if inv.Accepted != nil && !*inv.Accepted {
				continue
			}
			open++
		}
		if open < policy.MinimumReferees {
			actions = append(actions, RequiredAction{
				Code: ActionNeedMoreReferees,
				Message: fmt.Sprintf("Only %d referee(s) invited; the %s cycle requires at least %d.",
					open, policy.Cycle, policy.MinimumReferees),
			})
		}
	}

	for _, inv := range sortedInvitations(invitations) {
		if !inv.NeedsAttention() {
			continue
		}
		switch {
		case inv.Accepted == nil:
			if now.Sub(inv.DateInvited) > invitationResponseGrace {
				actions = append(actions, RequiredAction{
					Code:       ActionInvitationNoResponse,
					Message:    fmt.Sprintf("%s has not responded to the refereeing invitation; send a reminder or cancel.", invDisplay(&inv)),
					TargetType: "invitation",
					TargetID:   inv.InvitationID,
				})
			}
		case *inv.Accepted && !inv.Fulfilled && sub.ReportingDeadline != nil:
			deadline := *sub.ReportingDeadline
			if now.After(deadline) {
				actions = append(actions, RequiredAction{
					Code:       ActionInvitationOverdue,
					Message:    fmt.Sprintf("The report from %s is overdue.", invDisplay(&inv)),
					TargetType: "invitation",
					TargetID:   inv.InvitationID,
				})
			} else if deadline.Sub(now) <= deadlineApproachWindow {
				actions = append(actions, RequiredAction{
					Code:       ActionDeadlineApproaching,
					Message:    fmt.Sprintf("The reporting deadline for %s is approaching.", invDisplay(&inv)),
					TargetType: "invitation",
					TargetID:   inv.InvitationID,
				})
			}
		}
	}

	return actions
}

func recommendationOverdue(sub *models.Submission, activeRec *models.EICRecommendation, now time.Time) bool {
	if activeRec != nil {
		return false
	}
	if sub.Status != models.StatusEICAssigned && sub.Status != models.StatusReviewClosed {
		return false
	}
	return sub.ReportingDeadline != nil && now.After(*sub.ReportingDeadline)
}

func reportAuthorName(r *models.Report) string {
	if r.Author != nil {
		return r.Author.DisplayName()
	}
	return fmt.Sprintf("referee #%d", r.AuthorID)
}

func invDisplay(inv *models.RefereeInvitation) string {
	if name := inv.RefereeDisplay(); name != "" {
		return name
	}
	return fmt.Sprintf("invitee #%d", inv.InvitationID)
}

func sortedInvitations(in []models.RefereeInvitation) []models.RefereeInvitation {
	out := make([]models.RefereeInvitation, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].InvitationID < out[j].InvitationID })
	return out
}

func sortedReports(in []models.Report) []models.Report {
	out := make([]models.Report, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].ReportID < out[j].ReportID })
	return out
}

func sortedComments(in []models.Comment) []models.Comment {
	out := make([]models.Comment, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i].CommentID < out[j].CommentID })
	return out
}
