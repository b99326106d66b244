package services

import (
	"testing"
	"time"

	"editorial-workflow-api/models"
)

var actionsNow = time.Date(2026, time.April, 10, 9, 0, 0, 0, time.UTC)

func eicSubmission() *models.Submission {
	eic := 42
	deadline := actionsNow.AddDate(0, 0, 20)
	return &models.Submission{
		SubmissionID:      7,
		Status:            models.StatusEICAssigned,
		EditorInChargeID:  &eic,
		RefereeingCycle:   models.CycleRegular,
		TargetJournal:     "core_journal",
		ReportingDeadline: &deadline,
		OpenForReporting:  true,
	}
}

func invitationN(id int, invited time.Time, accepted *bool) models.RefereeInvitation {
	name := "Dr. Example"
	return models.RefereeInvitation{
		InvitationID: id,
		SubmissionID: 7,
		ContactName:  &name,
		DateInvited:  invited,
		Accepted:     accepted,
	}
}

func boolPtr(v bool) *bool { return &v }

func codes(actions []RequiredAction) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Code
	}
	return out
}

func TestRequiredActionsEmptyForTerminalOrUnassigned(t *testing.T) {
	sub := eicSubmission()
	sub.Status = models.StatusWithdrawn
	if got := RequiredActions(sub, nil, nil, nil, nil, actionsNow); len(got) != 0 {
		t.Errorf("terminal submission: got %v want none", codes(got))
	}

	sub = eicSubmission()
	sub.EditorInChargeID = nil
	sub.Status = models.StatusUnassigned
	if got := RequiredActions(sub, nil, nil, nil, nil, actionsNow); len(got) != 0 {
		t.Errorf("no editor in charge: got %v want none", codes(got))
	}
}

func TestRequiredActionsChooseCycleDominates(t *testing.T) {
	sub := eicSubmission()
	sub.RefereeingCycle = ""

	// rows that would otherwise produce actions of their own
	reports := []models.Report{{ReportID: 1, Status: models.ReportUnvetted}}
	comments := []models.Comment{{CommentID: 1, Status: models.CommentUnvetted}}
	invitations := []models.RefereeInvitation{
		invitationN(1, actionsNow.AddDate(0, 0, -10), nil),
	}

	got := RequiredActions(sub, nil, invitations, reports, comments, actionsNow)
	if len(got) != 1 || got[0].Code != ActionChooseCycle {
		t.Fatalf("got %v want exactly [%s]", codes(got), ActionChooseCycle)
	}
}

func TestRequiredActionsNeedMoreReferees(t *testing.T) {
	sub := eicSubmission()
	invitations := []models.RefereeInvitation{
		invitationN(1, actionsNow, nil),
		{InvitationID: 2, SubmissionID: 7, DateInvited: actionsNow, Cancelled: true},
	}

	got := RequiredActions(sub, nil, invitations, nil, nil, actionsNow)
	if len(got) != 1 || got[0].Code != ActionNeedMoreReferees {
		t.Fatalf("got %v want [%s]", codes(got), ActionNeedMoreReferees)
	}

	// direct_rec solicits no referees at all
	sub.RefereeingCycle = models.CycleDirectRec
	if got := RequiredActions(sub, nil, nil, nil, nil, actionsNow); len(got) != 0 {
		t.Errorf("direct_rec: got %v want none", codes(got))
	}
}

func TestRequiredActionsDeclinedInvitationNotCounted(t *testing.T) {
	sub := eicSubmission()

	// three invited, two accepted, one declined: a declined referee
	// will never report, so one more invitation is still needed
	invitations := []models.RefereeInvitation{
		invitationN(1, actionsNow, boolPtr(true)),
		invitationN(2, actionsNow, boolPtr(true)),
		invitationN(3, actionsNow, boolPtr(false)),
	}

	got := RequiredActions(sub, nil, invitations, nil, nil, actionsNow)
	if len(got) != 1 || got[0].Code != ActionNeedMoreReferees {
		t.Fatalf("got %v want [%s]", codes(got), ActionNeedMoreReferees)
	}

	// a replacement invitation, even unanswered, satisfies the minimum
	invitations = append(invitations, invitationN(4, actionsNow, nil))
	if got := RequiredActions(sub, nil, invitations, nil, nil, actionsNow); len(got) != 0 {
		t.Errorf("after re-invite: got %v want none", codes(got))
	}
}

func TestRequiredActionsInvitationNoResponseGrace(t *testing.T) {
	sub := eicSubmission()
	enough := []models.RefereeInvitation{
		invitationN(1, actionsNow.Add(-2*24*time.Hour), nil),
		invitationN(2, actionsNow.Add(-4*24*time.Hour), nil),
		invitationN(3, actionsNow.Add(-time.Hour), nil),
	}

	got := RequiredActions(sub, nil, enough, nil, nil, actionsNow)
	if len(got) != 1 {
		t.Fatalf("got %v want one action", codes(got))
	}
	if got[0].Code != ActionInvitationNoResponse || got[0].TargetID != 2 {
		t.Errorf("got %s/%d want %s/2", got[0].Code, got[0].TargetID, ActionInvitationNoResponse)
	}
}

func TestRequiredActionsDeadlinePressure(t *testing.T) {
	sub := eicSubmission()
	soon := actionsNow.AddDate(0, 0, 3)
	sub.ReportingDeadline = &soon

	invitations := []models.RefereeInvitation{
		invitationN(1, actionsNow.AddDate(0, 0, -14), boolPtr(true)),
		invitationN(2, actionsNow.AddDate(0, 0, -14), boolPtr(true)),
		invitationN(3, actionsNow.AddDate(0, 0, -14), boolPtr(true)),
	}
	invitations[1].Fulfilled = true

	got := RequiredActions(sub, nil, invitations, nil, nil, actionsNow)
	want := []string{ActionDeadlineApproaching, ActionDeadlineApproaching}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", codes(got), want)
	}
	for i, code := range want {
		if got[i].Code != code {
			t.Errorf("action %d: got %s want %s", i, got[i].Code, code)
		}
	}
	if got[0].TargetID != 1 || got[1].TargetID != 3 {
		t.Errorf("targets: got %d,%d want 1,3", got[0].TargetID, got[1].TargetID)
	}

	past := actionsNow.AddDate(0, 0, -1)
	sub.ReportingDeadline = &past
	got = RequiredActions(sub, nil, invitations, nil, nil, actionsNow)
	for _, a := range got {
		if a.Code == ActionDeadlineApproaching {
			t.Errorf("past deadline must yield %s, got %s", ActionInvitationOverdue, a.Code)
		}
	}
}

func TestRequiredActionsFormulateWhenDeadlinePassed(t *testing.T) {
	sub := eicSubmission()
	past := actionsNow.AddDate(0, 0, -2)
	sub.ReportingDeadline = &past
	sub.Status = models.StatusReviewClosed

	got := RequiredActions(sub, nil, nil, nil, nil, actionsNow)
	if len(got) == 0 || got[0].Code != ActionFormulateRec {
		t.Fatalf("got %v want %s first", codes(got), ActionFormulateRec)
	}

	// an active recommendation silences the prompt
	rec := &models.EICRecommendation{RecommendationID: 1, SubmissionID: 7, Active: true}
	got = RequiredActions(sub, rec, nil, nil, nil, actionsNow)
	for _, a := range got {
		if a.Code == ActionFormulateRec {
			t.Errorf("active recommendation present, still got %s", ActionFormulateRec)
		}
	}
}

func TestRequiredActionsDeterministicOrder(t *testing.T) {
	sub := eicSubmission()
	reports := []models.Report{
		{ReportID: 9, Status: models.ReportUnvetted},
		{ReportID: 3, Status: models.ReportUnvetted},
		{ReportID: 5, Status: models.ReportVetted},
	}
	comments := []models.Comment{
		{CommentID: 4, Status: models.CommentUnvetted},
		{CommentID: 2, Status: models.CommentUnvetted},
	}
	invitations := []models.RefereeInvitation{
		invitationN(3, actionsNow, boolPtr(true)),
		invitationN(1, actionsNow, boolPtr(true)),
		invitationN(2, actionsNow, boolPtr(true)),
	}

	first := RequiredActions(sub, nil, invitations, reports, comments, actionsNow)
	for i := 0; i < 10; i++ {
		again := RequiredActions(sub, nil, invitations, reports, comments, actionsNow)
		if len(again) != len(first) {
			t.Fatalf("run %d: got %d actions want %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: action %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}

	if first[0].Code != ActionVetReport || first[0].TargetID != 3 {
		t.Errorf("first action: got %s/%d want %s/3", first[0].Code, first[0].TargetID, ActionVetReport)
	}
	if first[1].Code != ActionVetReport || first[1].TargetID != 9 {
		t.Errorf("second action: got %s/%d want %s/9", first[1].Code, first[1].TargetID, ActionVetReport)
	}
	if first[2].Code != ActionVetComment || first[2].TargetID != 2 {
		t.Errorf("third action: got %s/%d want %s/2", first[2].Code, first[2].TargetID, ActionVetComment)
	}
}
