package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"editorial-workflow-api/models"
)

var subTestNow = time.Date(2026, time.July, 14, 11, 0, 0, 0, time.UTC)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{models.StatusUnassigned, models.StatusEICAssigned},
		{models.StatusUnassigned, models.StatusAssignmentFailed},
		{models.StatusResubmissionIncoming, models.StatusEICAssigned},
		{models.StatusEICAssigned, models.StatusReviewClosed},
		{models.StatusEICAssigned, models.StatusVotingInPreparation},
		{models.StatusReviewClosed, models.StatusEICAssigned},
		{models.StatusVotingInPreparation, models.StatusPutToVoting},
		{models.StatusPutToVoting, models.StatusAccepted},
		{models.StatusPutToVoting, models.StatusRejected},
		{models.StatusPutToVoting, models.StatusReviewClosed},
		{models.StatusAccepted, models.StatusPublished},
		{models.StatusResubmitted, models.StatusResubmittedRejected},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to string }{
		{models.StatusUnassigned, models.StatusPutToVoting},
		{models.StatusUnassigned, models.StatusAccepted},
		{models.StatusEICAssigned, models.StatusAccepted},
		{models.StatusVotingInPreparation, models.StatusAccepted},
		{models.StatusAccepted, models.StatusRejected},
		{models.StatusRejected, models.StatusEICAssigned},
	}
	for _, tc := range forbidden {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s must not be allowed", tc.from, tc.to)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	terminals := []string{
		models.StatusPublished,
		models.StatusWithdrawn,
		models.StatusRejected,
		models.StatusRejectedVisible,
		models.StatusResubmittedRejected,
		models.StatusResubmittedRejectedVisible,
		models.StatusAssignmentFailed,
	}
	everyStatus := []string{
		models.StatusUnassigned, models.StatusResubmissionIncoming,
		models.StatusEICAssigned, models.StatusReviewClosed,
		models.StatusVotingInPreparation, models.StatusPutToVoting,
		models.StatusAccepted, models.StatusRejected,
		models.StatusResubmitted, models.StatusPublished,
		models.StatusWithdrawn, models.StatusAssignmentFailed,
	}

	for _, from := range terminals {
		sub := models.Submission{Status: from}
		if !sub.IsTerminal() {
			t.Errorf("%s must report IsTerminal", from)
		}
		for _, to := range everyStatus {
			if CanTransition(from, to) {
				t.Errorf("terminal %s has exit to %s", from, to)
			}
		}
	}

	// non-terminal statuses must each have at least one exit
	for from := range validTransitions {
		sub := models.Submission{Status: from}
		if sub.IsTerminal() {
			t.Errorf("%s has outgoing edges but reports IsTerminal", from)
		}
		if len(validTransitions[from]) == 0 {
			t.Errorf("%s listed with no exits; drop it from the map instead", from)
		}
	}
}

func TestInvalidTransitionErrorIs(t *testing.T) {
	err := &InvalidTransitionError{SubmissionID: 5, From: models.StatusPublished, To: models.StatusEICAssigned}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Error("InvalidTransitionError must match ErrInvalidTransition")
	}
	if errors.Is(err, ErrAlreadyFixed) {
		t.Error("InvalidTransitionError must not match unrelated sentinels")
	}
}

func TestPoolFiltersByStatus(t *testing.T) {
	cols := []string{"submission_id", "thread_id", "version_number", "title", "status", "submitted_by", "visible_pool"}
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `submissions` WHERE deleted_at IS NULL AND visible_pool = .* AND status = .* ORDER BY submitted_at DESC"),
			args:    []driver.Value{true, models.StatusUnassigned},
			columns: cols,
			rows: [][]driver.Value{
				{int64(1), "t-1", int64(1), "On the Shape of Things", models.StatusUnassigned, int64(11), true},
			},
		},
		{
			// SubmittedByUser preload; EditorInCharge is nil and loads nothing
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `users` WHERE "),
			args:    []driver.Value{int64(11)},
			columns: []string{"user_id", "user_fname", "user_lname", "email", "role_id"},
			rows: [][]driver.Value{
				{int64(11), "Ada", "Author", "ada@example.org", int64(1)},
			},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(db, &NotificationService{db: db})
	subs, err := svc.Pool(models.StatusUnassigned)
	if err != nil {
		t.Fatalf("pool failed: %v", err)
	}
	if len(subs) != 1 || subs[0].SubmissionID != 1 {
		t.Fatalf("unexpected result: %+v", subs)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
}

func TestWithdrawRequiresOwnership(t *testing.T) {
	subCols := []string{"submission_id", "thread_id", "title", "status", "submitted_by"}
	lockStep := func() *queryStep {
		return &queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `submissions` WHERE submission_id = .* AND deleted_at IS NULL.*FOR UPDATE"),
			args:    []driver.Value{int64(7)},
			columns: subCols,
			rows: [][]driver.Value{
				{int64(7), "t-1", "On the Shape of Things", models.StatusEICAssigned, int64(11)},
			},
		}
	}

	steps := []*queryStep{
		// another author: denied before any write
		lockStep(),

		// the submitting author: full retirement
		lockStep(),
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `submissions` SET .status.="),
			args:    []driver.Value{models.StatusWithdrawn, subTestNow, int64(7)},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `submission_status_history`"),
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `editorial_assignments` SET .deprecated.="),
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `referee_invitations` SET .cancelled.="),
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `eic_recommendations` SET .active.="),
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(db, &NotificationService{db: db})
	svc.now = func() time.Time { return subTestNow }

	if _, err := svc.Withdraw(7, 99, false, "changed my mind"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger withdraw: got %v want ErrPermissionDenied", err)
	}

	sub, err := svc.Withdraw(7, 11, false, "changed my mind")
	if err != nil {
		t.Fatalf("owner withdraw failed: %v", err)
	}
	if sub.Status != models.StatusWithdrawn {
		t.Errorf("got status %q want %q", sub.Status, models.StatusWithdrawn)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
	commits, rollbacks := state.txCounts()
	if commits != 1 || rollbacks != 1 {
		t.Errorf("got %d commits / %d rollbacks want 1 / 1", commits, rollbacks)
	}
}

func TestResubmissionRequiresThreadOwnership(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `submissions` WHERE submission_id = .* AND deleted_at IS NULL.*FOR UPDATE"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "thread_id", "title", "status", "submitted_by", "is_current"},
			rows: [][]driver.Value{
				{int64(7), "t-1", "On the Shape of Things", models.StatusReviewClosed, int64(11), true},
			},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSubmissionService(db, &NotificationService{db: db})
	svc.now = func() time.Time { return subTestNow }

	_, err := svc.CreateResubmission(7, false, &CreateSubmissionInput{
		Title:       "On the Shape of Things, revised",
		AuthorList:  "A. Author",
		SubmittedBy: 99,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stranger resubmission: got %v want ErrPermissionDenied", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
	if _, rollbacks := state.txCounts(); rollbacks != 1 {
		t.Errorf("got %d rollbacks want 1", rollbacks)
	}
}
