package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"editorial-workflow-api/models"
)

var assignTestNow = time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC)

func TestAcceptDeprecatesSiblingOffers(t *testing.T) {
	offerCols := []string{"assignment_id", "submission_id", "candidate_id", "deprecated"}
	subCols := []string{
		"submission_id", "thread_id", "title", "status",
		"submitted_by", "target_journal", "refereeing_cycle",
	}
	openOffer := []driver.Value{int64(3), int64(7), int64(42), false}
	unassignedSub := []driver.Value{int64(7), "t-1", "On the Shape of Things", models.StatusUnassigned, int64(11), "core_journal", models.CycleRegular}

	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `editorial_assignments` WHERE assignment_id = "),
			args:    []driver.Value{int64(3)},
			columns: offerCols,
			rows:    [][]driver.Value{openOffer},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `submissions` WHERE submission_id = .* AND deleted_at IS NULL.*FOR UPDATE"),
			args:    []driver.Value{int64(7)},
			columns: subCols,
			rows:    [][]driver.Value{unassignedSub},
		},
		{
			// reread under the lock: still open, so this acceptance wins
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `editorial_assignments` WHERE assignment_id = "),
			args:    []driver.Value{int64(3)},
			columns: offerCols,
			rows:    [][]driver.Value{openOffer},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `submissions` SET .status.="),
			args:    []driver.Value{models.StatusEICAssigned, assignTestNow, int64(7)},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `submission_status_history`"),
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `editorial_assignments` SET .accepted.="),
			args:    []driver.Value{true, assignTestNow, int64(3)},
		},
		{
			// sibling pending offers deprecate in the same transaction
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `editorial_assignments` SET .deprecated.=.* WHERE submission_id = .* AND assignment_id <> .* AND accepted IS NULL"),
			args:    []driver.Value{true, int64(7), int64(3)},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `submissions` SET .*editor_in_charge_id"),
			args: []driver.Value{
				int64(42), true, true,
				assignTestNow.AddDate(0, 0, 28), assignTestNow, int64(7),
			},
		},

		// the losing candidate answers next and finds the offer deprecated
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `editorial_assignments` WHERE assignment_id = "),
			args:    []driver.Value{int64(4)},
			columns: offerCols,
			rows:    [][]driver.Value{{int64(4), int64(7), int64(50), true}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `submissions` WHERE submission_id = .* AND deleted_at IS NULL.*FOR UPDATE"),
			args:    []driver.Value{int64(7)},
			columns: subCols,
			rows: [][]driver.Value{
				{int64(7), "t-1", "On the Shape of Things", models.StatusEICAssigned, int64(11), "core_journal", models.CycleRegular},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `editorial_assignments` WHERE assignment_id = "),
			args:    []driver.Value{int64(4)},
			columns: offerCols,
			rows:    [][]driver.Value{{int64(4), int64(7), int64(50), true}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewAssignmentService(db, &NotificationService{db: db})
	svc.now = func() time.Time { return assignTestNow }

	won, err := svc.Accept(3, 42)
	if err != nil {
		t.Fatalf("first acceptance failed: %v", err)
	}
	if won.Accepted == nil || !*won.Accepted {
		t.Errorf("winning offer not marked accepted: %+v", won)
	}

	if _, err := svc.Accept(4, 50); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("second acceptance: got %v want ErrAlreadyAnswered", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
	commits, rollbacks := state.txCounts()
	if commits != 1 || rollbacks != 1 {
		t.Errorf("got %d commits / %d rollbacks want 1 / 1", commits, rollbacks)
	}
}
