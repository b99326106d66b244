package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"editorial-workflow-api/models"
)

var recTestNow = time.Date(2026, time.May, 20, 10, 0, 0, 0, time.UTC)

var recTestSubCols = []string{
	"submission_id", "thread_id", "title", "status",
	"submitted_by", "target_journal", "refereeing_cycle", "editor_in_charge_id",
}

var recTestRecCols = []string{
	"recommendation_id", "submission_id", "formulated_by",
	"recommendation", "status", "version", "active",
}

// lockRecommendationSteps scripts the load-lock-reread sequence every
// recommendation mutation starts with.
func lockRecommendationSteps(recStatus, subStatus string) []*queryStep {
	recRow := []driver.Value{int64(5), int64(7), int64(42), models.RecPublishTier2, recStatus, int64(1), true}
	subRow := []driver.Value{int64(7), "t-1", "On the Shape of Things", subStatus, int64(11), "core_journal", models.CycleRegular, int64(42)}
	return []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `eic_recommendations` WHERE recommendation_id = "),
			args:    []driver.Value{int64(5)},
			columns: recTestRecCols,
			rows:    [][]driver.Value{recRow},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `submissions` WHERE submission_id = .* AND deleted_at IS NULL.*FOR UPDATE"),
			args:    []driver.Value{int64(7)},
			columns: recTestSubCols,
			rows:    [][]driver.Value{subRow},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `eic_recommendations` WHERE recommendation_id = "),
			args:    []driver.Value{int64(5)},
			columns: recTestRecCols,
			rows:    [][]driver.Value{recRow},
		},
	}
}

func TestVoteTallyQuorum(t *testing.T) {
	cases := []struct {
		name  string
		tally VoteTally
		met   bool
	}{
		{"no voters no votes", VoteTally{}, true},
		{"half rounded up, odd eligible", VoteTally{Eligible: 5, For: 2}, false},
		{"exactly quorum, odd eligible", VoteTally{Eligible: 5, For: 2, Abstain: 1}, true},
		{"exactly quorum, even eligible", VoteTally{Eligible: 6, For: 3}, true},
		{"one short, even eligible", VoteTally{Eligible: 6, For: 1, Against: 1}, false},
		{"abstentions count as cast", VoteTally{Eligible: 4, Abstain: 2}, true},
		{"all voted", VoteTally{Eligible: 3, For: 1, Against: 1, Abstain: 1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tally.quorumMet(); got != tc.met {
				t.Errorf("quorumMet() = %v want %v (cast=%d eligible=%d)",
					got, tc.met, tc.tally.votesCast(), tc.tally.Eligible)
			}
		})
	}
}

func TestRecommendationDisposition(t *testing.T) {
	for _, value := range []string{models.RecPublishTier1, models.RecPublishTier2, models.RecPublishTier3} {
		rec := models.EICRecommendation{Recommendation: value}
		if !rec.ForPublication() || rec.ForRevision() {
			t.Errorf("%s must read as publication", value)
		}
	}
	for _, value := range []string{models.RecMinorRevision, models.RecMajorRevision} {
		rec := models.EICRecommendation{Recommendation: value}
		if !rec.ForRevision() || rec.ForPublication() {
			t.Errorf("%s must read as revision", value)
		}
	}
	rec := models.EICRecommendation{Recommendation: models.RecReject}
	if rec.ForPublication() || rec.ForRevision() {
		t.Error("reject is neither publication nor revision")
	}
}

func TestFormulateSupersedesActiveRecommendation(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `submissions` WHERE submission_id = .* AND deleted_at IS NULL.*FOR UPDATE"),
			args:    []driver.Value{int64(7)},
			columns: recTestSubCols,
			rows: [][]driver.Value{
				{int64(7), "t-1", "On the Shape of Things", models.StatusVotingInPreparation, int64(11), "core_journal", models.CycleRegular, int64(42)},
			},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `eic_recommendations` WHERE submission_id = .* AND active = "),
			args:    []driver.Value{int64(7), true},
			columns: recTestRecCols,
			rows: [][]driver.Value{
				{int64(5), int64(7), int64(42), models.RecMinorRevision, models.RecStatusVotingInPreparation, int64(1), true},
			},
		},
		{
			// the prior version deprecates in the same transaction
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `eic_recommendations` SET .active.=.*.status.="),
			args:    []driver.Value{false, models.RecStatusDeprecated, int64(5)},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `submissions` SET .*open_for_reporting"),
			args:    []driver.Value{false, recTestNow, int64(7)},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `eic_recommendations`"),
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewRecommendationService(db, &NotificationService{db: db})
	svc.now = func() time.Time { return recTestNow }

	rec, err := svc.Formulate(7, 42, models.RecPublishTier2, "referees concur")
	if err != nil {
		t.Fatalf("reformulation failed: %v", err)
	}
	if rec.Version != 2 || !rec.Active {
		t.Errorf("got version=%d active=%v want version=2 active=true", rec.Version, rec.Active)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
	if commits, _ := state.txCounts(); commits != 1 {
		t.Errorf("got %d commits want 1", commits)
	}
}

func TestCastVoteMovesBetweenSets(t *testing.T) {
	eligibleStep := func() *queryStep {
		return &queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count.* FROM `recommendation_eligible_voters` WHERE recommendation_id = .* AND fellow_id = "),
			args:    []driver.Value{int64(5), int64(9)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		}
	}
	voteLookup := func(rows [][]driver.Value) *queryStep {
		return &queryStep{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `recommendation_votes` WHERE recommendation_id = .* AND fellow_id = "),
			args:    []driver.Value{int64(5), int64(9)},
			columns: []string{"recommendation_id", "fellow_id", "vote", "cast_at", "updated_at"},
			rows:    rows,
		}
	}

	var steps []*queryStep

	// first cast: no row yet, one insert
	steps = append(steps, lockRecommendationSteps(models.RecStatusPutToVoting, models.StatusPutToVoting)...)
	steps = append(steps, eligibleStep(), voteLookup(nil), &queryStep{
		kind:    kindExec,
		pattern: regexp.MustCompile("INSERT INTO `recommendation_votes`"),
	})

	// switch: the existing row updates in place, no second row
	steps = append(steps, lockRecommendationSteps(models.RecStatusPutToVoting, models.StatusPutToVoting)...)
	steps = append(steps, eligibleStep(), voteLookup([][]driver.Value{
		{int64(5), int64(9), models.VoteFor, recTestNow, recTestNow},
	}), &queryStep{
		kind:    kindExec,
		pattern: regexp.MustCompile("UPDATE `recommendation_votes` SET "),
		args:    []driver.Value{recTestNow, models.VoteAgainst, int64(5), int64(9)},
	})

	// re-casting the same choice writes nothing
	steps = append(steps, lockRecommendationSteps(models.RecStatusPutToVoting, models.StatusPutToVoting)...)
	steps = append(steps, eligibleStep(), voteLookup([][]driver.Value{
		{int64(5), int64(9), models.VoteAgainst, recTestNow, recTestNow},
	}))

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewRecommendationService(db, &NotificationService{db: db})
	svc.now = func() time.Time { return recTestNow }

	first, err := svc.CastVote(5, 9, models.VoteFor, nil)
	if err != nil {
		t.Fatalf("first cast failed: %v", err)
	}
	if first.Vote != models.VoteFor {
		t.Errorf("first cast recorded %q want %q", first.Vote, models.VoteFor)
	}

	switched, err := svc.CastVote(5, 9, models.VoteAgainst, nil)
	if err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if switched.Vote != models.VoteAgainst {
		t.Errorf("switch recorded %q want %q", switched.Vote, models.VoteAgainst)
	}

	if _, err := svc.CastVote(5, 9, models.VoteAgainst, nil); !errors.Is(err, ErrDuplicateVote) {
		t.Fatalf("duplicate cast: got %v want ErrDuplicateVote", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unexpected remaining steps: %v", err)
	}
	commits, rollbacks := state.txCounts()
	if commits != 2 || rollbacks != 1 {
		t.Errorf("got %d commits / %d rollbacks want 2 / 1", commits, rollbacks)
	}
}

func TestThreadRejectionPropagation(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM `submissions` WHERE thread_id = .* AND submission_id <> .* AND deleted_at IS NULL"),
			args:    []driver.Value{"t-1", int64(9)},
			columns: []string{"submission_id", "thread_id", "status", "submitted_by"},
			rows: [][]driver.Value{
				{int64(4), "t-1", models.StatusResubmitted, int64(11)},
				{int64(2), "t-1", models.StatusWithdrawn, int64(11)},
			},
		},
		{
			// only the resubmitted predecessor moves
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `submissions` SET .status.="),
			args:    []driver.Value{models.StatusResubmittedRejected, recTestNow, int64(4)},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `submission_status_history`"),
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewRecommendationService(db, &NotificationService{db: db})
	current := &models.Submission{SubmissionID: 9, ThreadID: "t-1", Status: models.StatusRejected}
	if err := svc.propagateThreadRejection(db, current, 3, recTestNow); err != nil {
		t.Fatalf("propagation failed: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("withdrawn sibling must stay untouched: %v", err)
	}
}
