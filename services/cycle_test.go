package services

import (
	"errors"
	"testing"
	"time"

	"editorial-workflow-api/models"
)

func TestPolicyFor(t *testing.T) {
	cases := []struct {
		name          string
		cycle         string
		targetJournal string
		minReferees   int
		days          int
		solicits      bool
	}{
		{"regular default window", models.CycleRegular, "core_journal", 3, 28, true},
		{"regular extended for lecture notes", models.CycleRegular, "lecture_notes", 3, 56, true},
		{"regular extended for monographs", models.CycleRegular, "monographs", 3, 56, true},
		{"short", models.CycleShort, "core_journal", 1, 14, true},
		{"short ignores journal window", models.CycleShort, "lecture_notes", 1, 14, true},
		{"direct recommendation", models.CycleDirectRec, "core_journal", 0, 14, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			policy, err := PolicyFor(tc.cycle, tc.targetJournal)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if policy.MinimumReferees != tc.minReferees {
				t.Errorf("minimum referees: got %d want %d", policy.MinimumReferees, tc.minReferees)
			}
			if policy.DaysForRefereeing != tc.days {
				t.Errorf("refereeing days: got %d want %d", policy.DaysForRefereeing, tc.days)
			}
			if policy.AllowsSolicitation != tc.solicits {
				t.Errorf("allows solicitation: got %v want %v", policy.AllowsSolicitation, tc.solicits)
			}
		})
	}
}

func TestPolicyForUnresolvedCycle(t *testing.T) {
	for _, cycle := range []string{"", "express", "REGULAR"} {
		if _, err := PolicyFor(cycle, "core_journal"); !errors.Is(err, ErrCycleUnresolved) {
			t.Errorf("cycle %q: got %v want ErrCycleUnresolved", cycle, err)
		}
	}
}

func TestCyclePolicyDeadline(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	policy, err := PolicyFor(models.CycleShort, "core_journal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, time.March, 16, 10, 0, 0, 0, time.UTC)
	if got := policy.Deadline(now); !got.Equal(want) {
		t.Errorf("deadline: got %v want %v", got, want)
	}
}
