package services

import (
	"editorial-workflow-api/models"
	"time"
)

// CyclePolicy is the value object behind one refereeing cycle choice.
// Both the deadline-reset path and the required-actions engine consume
// these; nothing else hardwires cycle-specific numbers.
type CyclePolicy struct {
	Cycle              string
	MinimumReferees    int
	DaysForRefereeing  int
	AllowsSolicitation bool
}

// extendedWindowJournals lists journal keys whose Regular cycle runs on
// the long 56-day window instead of 28.
var extendedWindowJournals = map[string]bool{
	"lecture_notes": true,
	"monographs":    true,
}

const (
	regularRefereeingDays  = 28
	extendedRefereeingDays = 56
	shortRefereeingDays    = 14
	directRecDays          = 14
)

// PolicyFor resolves the policy for a chosen cycle. An empty cycle
// returns ErrCycleUnresolved: nothing downstream may compute with an
// ambiguous cycle.
func PolicyFor(cycle, targetJournal string) (CyclePolicy, error) {
	switch cycle {
	case models.CycleRegular:
		days := regularRefereeingDays
		if extendedWindowJournals[targetJournal] {
			days = extendedRefereeingDays
		}
		return CyclePolicy{
			Cycle:              models.CycleRegular,
			MinimumReferees:    3,
			DaysForRefereeing:  days,
			AllowsSolicitation: true,
		}, nil
	case models.CycleShort:
		return CyclePolicy{
			Cycle:              models.CycleShort,
			MinimumReferees:    1,
			DaysForRefereeing:  shortRefereeingDays,
			AllowsSolicitation: true,
		}, nil
	case models.CycleDirectRec:
		return CyclePolicy{
			Cycle:              models.CycleDirectRec,
			MinimumReferees:    0,
			DaysForRefereeing:  directRecDays,
			AllowsSolicitation: false,
		}, nil
	case "":
		return CyclePolicy{}, ErrCycleUnresolved
	}
	return CyclePolicy{}, ErrCycleUnresolved
}

// Deadline computes the reporting deadline starting from now.
func (p CyclePolicy) Deadline(now time.Time) time.Time {
	return now.AddDate(0, 0, p.DaysForRefereeing)
}
