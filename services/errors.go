package services

import (
	"errors"
	"fmt"
)

// Domain errors. Services return these (possibly wrapped); controllers
// translate them to HTTP statuses. Nothing here is retried or swallowed.
var (
	ErrCycleUnresolved    = errors.New("refereeing cycle has not been chosen")
	ErrDuplicateVote      = errors.New("vote already recorded in that set")
	ErrIneligibleVoter    = errors.New("voter is not in the eligible-to-vote set")
	ErrInsufficientQuorum = errors.New("not enough votes recorded to fix the decision")
	ErrAlreadyFixed       = errors.New("recommendation has already been fixed")
	ErrConflictOfInterest = errors.New("fellow has a declared conflict with the submission authors")
	ErrPermissionDenied   = errors.New("actor is not allowed to perform this operation")
	ErrAlreadyAnswered    = errors.New("offer has already been answered")
	ErrInvitationClosed   = errors.New("invitation is cancelled or already fulfilled")
	ErrReportImmutable    = errors.New("report can no longer be modified")
)

// InvalidTransitionError reports an attempted submission status change
// that violates the state machine. It carries enough context for the
// calling layer to render an actionable message.
type InvalidTransitionError struct {
	SubmissionID int
	From         string
	To           string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for submission %d: %s -> %s",
		e.SubmissionID, e.From, e.To)
}

// ErrInvalidTransition matches any InvalidTransitionError via errors.Is.
var ErrInvalidTransition = errors.New("invalid status transition")

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
