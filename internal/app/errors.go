package app

import (
	"errors"
	"fmt"
)

// Sentinel kinds for service errors.
var (
	// ErrNotFound is returned when the id names no record.
	ErrNotFound = errors.New("record not found")
	// ErrInternal is the generic outcome surfaced after retry exhaustion or
	// any unexpected failure. Detail goes to the log, never to the caller.
	ErrInternal = errors.New("an internal error occurred, please try again")
	// ErrRateLimited is returned when an observer exceeds the submit rate.
	ErrRateLimited = errors.New("too many submissions, slow down")
	// ErrAlreadySubmitted is returned when a submission token was already
	// accepted.
	ErrAlreadySubmitted = errors.New("submission already processed")
	// ErrUnknownObserver is returned when the acting observer id names no
	// account.
	ErrUnknownObserver = errors.New("unknown observer")
)

// DuplicateError reports a submission rejected by the within-organization
// duplicate rule.
type DuplicateError struct {
	TeamNumber  int
	MatchNumber int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("team %d already has data for match %d from your organization", e.TeamNumber, e.MatchNumber)
}

// AllianceFullError reports a submission or update rejected because the
// alliance side already holds the maximum number of teams for the match.
type AllianceFullError struct {
	Alliance    string
	MatchNumber int
}

func (e *AllianceFullError) Error() string {
	return fmt.Sprintf("%s alliance is already full for match %d", e.Alliance, e.MatchNumber)
}
