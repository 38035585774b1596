package record

import "errors"

var (
	// ErrInvalidTeamNumber is returned when a team number is not a positive integer.
	ErrInvalidTeamNumber = errors.New("invalid team number")
	// ErrInvalidMatchNumber is returned when a match number is not a positive integer.
	ErrInvalidMatchNumber = errors.New("invalid match number")
	// ErrMissingEventCode is returned when an event code is empty.
	ErrMissingEventCode = errors.New("missing event code")
	// ErrInvalidAlliance is returned when an alliance value is neither red nor blue.
	ErrInvalidAlliance = errors.New("invalid alliance")
)
