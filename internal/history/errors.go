package history

import "errors"

var (
	// ErrMissingCycleID is returned by Record for entries without a cycle id.
	ErrMissingCycleID = errors.New("history: cycle id is required")

	// ErrInvalidRetention is returned by Prune for non-positive durations.
	ErrInvalidRetention = errors.New("history: retention must be positive")
)
