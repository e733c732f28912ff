package control

import "errors"

var (
	// ErrNoApplier is returned by New without a configuration target.
	ErrNoApplier = errors.New("control: applier is required")

	// ErrNotStarted is returned by HealthCheck before Start.
	ErrNotStarted = errors.New("control: server not started")
)
