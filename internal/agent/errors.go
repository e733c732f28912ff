package agent

import "errors"

var (
	// ErrConnectivityLost is recorded on cycles skipped because the link
	// was down. It is never escalated.
	ErrConnectivityLost = errors.New("agent: connectivity lost")

	// ErrNoIdentity is returned by Boot when the device identity cannot be
	// read once the link is up.
	ErrNoIdentity = errors.New("agent: device identity unavailable")

	// ErrMissingDependency is returned by New when a required collaborator
	// is nil.
	ErrMissingDependency = errors.New("agent: missing dependency")
)
