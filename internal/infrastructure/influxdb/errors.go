package influxdb

import "errors"

// The mirror is best-effort: callers log these and carry on, the registry
// upload does not depend on them.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: mirror disabled")

	// ErrConnectionFailed wraps the ping or health failure seen by Connect.
	ErrConnectionFailed = errors.New("influxdb: mirror unreachable")

	// ErrNotConnected is returned once the client has been closed.
	ErrNotConnected = errors.New("influxdb: mirror closed")

	// ErrWriteFailed wraps the server error for a rejected reading batch.
	ErrWriteFailed = errors.New("influxdb: reading batch rejected")
)
