package registry

import "errors"

// Sentinel errors for registry operations.
//
//	if errors.Is(err, registry.ErrNotRegistered) {
//	    // register the device
//	}
var (
	// ErrNotRegistered is returned when a lookup gets any status other than 200.
	ErrNotRegistered = errors.New("registry: device not registered")

	// ErrRegistrationRejected is returned when registration gets any status other than 201.
	ErrRegistrationRejected = errors.New("registry: registration rejected")

	// ErrTransport is returned when a request cannot be sent or its response
	// cannot be read (connection refused, timeout, reset).
	ErrTransport = errors.New("registry: transport failure")
)
