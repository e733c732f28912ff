package state

import (
	"errors"
	"fmt"
)

// Domain errors for the state package.
var (
	// ErrMalformedConfiguration is returned when a body is not a
	// configuration document. Nothing is applied.
	ErrMalformedConfiguration = errors.New("state: malformed configuration")

	// ErrInvalidSlot is matched by every InvalidSlotError.
	ErrInvalidSlot = errors.New("state: invalid slot")
)

// InvalidSlotError reports a document entry whose sensor id has no slot.
// The entry is skipped; the rest of the batch is still applied.
type InvalidSlotError struct {
	SensorID int
}

func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("state: invalid slot: sensorId %d outside [1,%d]", e.SensorID, maxSensorID)
}

// Is lets errors.Is(err, ErrInvalidSlot) match.
func (e *InvalidSlotError) Is(target error) bool {
	return target == ErrInvalidSlot
}
