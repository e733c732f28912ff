package sensor

import "errors"

// Domain errors for the sensor package.
var (
	// ErrSlotOutOfRange is returned when a slot index is outside [0, SlotCount).
	ErrSlotOutOfRange = errors.New("sensor: slot out of range")

	// ErrUnknownSensor is returned when configuration names a sensor the
	// directory does not have.
	ErrUnknownSensor = errors.New("sensor: unknown sensor name")

	// ErrReadFailed is returned when a peripheral cannot be read.
	ErrReadFailed = errors.New("sensor: read failed")
)
