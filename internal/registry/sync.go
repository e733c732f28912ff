package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-detector/internal/netlink"
	"github.com/nerrad567/gray-logic-detector/internal/state"
)

// Logger defines the logging interface used by the Synchronizer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Outcome is the result of a boot-time handshake.
type Outcome int

// Handshake outcomes.
const (
	// OutcomeUnregistered means the device is unknown and registration failed.
	OutcomeUnregistered Outcome = iota

	// OutcomeSynchronized means the registry knew the device and its
	// configuration was applied.
	OutcomeSynchronized

	// OutcomeRegistered means the device was unknown and is now registered
	// with every sensor disabled.
	OutcomeRegistered
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSynchronized:
		return "synchronized"
	case OutcomeRegistered:
		return "registered"
	default:
		return "unregistered"
	}
}

// Registry is the subset of Client used by the Synchronizer.
type Registry interface {
	Lookup(ctx context.Context, mac string) ([]byte, error)
	Register(ctx context.Context, id netlink.Identity) ([]byte, error)
}

// Synchronizer runs the fetch-or-register handshake.
type Synchronizer struct {
	registry Registry
	store    *state.Store
	logger   Logger
}

// NewSynchronizer creates a synchronizer applying fetched configuration to store.
func NewSynchronizer(registry Registry, store *state.Store) *Synchronizer {
	return &Synchronizer{
		registry: registry,
		store:    store,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the synchronizer.
func (s *Synchronizer) SetLogger(logger Logger) {
	s.logger = logger
}

// Sync looks the device up by hardware address. A 200 response is applied
// to the store. Any other result, transport failures included, registers
// the device exactly once. Nothing is retried.
//
// The returned error is informational: the device keeps running whatever
// the outcome. Invalid slot entries in a fetched document are logged and
// do not change the outcome.
func (s *Synchronizer) Sync(ctx context.Context, id netlink.Identity) (Outcome, error) {
	body, err := s.registry.Lookup(ctx, id.MACAddress)
	if err == nil {
		return s.apply(body)
	}

	if errors.Is(err, ErrNotRegistered) {
		s.logger.Info("device not known to registry, registering", "mac", id.MACAddress)
	} else {
		s.logger.Warn("registry lookup failed, registering", "mac", id.MACAddress, "error", err)
	}

	resp, regErr := s.registry.Register(ctx, id)
	if regErr != nil {
		s.logger.Error("device registration failed",
			"mac", id.MACAddress,
			"ipv4", id.IPv4,
			"error", regErr,
		)
		return OutcomeUnregistered, fmt.Errorf("registering device: %w", regErr)
	}

	s.logger.Info("device registered",
		"mac", id.MACAddress,
		"ipv4", id.IPv4,
		"response", string(resp),
	)
	return OutcomeRegistered, nil
}

func (s *Synchronizer) apply(body []byte) (Outcome, error) {
	err := s.store.ApplyJSON(body)
	switch {
	case errors.Is(err, state.ErrMalformedConfiguration):
		s.logger.Error("registry returned malformed configuration", "error", err)
		return OutcomeSynchronized, fmt.Errorf("applying configuration: %w", err)
	case err != nil:
		s.logger.Warn("configuration contained invalid slots", "error", err)
	}

	snap := s.store.Snapshot()
	s.logger.Info("configuration synchronized", "enabled", snap.EnabledSlots())
	return OutcomeSynchronized, nil
}
