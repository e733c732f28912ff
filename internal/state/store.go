package state

import (
	"errors"
	"sync"

	"github.com/nerrad567/gray-logic-detector/internal/sensor"
)

// Store holds the enabled flag of every slot.
type Store struct {
	mu      sync.RWMutex
	enabled [sensor.SlotCount]bool
}

// NewStore returns a store with every slot disabled.
func NewStore() *Store {
	return &Store{}
}

// Initialize disables every slot.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = [sensor.SlotCount]bool{}
}

// Apply writes each entry of doc in order.
//
// Entries whose sensor id falls outside [1, SlotCount] are skipped and
// reported as *InvalidSlotError values joined into the returned error; the
// remaining entries still take effect. Applying the same document twice
// leaves the store as applying it once.
func (s *Store) Apply(doc Document) error {
	var errs []error

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range doc.SensorSet {
		if e.SensorID < 1 || e.SensorID > maxSensorID {
			errs = append(errs, &InvalidSlotError{SensorID: e.SensorID})
			continue
		}
		s.enabled[e.SensorID-1] = e.ToEnable
	}

	return errors.Join(errs...)
}

// ApplyJSON parses body and applies it.
//
// A malformed body returns ErrMalformedConfiguration and mutates nothing.
// Otherwise the error, if any, only carries InvalidSlotError entries.
func (s *Store) ApplyJSON(body []byte) error {
	doc, err := ParseDocument(body)
	if err != nil {
		return err
	}
	return s.Apply(doc)
}

// IsAnyEnabled reports whether at least one slot is enabled.
func (s *Store) IsAnyEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, on := range s.enabled {
		if on {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current set. Later changes to the store do
// not affect it.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{enabled: s.enabled}
}

// Snapshot is an immutable copy of the enabled set.
type Snapshot struct {
	enabled [sensor.SlotCount]bool
}

// NewSnapshot builds a snapshot with the given slot indices enabled.
// Out-of-range indices are ignored.
func NewSnapshot(indices ...int) Snapshot {
	var snap Snapshot
	for _, i := range indices {
		if i >= 0 && i < sensor.SlotCount {
			snap.enabled[i] = true
		}
	}
	return snap
}

// Enabled reports whether slot index is enabled. Out-of-range is false.
func (s Snapshot) Enabled(index int) bool {
	if index < 0 || index >= sensor.SlotCount {
		return false
	}
	return s.enabled[index]
}

// EnabledSlots returns the enabled slot indices in ascending order.
func (s Snapshot) EnabledSlots() []int {
	var out []int
	for i, on := range s.enabled {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// Count returns the number of enabled slots.
func (s Snapshot) Count() int {
	n := 0
	for _, on := range s.enabled {
		if on {
			n++
		}
	}
	return n
}

// Bits returns the set as a fixed array, index i being slot i.
func (s Snapshot) Bits() [sensor.SlotCount]bool {
	return s.enabled
}
