package sensor

import (
	"fmt"
	"time"
)

// SlotCount is the fixed number of positional slots on a detector.
const SlotCount = 8

// Kind is the class of sensor bound to a slot.
type Kind int

// Slot kinds.
const (
	// KindUnused slots are never iterated during collection.
	KindUnused Kind = iota

	// KindDHT is a humidity/temperature sensor (DHT-11, DHT-22).
	KindDHT

	// KindGas is an MQ-series gas-concentration sensor read through an ADC.
	KindGas

	// KindReserved slots are iterated but never produce a reading.
	KindReserved
)

// Tag returns the wire type tag used in telemetry reports.
func (k Kind) Tag() string {
	switch k {
	case KindDHT:
		return "DHT"
	case KindGas:
		return "MQ"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindDHT:
		return "dht"
	case KindGas:
		return "gas"
	case KindReserved:
		return "reserved"
	default:
		return "unused"
	}
}

// Minimum sampling periods for the supported DHT models.
const (
	DHT11SamplingPeriod = 1 * time.Second
	DHT22SamplingPeriod = 2 * time.Second
)

// Slot is the static binding of one slot index to a sensor.
type Slot struct {
	Index int
	Kind  Kind
	Name  string

	// SettleDelay is the blocking wait before a read. Only DHT slots use it.
	SettleDelay time.Duration
}

// Iterated reports whether collection visits this slot at all.
func (s Slot) Iterated() bool {
	return s.Kind != KindUnused
}

// Produces reports whether a visit to this slot yields a reading.
func (s Slot) Produces() bool {
	return s.Kind == KindDHT || s.Kind == KindGas
}

// Directory is the immutable slot catalogue.
type Directory struct {
	slots [SlotCount]Slot
}

// DefaultDirectory returns the catalogue of the reference detector build.
func DefaultDirectory() *Directory {
	return &Directory{slots: [SlotCount]Slot{
		{Index: 0, Kind: KindDHT, Name: "DHT-11", SettleDelay: DHT11SamplingPeriod},
		{Index: 1, Kind: KindDHT, Name: "DHT-22", SettleDelay: DHT22SamplingPeriod},
		{Index: 2, Kind: KindGas, Name: "MQ-2"},
		{Index: 3, Kind: KindGas, Name: "MQ-5"},
		{Index: 4, Kind: KindGas, Name: "MQ-7"},
		{Index: 5, Kind: KindGas, Name: "MQ-135"},
		{Index: 6, Kind: KindReserved},
		{Index: 7, Kind: KindUnused},
	}}
}

// WithSettleDelay returns a copy of the directory with the settle delay of
// the named DHT slot replaced. Non-positive delays and unknown names leave
// the directory unchanged.
func (d *Directory) WithSettleDelay(name string, delay time.Duration) *Directory {
	out := &Directory{slots: d.slots}
	if delay <= 0 {
		return out
	}
	for i := range out.slots {
		if out.slots[i].Kind == KindDHT && out.slots[i].Name == name {
			out.slots[i].SettleDelay = delay
		}
	}
	return out
}

// Lookup returns the slot bound to index.
func (d *Directory) Lookup(index int) (Slot, error) {
	if index < 0 || index >= SlotCount {
		return Slot{}, fmt.Errorf("%w: %d", ErrSlotOutOfRange, index)
	}
	return d.slots[index], nil
}

// Slots returns all slots in ascending index order.
func (d *Directory) Slots() []Slot {
	out := make([]Slot, SlotCount)
	copy(out, d.slots[:])
	return out
}

// Names returns the display names of every slot of the given kind, in slot order.
func (d *Directory) Names(kind Kind) []string {
	var names []string
	for _, s := range d.slots {
		if s.Kind == kind {
			names = append(names, s.Name)
		}
	}
	return names
}
