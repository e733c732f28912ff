package telemetry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"

	"github.com/nerrad567/gray-logic-detector/internal/netlink"
	"github.com/nerrad567/gray-logic-detector/internal/sensor"
	"github.com/nerrad567/gray-logic-detector/internal/state"
)

// Logger defines the logging interface used by the Collector.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ReadObserver receives the outcome of every sensor read.
type ReadObserver interface {
	ObserveSensorRead(sensor string, err error)
}

// ErrNoDriver is logged when an enabled slot has no driver configured.
var ErrNoDriver = errors.New("telemetry: no driver for sensor")

// Deps holds the collaborators of a Collector.
type Deps struct {
	// Directory is the slot catalogue. Required.
	Directory *sensor.Directory

	// Thermohygrometers maps DHT sensor names to drivers.
	Thermohygrometers map[string]sensor.Thermohygrometer

	// GasADC is the analog input shared by every gas slot.
	GasADC analog.PinADC

	// GasChannels optionally gives a gas sensor, by name, its own input.
	GasChannels map[string]analog.PinADC

	// Clock times the DHT settle delay. Defaults to the wall clock.
	Clock clock.Clock

	Logger   Logger
	Observer ReadObserver
}

// Collector builds telemetry reports from enabled slots.
//
// Collect is called from the main loop only; it is not safe for concurrent use
// because the underlying peripherals are not.
type Collector struct {
	dir      *sensor.Directory
	dht      map[string]sensor.Thermohygrometer
	gas      analog.PinADC
	gasByKey map[string]analog.PinADC
	clock    clock.Clock
	logger   Logger
	observer ReadObserver
}

// NewCollector creates a collector.
//
// Returns:
//   - *Collector: Ready collector
//   - error: If the directory is missing
func NewCollector(deps Deps) (*Collector, error) {
	if deps.Directory == nil {
		return nil, fmt.Errorf("sensor directory is required")
	}

	c := &Collector{
		dir:      deps.Directory,
		dht:      deps.Thermohygrometers,
		gas:      deps.GasADC,
		gasByKey: deps.GasChannels,
		clock:    deps.Clock,
		logger:   deps.Logger,
		observer: deps.Observer,
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	return c, nil
}

// Collect builds the report for the slots enabled in snap.
//
// Slots are visited in ascending index order and each enabled slot that
// produces readings contributes at most one. The reserved slot is visited
// and yields nothing; unused slots are never visited.
//
// Collect only fails when ctx ends during a settle delay. The readings
// gathered so far are returned with ctx.Err().
func (c *Collector) Collect(ctx context.Context, id netlink.Identity, snap state.Snapshot) (Report, error) {
	report := Report{MACAddress: id.MACAddress, Readings: []Reading{}}

	for _, slot := range c.dir.Slots() {
		if !slot.Iterated() || !snap.Enabled(slot.Index) {
			continue
		}

		switch slot.Kind {
		case sensor.KindDHT:
			if err := sleep(ctx, c.clock, slot.SettleDelay); err != nil {
				return report, err
			}
			report.Readings = append(report.Readings, c.readDHT(slot))

		case sensor.KindGas:
			if r, ok := c.readGas(slot); ok {
				report.Readings = append(report.Readings, r)
			}

		default:
			// Reserved slot: visited, no reading.
		}
	}

	return report, nil
}

// readDHT always returns a reading. Values of a failed read are NaN.
func (c *Collector) readDHT(slot sensor.Slot) Reading {
	drv, ok := c.dht[slot.Name]
	if !ok || drv == nil {
		c.observe(slot.Name, ErrNoDriver)
		c.logger.Warn("no driver for humidity sensor", "slot", slot.Index, "sensor", slot.Name)
		return NewDHTReading(slot.Name, math.NaN(), math.NaN())
	}

	var env physic.Env
	if err := drv.Sense(&env); err != nil {
		c.observe(slot.Name, err)
		c.logger.Warn("humidity sensor read failed", "slot", slot.Index, "sensor", slot.Name, "error", err)
		return NewDHTReading(slot.Name, math.NaN(), math.NaN())
	}

	c.observe(slot.Name, nil)
	return NewDHTReading(slot.Name, sensor.Celsius(env.Temperature), sensor.Percent(env.Humidity))
}

func (c *Collector) readGas(slot sensor.Slot) (Reading, bool) {
	adc := c.gas
	if ch, ok := c.gasByKey[slot.Name]; ok && ch != nil {
		adc = ch
	}
	if adc == nil {
		c.observe(slot.Name, ErrNoDriver)
		c.logger.Warn("no analog input for gas sensor", "slot", slot.Index, "sensor", slot.Name)
		return Reading{}, false
	}

	sample, err := adc.Read()
	if err != nil {
		c.observe(slot.Name, err)
		c.logger.Warn("gas sensor read failed", "slot", slot.Index, "sensor", slot.Name, "error", err)
		return Reading{}, false
	}

	c.observe(slot.Name, nil)
	return NewGasReading(slot.Name, int(sample.Raw)), true
}

func (c *Collector) observe(name string, err error) {
	if c.observer != nil {
		c.observer.ObserveSensorRead(name, err)
	}
}

// sleep blocks for d on clk or until ctx ends.
func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
