package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-detector/internal/dispatch"
	"github.com/nerrad567/gray-logic-detector/internal/metrics"
	"github.com/nerrad567/gray-logic-detector/internal/netlink"
	"github.com/nerrad567/gray-logic-detector/internal/registry"
	"github.com/nerrad567/gray-logic-detector/internal/state"
	"github.com/nerrad567/gray-logic-detector/internal/telemetry"
)

// Defaults used when Deps leaves a timing unset.
const (
	DefaultInterval    = 3 * time.Second
	DefaultWarmUp      = 20 * time.Second
	DefaultConnectPoll = 500 * time.Millisecond

	// pruneEvery is how often Run trims the dispatch journal.
	pruneEvery = time.Hour
)

// Logger is the logging interface used by the driver.
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

// Synchronizer reconciles the enabled set with the registry.
type Synchronizer interface {
	Sync(ctx context.Context, id netlink.Identity) (registry.Outcome, error)
}

// ControlService is the loop-serviced control endpoint.
type ControlService interface {
	Start(ctx context.Context) error
	ServeOne(ctx context.Context) bool
}

// Collector builds a report from the enabled slots.
type Collector interface {
	Collect(ctx context.Context, id netlink.Identity, snap state.Snapshot) (telemetry.Report, error)
}

// Uploader delivers a report.
type Uploader interface {
	Upload(ctx context.Context, report telemetry.Report) error
}

// Pruner trims old dispatch journal entries.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CycleObserver receives per-cycle gauges and counters.
type CycleObserver interface {
	ObserveCycle(result string)
	SetEnabledSensors(n int)
	SetLinkUp(up bool)
}

type noopObserver struct{}

func (noopObserver) ObserveCycle(string)   {}
func (noopObserver) SetEnabledSensors(int) {}
func (noopObserver) SetLinkUp(bool)        {}

// Deps holds the driver's collaborators and timings.
type Deps struct {
	Store     *state.Store
	Link      netlink.Link
	Sync      Synchronizer
	Control   ControlService
	Collector Collector
	Uploader  Uploader

	// Journal and Retention enable hourly pruning of the dispatch journal.
	Journal   Pruner
	Retention time.Duration

	Observer CycleObserver
	Clock    clock.Clock
	Logger   Logger

	Interval    time.Duration
	WarmUp      time.Duration
	ConnectPoll time.Duration
}

// Driver owns the main loop.
type Driver struct {
	store     *state.Store
	link      netlink.Link
	sync      Synchronizer
	control   ControlService
	collector Collector
	uploader  Uploader
	journal   Pruner
	retention time.Duration
	observer  CycleObserver
	clock     clock.Clock
	logger    Logger

	interval    time.Duration
	warmUp      time.Duration
	connectPoll time.Duration

	identity  netlink.Identity
	lastPrune time.Time
}

// New validates deps and builds a Driver.
func New(deps Deps) (*Driver, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case deps.Link == nil:
		return nil, fmt.Errorf("%w: link", ErrMissingDependency)
	case deps.Sync == nil:
		return nil, fmt.Errorf("%w: synchronizer", ErrMissingDependency)
	case deps.Control == nil:
		return nil, fmt.Errorf("%w: control", ErrMissingDependency)
	case deps.Collector == nil:
		return nil, fmt.Errorf("%w: collector", ErrMissingDependency)
	case deps.Uploader == nil:
		return nil, fmt.Errorf("%w: uploader", ErrMissingDependency)
	}

	d := &Driver{
		store:       deps.Store,
		link:        deps.Link,
		sync:        deps.Sync,
		control:     deps.Control,
		collector:   deps.Collector,
		uploader:    deps.Uploader,
		journal:     deps.Journal,
		retention:   deps.Retention,
		observer:    deps.Observer,
		clock:       deps.Clock,
		logger:      deps.Logger,
		interval:    deps.Interval,
		warmUp:      deps.WarmUp,
		connectPoll: deps.ConnectPoll,
	}
	if d.observer == nil {
		d.observer = noopObserver{}
	}
	if d.clock == nil {
		d.clock = clock.New()
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	if d.interval <= 0 {
		d.interval = DefaultInterval
	}
	if d.warmUp < 0 {
		d.warmUp = 0
	}
	if d.connectPoll <= 0 {
		d.connectPoll = DefaultConnectPoll
	}
	return d, nil
}

// Identity returns the identity captured during Boot.
func (d *Driver) Identity() netlink.Identity {
	return d.identity
}

// Boot brings the detector up. Registry failures are logged and tolerated;
// Boot fails only if ctx ends, the identity cannot be read, or the control
// endpoint cannot listen.
func (d *Driver) Boot(ctx context.Context) error {
	d.store.Initialize()

	d.logger.Info("waiting for network link")
	if err := netlink.WaitConnected(ctx, d.link, d.clock, d.connectPoll); err != nil {
		return fmt.Errorf("waiting for link: %w", err)
	}
	d.observer.SetLinkUp(true)

	id, err := d.link.Identity(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoIdentity, err)
	}
	d.identity = id
	d.logger.Info("network link up", "mac", id.MACAddress, "ipv4", id.IPv4)

	outcome, err := d.sync.Sync(ctx, id)
	if err != nil {
		d.logger.Warn("configuration sync incomplete", "outcome", outcome.String(), "error", err)
	} else {
		d.logger.Info("configuration sync complete", "outcome", outcome.String())
	}
	d.observer.SetEnabledSensors(d.store.Snapshot().Count())

	if err := d.control.Start(ctx); err != nil {
		return fmt.Errorf("starting control endpoint: %w", err)
	}

	if d.warmUp > 0 {
		d.logger.Info("warming up sensors", "delay", d.warmUp)
		if err := wait(ctx, d.clock, d.warmUp); err != nil {
			return err
		}
	}

	d.lastPrune = d.clock.Now()
	return nil
}

// CycleResult summarises one RunCycle.
type CycleResult struct {
	ID       string
	Online   bool
	Served   bool
	Enabled  int
	Readings int
	Uploaded bool

	// Err is ErrConnectivityLost for skipped cycles, the upload error for
	// failed uploads, or ctx.Err() when collection was interrupted.
	Err error
}

// RunCycle performs one iteration of the main loop.
func (d *Driver) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{ID: uuid.NewString()}
	ctx = dispatch.WithCycleID(ctx, res.ID)

	if !d.link.Connected(ctx) {
		res.Err = ErrConnectivityLost
		d.observer.SetLinkUp(false)
		d.observer.ObserveCycle(metrics.CycleOffline)
		d.logger.Warn("link down, skipping cycle", "cycle_id", res.ID)
		return res
	}
	res.Online = true
	d.observer.SetLinkUp(true)

	// Apply any pending update before the snapshot so it shapes this cycle.
	res.Served = d.control.ServeOne(ctx)

	snap := d.store.Snapshot()
	res.Enabled = snap.Count()
	d.observer.SetEnabledSensors(res.Enabled)

	if !d.store.IsAnyEnabled() {
		d.observer.ObserveCycle(metrics.CycleIdle)
		return res
	}

	report, err := d.collector.Collect(ctx, d.identity, snap)
	res.Readings = len(report.Readings)
	if err != nil {
		res.Err = err
		d.observer.ObserveCycle(metrics.CycleInterrupted)
		d.logger.Debug("collection interrupted", "cycle_id", res.ID, "error", err)
		return res
	}

	if err := d.uploader.Upload(ctx, report); err != nil {
		res.Err = err
		d.observer.ObserveCycle(metrics.CycleUploadFailed)
		return res
	}

	res.Uploaded = true
	d.observer.ObserveCycle(metrics.CycleUploaded)
	d.logger.Debug("cycle complete", "cycle_id", res.ID, "readings", res.Readings)
	return res
}

// Run loops RunCycle with the configured interval until ctx ends. It always
// returns nil; per-cycle failures are logged and the loop continues.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("main loop started", "interval", d.interval)
	for {
		if ctx.Err() != nil {
			d.logger.Info("main loop stopped")
			return nil
		}

		d.RunCycle(ctx)
		d.maybePrune(ctx)

		if err := wait(ctx, d.clock, d.interval); err != nil {
			d.logger.Info("main loop stopped")
			return nil
		}
	}
}

func (d *Driver) maybePrune(ctx context.Context) {
	if d.journal == nil || d.retention <= 0 {
		return
	}
	now := d.clock.Now()
	if now.Sub(d.lastPrune) < pruneEvery {
		return
	}
	d.lastPrune = now

	n, err := d.journal.Prune(ctx, d.retention)
	if err != nil {
		d.logger.Warn("pruning dispatch history failed", "error", err)
		return
	}
	if n > 0 {
		d.logger.Debug("pruned dispatch history", "removed", n)
	}
}

// wait blocks for d on clk or until ctx ends.
func wait(ctx context.Context, clk clock.Clock, d time.Duration) error {
	timer := clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
