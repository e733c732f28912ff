package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-detector/internal/history"
	"github.com/nerrad567/gray-logic-detector/internal/registry"
	"github.com/nerrad567/gray-logic-detector/internal/telemetry"
)

// journalTimeout bounds a journal write so a locked database cannot stall
// the loop.
const journalTimeout = 2 * time.Second

// Logger is the logging interface used by the dispatcher.
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

// Poster performs the primary upload. *registry.Client satisfies it.
type Poster interface {
	Post(ctx context.Context, path string, body []byte) (int, []byte, error)
}

// Observer receives upload and mirror outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveUpload(d time.Duration, err error)
	ObserveMirrorError(mirror string)
}

// Deps holds the dispatcher's collaborators.
type Deps struct {
	// Poster is required.
	Poster Poster

	// Mirrors receive every report after the primary upload.
	Mirrors []Mirror

	// Journal records each attempt; nil disables the journal.
	Journal history.Journal

	Observer Observer
	Clock    clock.Clock
	Logger   Logger
}

// Dispatcher sends reports to the collector and its mirrors.
//
// Thread Safety: Upload is called from the loop goroutine only.
type Dispatcher struct {
	poster   Poster
	mirrors  []Mirror
	journal  history.Journal
	observer Observer
	clock    clock.Clock
	logger   Logger
}

// NewDispatcher validates deps and builds a Dispatcher.
func NewDispatcher(deps Deps) (*Dispatcher, error) {
	if deps.Poster == nil {
		return nil, ErrNoPoster
	}

	d := &Dispatcher{
		poster:   deps.Poster,
		mirrors:  deps.Mirrors,
		journal:  deps.Journal,
		observer: deps.Observer,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
	if d.clock == nil {
		d.clock = clock.New()
	}
	if d.logger == nil {
		d.logger = noopLogger{}
	}
	return d, nil
}

// AddMirror appends m to the mirror list. Call it before the loop starts;
// it is not safe to use concurrently with Upload.
func (d *Dispatcher) AddMirror(m Mirror) {
	d.mirrors = append(d.mirrors, m)
}

// Upload sends report to the collector exactly once.
//
// The body is pretty-printed JSON. A 200 answer is success; any other
// status or a transport failure returns ErrUploadFailed. Mirrors and the
// journal run regardless of the primary outcome and never change the
// returned error.
func (d *Dispatcher) Upload(ctx context.Context, report telemetry.Report) error {
	cycleID := CycleIDFrom(ctx)
	if cycleID == "" {
		cycleID = uuid.NewString()
	}

	body, err := report.Marshal()
	if err != nil {
		err = fmt.Errorf("%w: encoding report: %w", ErrUploadFailed, err)
		d.record(ctx, cycleID, report, 0, 0, err)
		return err
	}

	start := d.clock.Now()
	status, respBody, postErr := d.poster.Post(ctx, registry.UploadPath, body)
	elapsed := d.clock.Since(start)

	switch {
	case postErr != nil:
		err = fmt.Errorf("%w: %w", ErrUploadFailed, postErr)
	case status != http.StatusOK:
		err = fmt.Errorf("%w: status %d", ErrUploadFailed, status)
	}

	if d.observer != nil {
		d.observer.ObserveUpload(elapsed, err)
	}

	if err != nil {
		d.logger.Warn("telemetry upload failed",
			"cycle_id", cycleID,
			"readings", len(report.Readings),
			"error", err,
		)
	} else {
		d.logger.Debug("telemetry uploaded",
			"cycle_id", cycleID,
			"readings", len(report.Readings),
			"duration", elapsed,
			"response", string(respBody),
		)
	}

	d.mirror(ctx, report, body)
	d.record(ctx, cycleID, report, status, elapsed, err)
	return err
}

func (d *Dispatcher) mirror(ctx context.Context, report telemetry.Report, body []byte) {
	for _, m := range d.mirrors {
		if err := m.Mirror(ctx, report, body); err != nil {
			d.logger.Warn("telemetry mirror failed", "mirror", m.Name(), "error", err)
			if d.observer != nil {
				d.observer.ObserveMirrorError(m.Name())
			}
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, cycleID string, report telemetry.Report, status int, elapsed time.Duration, uploadErr error) {
	if d.journal == nil {
		return
	}

	entry := history.Entry{
		CycleID:    cycleID,
		MACAddress: report.MACAddress,
		Readings:   len(report.Readings),
		StatusCode: status,
		Duration:   elapsed,
		CreatedAt:  d.clock.Now(),
	}
	if uploadErr != nil {
		entry.Error = uploadErr.Error()
	}

	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := d.journal.Record(jctx, entry); err != nil {
		d.logger.Warn("recording dispatch history failed", "cycle_id", cycleID, "error", err)
	}
}
