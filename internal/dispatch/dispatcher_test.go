package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-detector/internal/history"
	"github.com/nerrad567/gray-logic-detector/internal/registry"
	"github.com/nerrad567/gray-logic-detector/internal/telemetry"
)

// fakeCollector records upload requests and answers with status.
type fakeCollector struct {
	mu       sync.Mutex
	status   int
	requests int
	path     string
	ctype    string
	body     []byte
}

func (f *fakeCollector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	f.path = r.Method + " " + r.URL.Path
	f.ctype = r.Header.Get("Content-Type")
	f.body, _ = io.ReadAll(r.Body) //nolint:errcheck // test fake
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte("ok")) //nolint:errcheck // test fake
}

type seenRequest struct {
	requests int
	path     string
	ctype    string
	body     []byte
}

func (f *fakeCollector) seen() seenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return seenRequest{requests: f.requests, path: f.path, ctype: f.ctype, body: f.body}
}

type memJournal struct {
	entries []history.Entry
	err     error
}

func (j *memJournal) Record(_ context.Context, e history.Entry) error {
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) Recent(context.Context, int) ([]history.Entry, error) { return j.entries, nil }

func (j *memJournal) Prune(context.Context, time.Duration) (int64, error) { return 0, nil }

type countingObserver struct {
	uploads      int
	uploadErrs   int
	mirrorErrors map[string]int
}

func (o *countingObserver) ObserveUpload(_ time.Duration, err error) {
	o.uploads++
	if err != nil {
		o.uploadErrs++
	}
}

func (o *countingObserver) ObserveMirrorError(name string) {
	if o.mirrorErrors == nil {
		o.mirrorErrors = map[string]int{}
	}
	o.mirrorErrors[name]++
}

type recordingMirror struct {
	name  string
	err   error
	calls int
	body  []byte
}

func (m *recordingMirror) Name() string { return m.name }

func (m *recordingMirror) Mirror(_ context.Context, _ telemetry.Report, body []byte) error {
	m.calls++
	m.body = body
	return m.err
}

type failingPoster struct{ err error }

func (p failingPoster) Post(context.Context, string, []byte) (int, []byte, error) {
	return 0, nil, p.err
}

func sampleReport() telemetry.Report {
	return telemetry.Report{
		MACAddress: "AA:BB:CC:DD:EE:FF",
		Readings: []telemetry.Reading{
			telemetry.NewDHTReading("DHT-11", 23.5, 41.5),
			telemetry.NewGasReading("MQ-5", 312),
		},
	}
}

func newTestDispatcher(t *testing.T, status int, deps Deps) (*Dispatcher, *fakeCollector) {
	t.Helper()
	fake := &fakeCollector{status: status}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	deps.Poster = registry.NewClient(srv.URL, time.Second)
	d, err := NewDispatcher(deps)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d, fake
}

func TestUpload_Success(t *testing.T) {
	journal := &memJournal{}
	observer := &countingObserver{}
	d, fake := newTestDispatcher(t, http.StatusOK, Deps{Journal: journal, Observer: observer})

	ctx := WithCycleID(context.Background(), "cycle-42")
	if err := d.Upload(ctx, sampleReport()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	req := fake.seen()

	if req.requests != 1 {
		t.Errorf("requests = %d, want exactly 1", req.requests)
	}
	if req.path != "POST /log/upload" {
		t.Errorf("request = %q, want POST /log/upload", req.path)
	}
	if req.ctype != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", req.ctype)
	}

	var got struct {
		MACAddress   string           `json:"macAddress"`
		SensorLogSet []map[string]any `json:"sensorLogSet"`
	}
	if err := json.Unmarshal(req.body, &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if got.MACAddress != "AA:BB:CC:DD:EE:FF" || len(got.SensorLogSet) != 2 {
		t.Errorf("body = %s", req.body)
	}
	if !strings.Contains(string(req.body), "\n  \"macAddress\"") {
		t.Errorf("body is not pretty-printed: %s", req.body)
	}

	if observer.uploads != 1 || observer.uploadErrs != 0 {
		t.Errorf("observer uploads=%d errs=%d, want 1/0", observer.uploads, observer.uploadErrs)
	}

	if len(journal.entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(journal.entries))
	}
	e := journal.entries[0]
	if e.CycleID != "cycle-42" || e.Readings != 2 || e.StatusCode != 200 || e.Error != "" {
		t.Errorf("journal entry = %+v", e)
	}
	if !e.Succeeded() {
		t.Error("entry should be marked succeeded")
	}
}

func TestUpload_NonOKStatus(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			journal := &memJournal{}
			d, fake := newTestDispatcher(t, status, Deps{Journal: journal})

			err := d.Upload(context.Background(), sampleReport())
			if !errors.Is(err, ErrUploadFailed) {
				t.Fatalf("Upload() error = %v, want ErrUploadFailed", err)
			}
			if fake.seen().requests != 1 {
				t.Errorf("requests = %d, want 1 (no retry)", fake.seen().requests)
			}
			if len(journal.entries) != 1 || journal.entries[0].StatusCode != status || journal.entries[0].Error == "" {
				t.Errorf("journal = %+v", journal.entries)
			}
			if journal.entries[0].CycleID == "" {
				t.Error("missing cycle id should be generated")
			}
		})
	}
}

func TestUpload_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	observer := &countingObserver{}
	d, err := NewDispatcher(Deps{Poster: registry.NewClient(url, 200*time.Millisecond), Observer: observer})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	err = d.Upload(context.Background(), sampleReport())
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("Upload() error = %v, want ErrUploadFailed", err)
	}
	if !errors.Is(err, registry.ErrTransport) {
		t.Errorf("Upload() error = %v, want wrapped ErrTransport", err)
	}
	if observer.uploadErrs != 1 {
		t.Errorf("observer upload errors = %d, want 1", observer.uploadErrs)
	}
}

func TestUpload_Mirrors(t *testing.T) {
	ok := &recordingMirror{name: "ok"}
	bad := &recordingMirror{name: "bad", err: errors.New("broker down")}
	observer := &countingObserver{}

	d, err := NewDispatcher(Deps{
		Poster:   failingPoster{err: registry.ErrTransport},
		Mirrors:  []Mirror{ok, bad},
		Observer: observer,
	})
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}

	// Mirrors run even when the primary upload fails.
	if err := d.Upload(context.Background(), sampleReport()); !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("Upload() error = %v, want ErrUploadFailed", err)
	}

	if ok.calls != 1 || bad.calls != 1 {
		t.Errorf("mirror calls ok=%d bad=%d, want 1/1", ok.calls, bad.calls)
	}
	if !strings.Contains(string(ok.body), "\"MQ-5\"") {
		t.Errorf("mirror body = %s", ok.body)
	}
	if observer.mirrorErrors["bad"] != 1 || observer.mirrorErrors["ok"] != 0 {
		t.Errorf("mirror errors = %v", observer.mirrorErrors)
	}
}

func TestUpload_JournalFailureIgnored(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, Deps{Journal: &memJournal{err: errors.New("locked")}})

	if err := d.Upload(context.Background(), sampleReport()); err != nil {
		t.Errorf("Upload() error = %v, journal failures must not surface", err)
	}
}

func TestUpload_EmptyReport(t *testing.T) {
	d, fake := newTestDispatcher(t, http.StatusOK, Deps{})

	if err := d.Upload(context.Background(), telemetry.Report{MACAddress: "AA:BB:CC:DD:EE:FF"}); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if body := fake.seen().body; !strings.Contains(string(body), `"sensorLogSet": []`) {
		t.Errorf("body = %s, want empty sensorLogSet array", body)
	}
}

func TestNewDispatcher_RequiresPoster(t *testing.T) {
	if _, err := NewDispatcher(Deps{}); !errors.Is(err, ErrNoPoster) {
		t.Errorf("NewDispatcher() error = %v, want ErrNoPoster", err)
	}
}

func TestCycleID(t *testing.T) {
	if got := CycleIDFrom(context.Background()); got != "" {
		t.Errorf("CycleIDFrom(empty) = %q", got)
	}
	ctx := WithCycleID(context.Background(), "abc")
	if got := CycleIDFrom(ctx); got != "abc" {
		t.Errorf("CycleIDFrom() = %q, want abc", got)
	}
}

type capturePoints struct {
	points []*write.Point
	err    error
}

func (c *capturePoints) WritePoints(_ context.Context, points ...*write.Point) error {
	c.points = append(c.points, points...)
	return c.err
}

type capturePublisher struct {
	payloads [][]byte
}

func (c *capturePublisher) PublishTelemetry(payload []byte) error {
	c.payloads = append(c.payloads, payload)
	return nil
}

func TestMQTTMirror(t *testing.T) {
	pub := &capturePublisher{}
	m := NewMQTTMirror(pub)

	if m.Name() != "mqtt" {
		t.Errorf("Name() = %q", m.Name())
	}
	if err := m.Mirror(context.Background(), sampleReport(), []byte("{}")); err != nil {
		t.Fatalf("Mirror() error = %v", err)
	}
	if len(pub.payloads) != 1 || string(pub.payloads[0]) != "{}" {
		t.Errorf("payloads = %q", pub.payloads)
	}
}

func TestInfluxMirror(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
	w := &capturePoints{}
	m := NewInfluxMirror(w, mock)

	report := sampleReport()
	report.Readings = append(report.Readings,
		telemetry.NewDHTReading("DHT-22", math.NaN(), math.NaN()),
		telemetry.NewDHTReading("DHT-22", 19.25, math.NaN()),
	)

	if err := m.Mirror(context.Background(), report, nil); err != nil {
		t.Fatalf("Mirror() error = %v", err)
	}

	// The all-NaN reading produces no point.
	if len(w.points) != 3 {
		t.Fatalf("points = %d, want 3", len(w.points))
	}

	type flat struct {
		tags   map[string]string
		fields map[string]any
	}
	got := make([]flat, len(w.points))
	for i, p := range w.points {
		if p.Name() != "detector_readings" {
			t.Errorf("point %d measurement = %q", i, p.Name())
		}
		got[i] = flat{tags: map[string]string{}, fields: map[string]any{}}
		for _, tag := range p.TagList() {
			got[i].tags[tag.Key] = tag.Value
		}
		for _, f := range p.FieldList() {
			got[i].fields[f.Key] = f.Value
		}
	}

	want := []flat{
		{
			tags:   map[string]string{"mac": "AA:BB:CC:DD:EE:FF", "type": "DHT", "name": "DHT-11"},
			fields: map[string]any{"temperature": 23.5, "humidity": 41.5},
		},
		{
			tags:   map[string]string{"mac": "AA:BB:CC:DD:EE:FF", "type": "MQ", "name": "MQ-5"},
			fields: map[string]any{"mq_value": int64(312)},
		},
		{
			tags:   map[string]string{"mac": "AA:BB:CC:DD:EE:FF", "type": "DHT", "name": "DHT-22"},
			fields: map[string]any{"temperature": 19.25},
		},
	}
	for i := range want {
		if !reflect.DeepEqual(got[i].tags, want[i].tags) {
			t.Errorf("point %d tags = %v, want %v", i, got[i].tags, want[i].tags)
		}
		if !reflect.DeepEqual(got[i].fields, want[i].fields) {
			t.Errorf("point %d fields = %v, want %v", i, got[i].fields, want[i].fields)
		}
	}

	if got := w.points[0].Time(); !got.Equal(mock.Now()) {
		t.Errorf("point time = %v, want %v", got, mock.Now())
	}
}

func TestInfluxMirror_NoPoints(t *testing.T) {
	w := &capturePoints{err: errors.New("should not be called")}
	m := NewInfluxMirror(w, nil)

	report := telemetry.Report{Readings: []telemetry.Reading{
		telemetry.NewDHTReading("DHT-11", math.NaN(), math.NaN()),
	}}
	if err := m.Mirror(context.Background(), report, nil); err != nil {
		t.Errorf("Mirror() error = %v, want nil for an empty point set", err)
	}
	if m.Name() != "influxdb" {
		t.Errorf("Name() = %q", m.Name())
	}
}

func TestAddMirror(t *testing.T) {
	d, _ := newTestDispatcher(t, http.StatusOK, Deps{})
	late := &recordingMirror{name: "late"}
	d.AddMirror(late)

	if err := d.Upload(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if late.calls != 1 {
		t.Errorf("late mirror calls = %d, want 1", late.calls)
	}
}
