package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCycle(CycleUploaded)
	m.ObserveCycle(CycleUploaded)
	m.ObserveCycle(CycleOffline)
	m.ObserveCycle(CycleInterrupted)
	if got := testutil.ToFloat64(m.cycles.WithLabelValues(CycleUploaded)); got != 2 {
		t.Errorf("uploaded cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cycles.WithLabelValues(CycleInterrupted)); got != 1 {
		t.Errorf("interrupted cycles = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cycles.WithLabelValues(CycleOffline)); got != 1 {
		t.Errorf("offline cycles = %v, want 1", got)
	}

	m.ObserveSensorRead("DHT-11", nil)
	m.ObserveSensorRead("DHT-11", errors.New("timeout"))
	if got := testutil.ToFloat64(m.sensorReads.WithLabelValues("DHT-11", "error")); got != 1 {
		t.Errorf("DHT-11 read errors = %v, want 1", got)
	}

	m.ObserveControl("updated")
	if got := testutil.ToFloat64(m.controlReqs.WithLabelValues("updated")); got != 1 {
		t.Errorf("control updated = %v, want 1", got)
	}

	m.ObserveMirrorError("mqtt")
	if got := testutil.ToFloat64(m.mirrorErrors.WithLabelValues("mqtt")); got != 1 {
		t.Errorf("mqtt mirror errors = %v, want 1", got)
	}
}

func TestMetrics_Upload(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUpload(120*time.Millisecond, nil)
	m.ObserveUpload(2*time.Second, errors.New("status 500"))

	if got := testutil.ToFloat64(m.uploads.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok uploads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.uploads.WithLabelValues("error")); got != 1 {
		t.Errorf("failed uploads = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.uploadLatency); n != 1 {
		t.Errorf("latency histogram series = %d, want 1", n)
	}
}

func TestMetrics_Gauges(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetEnabledSensors(3)
	m.SetLinkUp(true)
	if got := testutil.ToFloat64(m.enabledSensors); got != 3 {
		t.Errorf("enabled_sensors = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.linkUp); got != 1 {
		t.Errorf("link_up = %v, want 1", got)
	}

	m.SetLinkUp(false)
	if got := testutil.ToFloat64(m.linkUp); got != 0 {
		t.Errorf("link_up = %v, want 0", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCycle(CycleIdle)
	m.ObserveSensorRead("MQ-2", nil)
	m.ObserveUpload(time.Second, nil)
	m.ObserveControl("busy")
	m.ObserveMirrorError("influxdb")
	m.SetEnabledSensors(1)
	m.SetLinkUp(true)
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("second New on the same registry should panic")
		}
	}()
	New(reg)
}
