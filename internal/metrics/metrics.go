// Package metrics holds the detector's Prometheus instruments.
//
// All methods are nil-safe so components can treat metrics as optional.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "detector"

// Cycle results.
const (
	CycleUploaded     = "uploaded"
	CycleUploadFailed = "upload_failed"
	CycleIdle         = "idle"
	CycleOffline      = "offline"
	CycleInterrupted  = "interrupted"
)

// Metrics is the set of instruments exported on /metrics.
type Metrics struct {
	cycles         *prometheus.CounterVec
	sensorReads    *prometheus.CounterVec
	uploads        *prometheus.CounterVec
	uploadLatency  prometheus.Histogram
	controlReqs    *prometheus.CounterVec
	mirrorErrors   *prometheus.CounterVec
	enabledSensors prometheus.Gauge
	linkUp         prometheus.Gauge
}

// New creates the instruments and registers them with reg.
// It panics if registration fails, as prometheus.MustRegister does.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Main loop cycles by result.",
		}, []string{"result"}),
		sensorReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_reads_total",
			Help:      "Sensor reads by sensor name and result.",
		}, []string{"sensor", "result"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Telemetry uploads to the collector by result.",
		}, []string{"result"}),
		uploadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Duration of telemetry upload requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		controlReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_requests_total",
			Help:      "Control endpoint updates by result.",
		}, []string{"result"}),
		mirrorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_errors_total",
			Help:      "Failed telemetry mirror writes by mirror.",
		}, []string{"mirror"}),
		enabledSensors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "enabled_sensors",
			Help:      "Number of currently enabled sensor slots.",
		}),
		linkUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_up",
			Help:      "1 when the network link was up at the last cycle.",
		}),
	}

	reg.MustRegister(
		m.cycles,
		m.sensorReads,
		m.uploads,
		m.uploadLatency,
		m.controlReqs,
		m.mirrorErrors,
		m.enabledSensors,
		m.linkUp,
	)
	return m
}

// ObserveCycle counts one loop cycle.
func (m *Metrics) ObserveCycle(result string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
}

// ObserveSensorRead counts one sensor read.
func (m *Metrics) ObserveSensorRead(sensor string, err error) {
	if m == nil {
		return
	}
	m.sensorReads.WithLabelValues(sensor, result(err)).Inc()
}

// ObserveUpload counts one upload and records its duration.
func (m *Metrics) ObserveUpload(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result(err)).Inc()
	m.uploadLatency.Observe(d.Seconds())
}

// ObserveControl counts one control endpoint request.
func (m *Metrics) ObserveControl(result string) {
	if m == nil {
		return
	}
	m.controlReqs.WithLabelValues(result).Inc()
}

// ObserveMirrorError counts one failed mirror write.
func (m *Metrics) ObserveMirrorError(mirror string) {
	if m == nil {
		return
	}
	m.mirrorErrors.WithLabelValues(mirror).Inc()
}

// SetEnabledSensors records the size of the enabled set.
func (m *Metrics) SetEnabledSensors(n int) {
	if m == nil {
		return
	}
	m.enabledSensors.Set(float64(n))
}

// SetLinkUp records the link state.
func (m *Metrics) SetLinkUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.linkUp.Set(1)
	} else {
		m.linkUp.Set(0)
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
