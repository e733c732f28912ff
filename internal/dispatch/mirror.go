package dispatch

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-detector/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-detector/internal/telemetry"
)

// Mirror is a secondary telemetry sink.
type Mirror interface {
	// Name labels the mirror in logs and metrics.
	Name() string

	// Mirror forwards one report. body is the encoded report as uploaded.
	Mirror(ctx context.Context, report telemetry.Report, body []byte) error
}

// TelemetryPublisher publishes an encoded report. *mqtt.Client satisfies it.
type TelemetryPublisher interface {
	PublishTelemetry(payload []byte) error
}

// MQTTMirror publishes each report on the device telemetry topic.
type MQTTMirror struct {
	publisher TelemetryPublisher
}

// NewMQTTMirror wraps publisher.
func NewMQTTMirror(publisher TelemetryPublisher) *MQTTMirror {
	return &MQTTMirror{publisher: publisher}
}

// Name implements Mirror.
func (m *MQTTMirror) Name() string { return "mqtt" }

// Mirror implements Mirror.
func (m *MQTTMirror) Mirror(_ context.Context, _ telemetry.Report, body []byte) error {
	return m.publisher.PublishTelemetry(body)
}

// PointWriter writes time-series points. *influxdb.Client satisfies it.
type PointWriter interface {
	WritePoints(ctx context.Context, points ...*write.Point) error
}

// InfluxMirror writes one point per reading.
type InfluxMirror struct {
	writer PointWriter
	clock  clock.Clock
}

// NewInfluxMirror wraps writer. A nil clock uses the wall clock.
func NewInfluxMirror(writer PointWriter, clk clock.Clock) *InfluxMirror {
	if clk == nil {
		clk = clock.New()
	}
	return &InfluxMirror{writer: writer, clock: clk}
}

// Name implements Mirror.
func (m *InfluxMirror) Name() string { return "influxdb" }

// Mirror implements Mirror. Invalid DHT values are left out of the point;
// a reading with no valid field produces no point at all.
func (m *InfluxMirror) Mirror(ctx context.Context, report telemetry.Report, _ []byte) error {
	points := ReadingPoints(report, m.clock.Now())
	if len(points) == 0 {
		return nil
	}
	return m.writer.WritePoints(ctx, points...)
}

// ReadingPoints converts report into InfluxDB points stamped ts.
func ReadingPoints(report telemetry.Report, ts time.Time) []*write.Point {
	points := make([]*write.Point, 0, len(report.Readings))
	for _, r := range report.Readings {
		fields := make(map[string]any, 2)
		if r.Temperature != nil && r.Temperature.Valid() {
			fields["temperature"] = float64(*r.Temperature)
		}
		if r.Humidity != nil && r.Humidity.Valid() {
			fields["humidity"] = float64(*r.Humidity)
		}
		if r.MQValue != nil {
			fields["mq_value"] = int64(*r.MQValue)
		}
		if len(fields) == 0 {
			continue
		}
		points = append(points, influxdb.NewReadingPoint(report.MACAddress, r.Type, r.Name, fields, ts))
	}
	return points
}
