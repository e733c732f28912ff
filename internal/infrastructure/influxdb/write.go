package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// ReadingMeasurement is the measurement every sensor reading is written to.
const ReadingMeasurement = "detector_readings"

// NewReadingPoint builds the point for one sensor reading.
//
// Tags are low cardinality (device, sensor type, sensor name); the reading
// values go in fields.
//
// Example:
//
//	p := influxdb.NewReadingPoint("AA:BB:CC:DD:EE:FF", "DHT", "DHT-11",
//	    map[string]any{"temperature": 21.5, "humidity": 40.0}, time.Now())
func NewReadingPoint(mac, sensorType, name string, fields map[string]any, ts time.Time) *write.Point {
	return write.NewPoint(
		ReadingMeasurement,
		map[string]string{
			"mac":  mac,
			"type": sensorType,
			"name": name,
		},
		fields,
		ts,
	)
}

// WritePoints writes points synchronously.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - points: Points to write; an empty call is a no-op
//
// Returns:
//   - error: ErrNotConnected, or ErrWriteFailed wrapping the server error
func (c *Client) WritePoints(ctx context.Context, points ...*write.Point) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if len(points) == 0 {
		return nil
	}

	if err := c.writeAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
