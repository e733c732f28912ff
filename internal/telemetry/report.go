package telemetry

import (
	"encoding/json"
	"math"
	"strconv"
)

// Report is one cycle's telemetry document. It is built fresh every cycle
// and discarded after upload.
type Report struct {
	MACAddress string    `json:"macAddress"`
	Readings   []Reading `json:"sensorLogSet"`
}

// Reading is one slot's contribution to a report.
type Reading struct {
	Type string `json:"type"`
	Name string `json:"name"`

	// DHT class
	Temperature *Measurement `json:"temperature,omitempty"`
	Humidity    *Measurement `json:"humidity,omitempty"`

	// Gas class: raw converter count
	MQValue *int `json:"mqValue,omitempty"`
}

// Measurement is a float that encodes NaN and infinities as JSON null.
// Decoding null into a *Measurement leaves the pointer nil, so a nil
// field is the decoded form of an invalid value.
type Measurement float64

// MarshalJSON implements json.Marshaler.
func (m Measurement) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

// Valid reports whether m holds a real value.
func (m Measurement) Valid() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// NewDHTReading builds a humidity/temperature reading.
func NewDHTReading(name string, celsius, percent float64) Reading {
	t, h := Measurement(celsius), Measurement(percent)
	return Reading{Type: "DHT", Name: name, Temperature: &t, Humidity: &h}
}

// NewGasReading builds a gas-concentration reading.
func NewGasReading(name string, raw int) Reading {
	return Reading{Type: "MQ", Name: name, MQValue: &raw}
}

// Marshal encodes the report with two-space indentation.
func (r Report) Marshal() ([]byte, error) {
	if r.Readings == nil {
		r.Readings = []Reading{}
	}
	return json.MarshalIndent(r, "", "  ")
}
