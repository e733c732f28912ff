package telemetry

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestReport_MarshalWireFormat(t *testing.T) {
	r := Report{
		MACAddress: "AA:BB:CC:DD:EE:FF",
		Readings: []Reading{
			NewDHTReading("DHT-11", 21.5, 40),
			NewGasReading("MQ-5", 312),
		},
	}

	data, err := r.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{
  "macAddress": "AA:BB:CC:DD:EE:FF",
  "sensorLogSet": [
    {
      "type": "DHT",
      "name": "DHT-11",
      "temperature": 21.5,
      "humidity": 40
    },
    {
      "type": "MQ",
      "name": "MQ-5",
      "mqValue": 312
    }
  ]
}`
	if string(data) != want {
		t.Errorf("Marshal() =\n%s\nwant\n%s", data, want)
	}
}

func TestReport_MarshalEmpty(t *testing.T) {
	data, err := Report{MACAddress: "AA:BB:CC:DD:EE:FF"}.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"sensorLogSet": []`) {
		t.Errorf("empty report should carry an empty array, got %s", data)
	}
}

func TestMeasurement_NaNIsNull(t *testing.T) {
	r := NewDHTReading("DHT-22", math.NaN(), math.Inf(1))

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `{"type":"DHT","name":"DHT-22","temperature":null,"humidity":null}`
	if string(data) != want {
		t.Errorf("json.Marshal() = %s, want %s", data, want)
	}

	var back Reading
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if back.Temperature != nil || back.Humidity != nil {
		t.Errorf("null values decoded to %v/%v, want nil", back.Temperature, back.Humidity)
	}

	// Real values survive the round trip.
	data, err = json.Marshal(NewDHTReading("DHT-11", 21.5, 40))
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	back = Reading{}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if back.Temperature == nil || *back.Temperature != 21.5 || back.Humidity == nil || *back.Humidity != 40 {
		t.Errorf("decoded = %+v, want 21.5/40", back)
	}
}

func TestMeasurement_Valid(t *testing.T) {
	if !Measurement(0).Valid() {
		t.Error("0 should be valid")
	}
	if Measurement(math.NaN()).Valid() || Measurement(math.Inf(-1)).Valid() {
		t.Error("NaN and Inf should be invalid")
	}
}
