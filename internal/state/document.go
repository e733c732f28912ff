package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-detector/internal/sensor"
)

// maxSensorID is the highest valid 1-based sensor id.
const maxSensorID = sensor.SlotCount

// Entry is one (sensorId, toEnable) pair of a configuration document.
type Entry struct {
	SensorID int  `json:"sensorId"`
	ToEnable bool `json:"toEnable"`
}

// Document is the configuration document exchanged with the registry.
// It may be partial: only the slots it mentions are changed.
type Document struct {
	SensorSet []Entry `json:"sensorSet"`
}

// ParseDocument decodes a configuration document.
//
// A missing "sensorSet" is an empty document. A missing "toEnable" means
// false. Anything that is not a JSON object of this shape is rejected with
// ErrMalformedConfiguration.
func ParseDocument(body []byte) (Document, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedConfiguration)
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformedConfiguration, err)
	}
	return doc, nil
}
