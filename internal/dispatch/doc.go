// Package dispatch delivers telemetry reports.
//
// The primary sink is the collector's POST /log/upload endpoint: one
// synchronous attempt per cycle, never retried and never queued. After it,
// the same report is handed to optional mirrors (MQTT, InfluxDB) whose
// failures are logged only, and the attempt is recorded in the dispatch
// journal when one is configured.
package dispatch
