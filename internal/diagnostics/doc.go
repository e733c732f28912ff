// Package diagnostics serves the detector's operator endpoints on a port
// separate from the control surface:
//
//	GET /health         component health as JSON (503 when degraded)
//	GET /metrics        Prometheus exposition
//	GET /uploads?limit  recent entries of the dispatch journal
//
// The listener is disabled by default.
package diagnostics
