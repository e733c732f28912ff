// Package history keeps a local journal of upload attempts.
//
// Each cycle that reaches the dispatcher leaves one Entry: when it ran, how
// many readings it carried, the collector's HTTP status and any error. The
// report body itself is never stored and entries are never replayed; the
// journal exists for the diagnostics listener and is pruned by age.
package history
