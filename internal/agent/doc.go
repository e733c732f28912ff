// Package agent drives the detector: boot, then one cycle every interval.
//
// Boot clears the enabled set, waits for the network link, synchronises
// configuration with the registry, starts the control endpoint and sits
// out the sensor warm-up. Each cycle then:
//
//  1. skips if the link is down,
//  2. applies at most one pending control update,
//  3. collects and uploads a report if any slot is enabled.
//
// All state mutation happens on the goroutine running Run.
package agent
