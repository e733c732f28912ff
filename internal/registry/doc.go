// Package registry talks to the central detector registry.
//
// The Client wraps the three registry calls the detector makes:
//
//	GET  {base}/detector/{mac}   lookup, 200 returns the configuration document
//	POST {base}/detector/new     registration, 201 on success
//	POST {base}/log/upload       telemetry upload (see package dispatch)
//
// The Synchronizer performs the boot-time handshake: fetch this device's
// configuration, or register it when the registry does not know it. It
// never retries; a failed handshake leaves every sensor disabled until the
// registry pushes a configuration through the control endpoint.
package registry
