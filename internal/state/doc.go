// Package state owns the detector's enabled-sensor set.
//
// The set has exactly sensor.SlotCount entries, all disabled at boot. It is
// changed only through Store.Apply (or ApplyJSON), which is shared by the
// boot-time registry handshake and the local control endpoint, so both paths
// validate configuration documents with the same rules.
//
// Configuration documents use 1-based sensor ids on the wire:
//
//	{"sensorSet":[{"sensorId":1,"toEnable":true},{"sensorId":3,"toEnable":true}]}
//
// enables slots 0 and 2 and leaves every other slot unchanged.
//
// Thread Safety: All Store methods are safe for concurrent use.
package state
