// Package netlink reports the detector's network identity and link state.
//
// Associating with an access point is left to the operating system. This
// package only observes the configured interface: whether it is up with an
// IPv4 address, and which hardware and network address identify the device
// to the registry.
package netlink
