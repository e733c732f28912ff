package netlink

import "errors"

// Domain errors for the netlink package.
var (
	// ErrInterfaceNotFound is returned when the configured interface does not exist.
	ErrInterfaceNotFound = errors.New("netlink: interface not found")

	// ErrNoAddress is returned when the interface has no usable IPv4 address
	// and no override is configured.
	ErrNoAddress = errors.New("netlink: no ipv4 address")

	// ErrNoHardwareAddress is returned when the interface has no MAC address
	// and no override is configured.
	ErrNoHardwareAddress = errors.New("netlink: no hardware address")
)
