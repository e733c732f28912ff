package netlink

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Identity describes this device to the registry. MACAddress is the stable
// key; IPv4 may change across reconnects.
type Identity struct {
	MACAddress string `json:"macAddress"`
	IPv4       string `json:"ipV4"`
}

// Link reports connectivity and identity.
type Link interface {
	// Connected reports whether the link can currently reach the network.
	Connected(ctx context.Context) bool

	// Identity returns the current device identity.
	Identity(ctx context.Context) (Identity, error)
}

// interfaceLister matches psnet.InterfacesWithContext.
type interfaceLister func(ctx context.Context) (psnet.InterfaceStatList, error)

// InterfaceLink is a Link backed by one operating-system network interface.
type InterfaceLink struct {
	name        string
	macOverride string
	ipOverride  string
	list        interfaceLister
}

// NewInterfaceLink observes the interface called name. A non-empty mac or
// ipv4 replaces the value read from the interface.
func NewInterfaceLink(name, mac, ipv4 string) *InterfaceLink {
	return &InterfaceLink{
		name:        name,
		macOverride: mac,
		ipOverride:  ipv4,
		list:        psnet.InterfacesWithContext,
	}
}

// Connected implements Link. The interface must be up and carry an IPv4
// address. With both overrides set and no interface name the link is
// always considered up.
func (l *InterfaceLink) Connected(ctx context.Context) bool {
	if l.name == "" {
		return l.macOverride != "" && l.ipOverride != ""
	}

	iface, err := l.lookup(ctx)
	if err != nil {
		return false
	}
	if !isUp(iface) {
		return false
	}
	return l.ipOverride != "" || firstIPv4(iface) != ""
}

// Identity implements Link.
func (l *InterfaceLink) Identity(ctx context.Context) (Identity, error) {
	id := Identity{
		MACAddress: NormalizeMAC(l.macOverride),
		IPv4:       l.ipOverride,
	}
	if id.MACAddress != "" && id.IPv4 != "" {
		return id, nil
	}

	iface, err := l.lookup(ctx)
	if err != nil {
		return Identity{}, err
	}

	if id.MACAddress == "" {
		id.MACAddress = NormalizeMAC(iface.HardwareAddr)
		if id.MACAddress == "" {
			return Identity{}, fmt.Errorf("%w: %s", ErrNoHardwareAddress, l.name)
		}
	}
	if id.IPv4 == "" {
		id.IPv4 = firstIPv4(iface)
		if id.IPv4 == "" {
			return Identity{}, fmt.Errorf("%w: %s", ErrNoAddress, l.name)
		}
	}
	return id, nil
}

func (l *InterfaceLink) lookup(ctx context.Context) (psnet.InterfaceStat, error) {
	ifaces, err := l.list(ctx)
	if err != nil {
		return psnet.InterfaceStat{}, fmt.Errorf("listing interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Name == l.name {
			return iface, nil
		}
	}
	return psnet.InterfaceStat{}, fmt.Errorf("%w: %s", ErrInterfaceNotFound, l.name)
}

func isUp(iface psnet.InterfaceStat) bool {
	for _, f := range iface.Flags {
		if f == "up" {
			return true
		}
	}
	return false
}

// firstIPv4 returns the first non-loopback IPv4 address of iface, or "".
func firstIPv4(iface psnet.InterfaceStat) string {
	for _, a := range iface.Addrs {
		addr := a.Addr
		if ip, _, err := net.ParseCIDR(addr); err == nil {
			addr = ip.String()
		}
		ip := net.ParseIP(addr)
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}

// NormalizeMAC returns mac upper-cased with colon separators, or "" if it
// does not parse.
func NormalizeMAC(mac string) string {
	if mac == "" {
		return ""
	}
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return ""
	}
	return strings.ToUpper(hw.String())
}

// WaitConnected blocks until link reports connected, checking every poll
// interval on clk. It returns ctx.Err() if ctx ends first.
func WaitConnected(ctx context.Context, link Link, clk clock.Clock, poll time.Duration) error {
	for {
		if link.Connected(ctx) {
			return nil
		}

		timer := clk.Timer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// StaticLink is a Link with a fixed identity and a settable connection state.
type StaticLink struct {
	id        Identity
	connected func() bool
}

// NewStaticLink returns a link that always reports id. connected may be nil
// for an always-up link.
func NewStaticLink(id Identity, connected func() bool) *StaticLink {
	return &StaticLink{id: id, connected: connected}
}

// Connected implements Link.
func (s *StaticLink) Connected(context.Context) bool {
	if s.connected == nil {
		return true
	}
	return s.connected()
}

// Identity implements Link.
func (s *StaticLink) Identity(context.Context) (Identity, error) {
	return s.id, nil
}
