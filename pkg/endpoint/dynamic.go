package endpoint

import (
	"context"
	"fmt"
	"net"
	"time"
)

// ScanProfile tells an AddressResolver where and how hard to look.
type ScanProfile struct {
	// Interface restricts resolution to one network interface.
	// Empty means all interfaces.
	Interface string

	// Scan permits the resolver to actively probe the network when its
	// cache has no mapping. Resolvers without scan support ignore it.
	Scan bool

	// Timeout bounds a scan. 0 means the resolver's default.
	Timeout time.Duration
}

// AddressResolver maps hardware addresses to IP addresses, typically from
// the ARP/neighbor cache.
type AddressResolver interface {
	// Resolve returns the IP currently mapped to hw, or nil if unknown.
	Resolve(ctx context.Context, hw net.HardwareAddr, profile ScanProfile) (net.IP, error)

	// Invalidate drops any cached mapping for hw.
	Invalidate(hw net.HardwareAddr)
}

// Dynamic is a Provider backed by a hardware address. Every Resolve asks
// the resolver, so address changes are picked up without restarting.
type Dynamic struct {
	hw       net.HardwareAddr
	resolver AddressResolver
	profile  ScanProfile
}

// NewDynamic creates a provider for hw.
func NewDynamic(hw net.HardwareAddr, resolver AddressResolver, profile ScanProfile) *Dynamic {
	return &Dynamic{hw: hw, resolver: resolver, profile: profile}
}

// ParseDynamic creates a provider from a textual hardware address.
func ParseDynamic(mac string, resolver AddressResolver, profile ScanProfile) (*Dynamic, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("invalid hardware address %q: %w", mac, err)
	}
	return NewDynamic(hw, resolver, profile), nil
}

// Resolve asks the resolver for the current IP of the hardware address.
func (d *Dynamic) Resolve(ctx context.Context) (*Endpoint, error) {
	ip, err := d.resolver.Resolve(ctx, d.hw, d.profile)
	if err != nil {
		return nil, err
	}
	if ip == nil {
		return nil, nil
	}
	ep := FromIP(ip, 0)
	return &ep, nil
}

// Invalidate drops the resolver's cached mapping.
func (d *Dynamic) Invalidate() {
	d.resolver.Invalidate(d.hw)
}

// Identity returns the hardware address.
func (d *Dynamic) Identity() string {
	return d.hw.String()
}

// HardwareAddr returns the hardware address being resolved.
func (d *Dynamic) HardwareAddr() net.HardwareAddr {
	return d.hw
}

// Compile-time interface satisfaction checks.
var (
	_ Provider    = (*Dynamic)(nil)
	_ Invalidator = (*Dynamic)(nil)
)
