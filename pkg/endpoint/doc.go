// Package endpoint resolves a device identity (hostname, IP address or
// hardware address) to the network endpoint a transport dials.
//
// # Providers
//
// A Provider returns the current endpoint or nil when nothing is known.
// Nil is a distinct "unresolved" outcome, not an error. Providers whose
// mapping can go stale (for example after a DHCP lease change) also
// implement Invalidator:
//
//   - Static echoes a fixed host or IP and cannot be invalidated.
//   - Dynamic asks an AddressResolver for the IP of a hardware address on
//     every call and forwards Invalidate to it.
//
// # Ports
//
// An Endpoint's Port of 0 is a placeholder. Providers never substitute a
// default; callers do so at the point of use (Endpoint.Address), so one
// provider can serve protocols with different default ports.
//
// # Resolution Failures
//
// Resolve (the package function) enforces the provider contract for
// callers: when a provider reports nothing, dynamic providers are
// invalidated first and a *ResolutionError is returned, so the next attempt
// starts from a clean cache instead of repeating the same stale failure.
package endpoint
