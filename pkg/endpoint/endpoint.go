package endpoint

import (
	"net"
	"strconv"
)

// Family selects the IP address family used to dial an endpoint.
type Family uint8

const (
	// FamilyUnspecified lets the transport choose, preferring IPv6.
	FamilyUnspecified Family = iota

	// FamilyIPv4 forces IPv4.
	FamilyIPv4

	// FamilyIPv6 forces IPv6.
	FamilyIPv6
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyUnspecified:
		return "UNSPECIFIED"
	case FamilyIPv4:
		return "IPV4"
	case FamilyIPv6:
		return "IPV6"
	default:
		return "UNKNOWN"
	}
}

// Endpoint is a resolved network endpoint. Endpoints are comparable with ==.
type Endpoint struct {
	// Host is a DNS name or an IP literal (without brackets).
	Host string

	// Port is the TCP port. 0 means the protocol default, substituted by
	// the caller at the point of use.
	Port uint16

	// Family is the address family to dial.
	Family Family
}

// FromIP returns the endpoint for ip with the family derived from the
// address.
func FromIP(ip net.IP, port uint16) Endpoint {
	return Endpoint{Host: ip.String(), Port: port, Family: familyOf(ip)}
}

// Address returns host:port, substituting defaultPort when Port is 0.
func (e Endpoint) Address(defaultPort uint16) string {
	port := e.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(int(port)))
}

// String returns the endpoint for logs. The port placeholder is omitted.
func (e Endpoint) String() string {
	if e.Port == 0 {
		return e.Host
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

func familyOf(ip net.IP) Family {
	switch {
	case ip == nil:
		return FamilyUnspecified
	case ip.To4() != nil:
		return FamilyIPv4
	default:
		return FamilyIPv6
	}
}
