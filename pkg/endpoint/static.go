package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrEmptyAddress is returned for an empty static address.
var ErrEmptyAddress = errors.New("empty address")

// Static is a Provider for a fixed hostname or IP address.
type Static struct {
	identity string
	endpoint Endpoint
}

// NewStatic parses "host", "host:port", "ip", "ip:port" or "[ipv6]:port".
// A missing port is left as the 0 placeholder.
func NewStatic(address string) (*Static, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}

	host, port := address, uint16(0)
	if h, p, err := net.SplitHostPort(address); err == nil {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid port in %q: %w", address, err)
		}
		host, port = h, uint16(n)
	} else {
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	if host == "" {
		return nil, ErrEmptyAddress
	}

	ep := Endpoint{Host: host, Port: port}
	if ip := net.ParseIP(host); ip != nil {
		ep.Family = familyOf(ip)
	}

	return &Static{identity: address, endpoint: ep}, nil
}

// NewStaticEndpoint returns a Provider that always yields ep.
func NewStaticEndpoint(ep Endpoint) *Static {
	return &Static{identity: ep.String(), endpoint: ep}
}

// Resolve returns the fixed endpoint.
func (s *Static) Resolve(context.Context) (*Endpoint, error) {
	ep := s.endpoint
	return &ep, nil
}

// Identity returns the configured address.
func (s *Static) Identity() string {
	return s.identity
}

// Compile-time interface satisfaction check.
var _ Provider = (*Static)(nil)
