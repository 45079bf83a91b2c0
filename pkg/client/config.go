package client

import (
	"log/slog"

	"github.com/kasa-protocol/kasa-go/pkg/log"
	"github.com/kasa-protocol/kasa-go/pkg/policy"
	"github.com/kasa-protocol/kasa-go/pkg/transport"
)

// DefaultMaxAttempts is the attempt budget of one request.
const DefaultMaxAttempts = 5

// Config configures a Client.
type Config struct {
	// Policy classifies failed attempts (default: policy.Default()).
	Policy policy.Policy

	// MaxAttempts bounds the attempts per request (default: 5).
	MaxAttempts int

	// Factory creates exchangers. If nil, TCP transports are created from
	// Transport.
	Factory ExchangerFactory

	// Transport configures the default TCP transports. Its DeviceID,
	// Logger and ProtocolLogger default to the client's.
	Transport transport.Config

	// DeviceID is stamped on protocol log events.
	DeviceID string

	// Metrics receives request counters. If nil, metrics are disabled.
	Metrics *Metrics

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives attempt events.
	// If nil, protocol capture is disabled.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Policy:      policy.Default(),
		MaxAttempts: DefaultMaxAttempts,
		Transport:   transport.DefaultConfig(),
	}
}

func (c *Config) applyDefaults() {
	if c.Policy == nil {
		c.Policy = policy.Default()
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Factory == nil {
		tc := c.Transport
		if tc.DeviceID == "" {
			tc.DeviceID = c.DeviceID
		}
		if tc.Logger == nil {
			tc.Logger = c.Logger
		}
		if tc.ProtocolLogger == nil {
			tc.ProtocolLogger = c.ProtocolLogger
		}
		c.Factory = TransportFactory(tc)
	}
}
