package transport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/log"
)

// Transport defaults.
const (
	// DefaultPort is the device's TCP port.
	DefaultPort uint16 = 9999

	// DefaultIdleRefresh is how long a connection may sit idle before it is
	// replaced. Devices drop idle connections after about 30s.
	DefaultIdleRefresh = 25 * time.Second

	// DefaultReceiveChunk is the size of a single socket read.
	DefaultReceiveChunk = 4096

	// DefaultSplitTimeout bounds each read once the frame header is known.
	DefaultSplitTimeout = 500 * time.Millisecond

	// DefaultReceiveTimeout bounds the wait for the frame header.
	DefaultReceiveTimeout = 10 * time.Second

	// DefaultConnectTimeout bounds TCP connection establishment.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultMaxMessageSize is the largest frame accepted (1 MiB).
	DefaultMaxMessageSize = 1 << 20

	// MaxLogFrameDataSize is the largest frame copied into a log event.
	// Larger frames are truncated.
	MaxLogFrameDataSize = 4096
)

// Dialer opens network connections. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config configures a Transport.
type Config struct {
	// DefaultPort replaces an endpoint port of 0 (default: 9999).
	DefaultPort uint16

	// IdleRefresh is the idle interval after which the connection is
	// discarded before the next exchange (default: 25s).
	IdleRefresh time.Duration

	// ReceiveChunk is the size of a single socket read (default: 4096).
	ReceiveChunk int

	// SplitTimeout bounds each read after the frame header has arrived
	// (default: 500ms).
	SplitTimeout time.Duration

	// ReceiveTimeout bounds the wait from sending a request until the
	// response header is complete (default: 10s).
	ReceiveTimeout time.Duration

	// ConnectTimeout bounds connection establishment (default: 5s).
	ConnectTimeout time.Duration

	// MaxMessageSize is the largest accepted frame (default: 1 MiB).
	MaxMessageSize int

	// Dialer opens connections (default: &net.Dialer{}).
	Dialer Dialer

	// Now is the clock used for idle tracking (default: time.Now).
	Now func() time.Time

	// DeviceID is stamped on protocol log events.
	DeviceID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives protocol events.
	// If nil, protocol capture is disabled.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() Config {
	return Config{
		DefaultPort:    DefaultPort,
		IdleRefresh:    DefaultIdleRefresh,
		ReceiveChunk:   DefaultReceiveChunk,
		SplitTimeout:   DefaultSplitTimeout,
		ReceiveTimeout: DefaultReceiveTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

func (c *Config) applyDefaults() {
	if c.DefaultPort == 0 {
		c.DefaultPort = DefaultPort
	}
	if c.IdleRefresh <= 0 {
		c.IdleRefresh = DefaultIdleRefresh
	}
	if c.ReceiveChunk <= 0 {
		c.ReceiveChunk = DefaultReceiveChunk
	}
	if c.SplitTimeout <= 0 {
		c.SplitTimeout = DefaultSplitTimeout
	}
	if c.ReceiveTimeout <= 0 {
		c.ReceiveTimeout = DefaultReceiveTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
