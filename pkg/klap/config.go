package klap

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/log"
)

// Transport defaults.
const (
	// DefaultPort is the device's HTTP port.
	DefaultPort uint16 = 80

	// DefaultTimeout bounds one HTTP round trip.
	DefaultTimeout = 5 * time.Second

	// DefaultSessionTimeout is assumed when the device sends no TIMEOUT
	// cookie.
	DefaultSessionTimeout = 24 * time.Hour

	// SessionExpiryMargin is subtracted from the session timeout so a
	// session is renewed before the device expires it.
	SessionExpiryMargin = 20 * time.Minute
)

// Credentials authenticate against the device's cloud account hash.
type Credentials struct {
	Username string
	Password string
}

// Config configures a Transport.
type Config struct {
	// DefaultPort replaces an endpoint port of 0 (default: 80).
	DefaultPort uint16

	// Credentials are the device owner's account credentials. Devices that
	// were never bound to an account accept empty ones.
	Credentials Credentials

	// Timeout bounds each HTTP round trip (default: 5s). Ignored when
	// HTTPClient is set.
	Timeout time.Duration

	// HTTPClient sends the requests. If nil, a client owned by the
	// Transport is created and its idle connections are closed on Close.
	HTTPClient *http.Client

	// Now is the clock used for session expiry (default: time.Now).
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

// DefaultConfig returns the default configuration without credentials.
func DefaultConfig() Config {
	return Config{
		DefaultPort: DefaultPort,
		Timeout:     DefaultTimeout,
	}
}

func (c *Config) applyDefaults() (ownsClient bool) {
	if c.DefaultPort == 0 {
		c.DefaultPort = DefaultPort
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
		return true
	}
	return false
}
