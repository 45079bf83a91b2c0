package policy

import (
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/fault"
)

// Default policy parameters.
const (
	// DefaultIncompleteRetries is how many extra attempts an incomplete
	// response gets.
	DefaultIncompleteRetries = 2

	// DefaultIncompleteDelay is the pause before retrying an incomplete
	// response.
	DefaultIncompleteDelay = 200 * time.Millisecond
)

// DefaultConfig configures the reference policy.
type DefaultConfig struct {
	// IncompleteRetries is the number of extra attempts for incomplete
	// responses (default: 2).
	IncompleteRetries int

	// IncompleteDelay is the delay before each of them (default: 200ms).
	IncompleteDelay time.Duration
}

// DefaultPolicy is the reference policy:
//
//   - cancellation: Throw
//   - unreachable (refused, host/network unreachable, connect timeout):
//     RetryAfterResolveEndpoint on attempt 0, then Throw
//   - disconnected: RetryAfterReconnect on attempt 0, then Throw
//   - authentication (HTTP variant session expiry): RetryAfterReconnect on
//     attempt 0, then Throw
//   - incomplete response: RetryAfterReconnect after IncompleteDelay while
//     attempt < IncompleteRetries, then Throw
//   - anything else, including device errors and unresolved endpoints:
//     Throw
type DefaultPolicy struct {
	config DefaultConfig
}

// Default returns the reference policy with default parameters.
func Default() *DefaultPolicy {
	return NewDefault(DefaultConfig{})
}

// NewDefault returns the reference policy. Zero config fields take their
// defaults.
func NewDefault(config DefaultConfig) *DefaultPolicy {
	if config.IncompleteRetries <= 0 {
		config.IncompleteRetries = DefaultIncompleteRetries
	}
	if config.IncompleteDelay <= 0 {
		config.IncompleteDelay = DefaultIncompleteDelay
	}
	return &DefaultPolicy{config: config}
}

// Classify implements Policy.
func (p *DefaultPolicy) Classify(err error, attempt int, _ DeviceContext) Directive {
	switch {
	case err == nil, fault.IsCancellation(err):
		return Throw
	case fault.IsUnreachable(err):
		return firstOnly(attempt, RetryAfterResolveEndpoint)
	case fault.IsDisconnected(err), fault.IsPeerReset(err):
		return firstOnly(attempt, RetryAfterReconnect)
	case fault.IsAuthentication(err):
		return firstOnly(attempt, RetryAfterReconnect)
	case fault.IsIncomplete(err):
		if attempt < p.config.IncompleteRetries {
			return RetryAfterReconnect.After(p.config.IncompleteDelay)
		}
		return Throw
	default:
		return Throw
	}
}

func firstOnly(attempt int, d Directive) Directive {
	if attempt == 0 {
		return d
	}
	return Throw
}

// Compile-time interface satisfaction check.
var _ Policy = (*DefaultPolicy)(nil)
