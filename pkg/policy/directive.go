package policy

import (
	"strings"
	"time"
)

// Directive tells the request loop what to do after a failed attempt.
// Directives are values; the predefined ones must not be modified.
type Directive struct {
	// ShouldRetry is false for Throw.
	ShouldRetry bool

	// RetryAfter is the delay before the next attempt.
	RetryAfter time.Duration

	// ShouldReconnect discards the transport before retrying.
	ShouldReconnect bool

	// ShouldInvalidateEndpoint invalidates the endpoint provider and
	// re-resolves before retrying.
	ShouldInvalidateEndpoint bool
}

// Predefined directives.
var (
	Throw                     = Directive{}
	Retry                     = Directive{ShouldRetry: true}
	RetryAfterReconnect       = Directive{ShouldRetry: true, ShouldReconnect: true}
	RetryAfterResolveEndpoint = Directive{ShouldRetry: true, ShouldReconnect: true, ShouldInvalidateEndpoint: true}
)

// After returns a copy of d that waits delay before retrying.
func (d Directive) After(delay time.Duration) Directive {
	d.RetryAfter = delay
	return d
}

// Name returns the directive's class: "throw", "retry", "reconnect" or
// "resolve". It ignores RetryAfter and is suitable as a metric label.
func (d Directive) Name() string {
	switch {
	case !d.ShouldRetry:
		return "throw"
	case d.ShouldInvalidateEndpoint:
		return "resolve"
	case d.ShouldReconnect:
		return "reconnect"
	default:
		return "retry"
	}
}

// String returns a compact description, e.g. "retry+reconnect after 200ms".
func (d Directive) String() string {
	if !d.ShouldRetry {
		return "throw"
	}
	var b strings.Builder
	b.WriteString("retry")
	if d.ShouldReconnect {
		b.WriteString("+reconnect")
	}
	if d.ShouldInvalidateEndpoint {
		b.WriteString("+resolve")
	}
	if d.RetryAfter > 0 {
		b.WriteString(" after ")
		b.WriteString(d.RetryAfter.String())
	}
	return b.String()
}
