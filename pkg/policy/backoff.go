package policy

import (
	"math/rand"
	"time"
)

// Backoff defaults.
const (
	// InitialBackoff is the delay before the first backed-off retry.
	InitialBackoff = 100 * time.Millisecond

	// MaxBackoff caps the delay.
	MaxBackoff = 5 * time.Second

	// BackoffMultiplier is the growth factor per attempt.
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum jitter as a fraction of the delay.
	JitterFactor = 0.25
)

// BackoffConfig configures exponential backoff.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// DefaultBackoffConfig returns the default backoff configuration.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    InitialBackoff,
		Max:        MaxBackoff,
		Multiplier: BackoffMultiplier,
		Jitter:     JitterFactor,
	}
}

func (c BackoffConfig) withDefaults() BackoffConfig {
	if c.Initial <= 0 {
		c.Initial = InitialBackoff
	}
	if c.Max <= 0 {
		c.Max = MaxBackoff
	}
	if c.Multiplier <= 1 {
		c.Multiplier = BackoffMultiplier
	}
	if c.Jitter < 0 {
		c.Jitter = 0
	}
	return c
}

// Delay returns the base delay (without jitter) for attempt.
func (c BackoffConfig) Delay(attempt int) time.Duration {
	c = c.withDefaults()
	d := c.Initial
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * c.Multiplier)
		if d >= c.Max {
			return c.Max
		}
	}
	return d
}

func (c BackoffConfig) jittered(attempt int) time.Duration {
	d := c.Delay(attempt)
	if c.Jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*c.Jitter*rand.Float64())
}

type backoffPolicy struct {
	base   Policy
	config BackoffConfig
}

// WithBackoff decorates base: retrying directives that carry no RetryAfter
// wait an exponentially growing, jittered delay instead of retrying at
// once. Throw and explicit delays pass through unchanged.
func WithBackoff(base Policy, config BackoffConfig) Policy {
	return &backoffPolicy{base: base, config: config.withDefaults()}
}

func (p *backoffPolicy) Classify(err error, attempt int, dev DeviceContext) Directive {
	d := p.base.Classify(err, attempt, dev)
	if d.ShouldRetry && d.RetryAfter == 0 {
		d.RetryAfter = p.config.jittered(attempt)
	}
	return d
}

// Compile-time interface satisfaction check.
var _ Policy = (*backoffPolicy)(nil)
