package policy

// DeviceContext describes the device a failed attempt was addressed to.
type DeviceContext struct {
	// Identity is the configured device address (hostname, IP or MAC).
	Identity string

	// Endpoint is the resolved host:port, empty if resolution failed.
	Endpoint string

	// Dynamic reports whether the endpoint provider supports invalidation.
	Dynamic bool

	// Module and Method identify the request.
	Module string
	Method string
}

// Policy classifies a failed attempt. attempt is zero-based.
//
// Implementations must be pure: the same inputs give the same directive
// (up to jitter). A policy must eventually return Throw for every error.
type Policy interface {
	Classify(err error, attempt int, dev DeviceContext) Directive
}

// Func adapts a function to Policy.
type Func func(err error, attempt int, dev DeviceContext) Directive

// Classify calls f.
func (f Func) Classify(err error, attempt int, dev DeviceContext) Directive {
	return f(err, attempt, dev)
}

// Rule handles a subset of errors. ok=false passes the error on.
type Rule func(err error, attempt int, dev DeviceContext) (d Directive, ok bool)

type chain struct {
	rules    []Rule
	fallback Policy
}

// Chain returns a policy that applies rules in order and delegates errors
// no rule handles to fallback. A nil fallback means Default().
func Chain(fallback Policy, rules ...Rule) Policy {
	if fallback == nil {
		fallback = Default()
	}
	return &chain{rules: rules, fallback: fallback}
}

func (c *chain) Classify(err error, attempt int, dev DeviceContext) Directive {
	for _, r := range c.rules {
		if d, ok := r(err, attempt, dev); ok {
			return d
		}
	}
	return c.fallback.Classify(err, attempt, dev)
}

// Compile-time interface satisfaction checks.
var (
	_ Policy = Func(nil)
	_ Policy = (*chain)(nil)
)
