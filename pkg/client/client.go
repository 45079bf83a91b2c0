package client

import (
	"context"
	"fmt"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/fault"
	"github.com/kasa-protocol/kasa-go/pkg/log"
	"github.com/kasa-protocol/kasa-go/pkg/policy"
	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

// Client sends requests to one device, retrying failed attempts as its
// policy directs.
type Client struct {
	config   Config
	provider endpoint.Provider

	exchanger Exchanger
	created   int
	closed    bool

	// last is the most recently resolved endpoint, kept to report moves.
	last    endpoint.Endpoint
	hasLast bool
}

// New creates a client for the device behind provider. Nothing is resolved
// or dialed until the first request.
func New(provider endpoint.Provider, config Config) *Client {
	config.applyDefaults()
	return &Client{
		config:   config,
		provider: provider,
	}
}

// Provider returns the client's endpoint provider.
func (c *Client) Provider() endpoint.Provider {
	return c.provider
}

// request is the state of one logical request across its attempts.
type request struct {
	module  string
	method  string
	params  any
	project wire.Projection

	endpoint endpoint.Endpoint
	resolved bool
}

// Request sends module.method with params and returns the projected
// result. A nil project returns the raw result as json.RawMessage.
//
// The returned error is the one the policy chose to throw, unchanged, or
// ErrAttemptsExhausted wrapping the last error if the policy never threw.
func (c *Client) Request(ctx context.Context, module, method string, params any, project wire.Projection) (any, error) {
	if c.closed {
		return nil, ErrClosed
	}

	req := &request{module: module, method: method, params: params, project: project}

	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		c.config.Metrics.attempt()

		v, err := c.try(ctx, req)
		if err == nil {
			c.logAttempt(req, attempt, nil, "")
			c.config.Metrics.request(OutcomeSuccess)
			return v, nil
		}
		lastErr = err

		d := c.config.Policy.Classify(err, attempt, c.deviceContext(req))
		if d.ShouldInvalidateEndpoint && !endpoint.IsDynamic(c.provider) {
			d = policy.Throw
		}
		c.config.Metrics.directive(d)
		c.logAttempt(req, attempt, err, d.String())
		c.debugLog("attempt failed",
			"device", c.provider.Identity(),
			"request", module+"."+method,
			"attempt", attempt,
			"kind", fault.KindOf(err),
			"directive", d.String(),
			"error", err)

		if !d.ShouldRetry {
			c.discard("throw")
			c.config.Metrics.request(outcomeOf(err))
			return nil, err
		}
		if d.ShouldReconnect {
			c.discard("reconnect")
		}
		if d.ShouldInvalidateEndpoint {
			c.provider.(endpoint.Invalidator).Invalidate()
			req.resolved = false
		}
		if d.RetryAfter > 0 && attempt < c.config.MaxAttempts-1 {
			if err := contextSleep(ctx, d.RetryAfter); err != nil {
				c.config.Metrics.request(OutcomeCancelled)
				return nil, err
			}
		}
	}

	c.discard("attempts exhausted")
	c.config.Metrics.request(OutcomeExhausted)
	return nil, fmt.Errorf("%s.%s after %d attempts: %w: %w",
		module, method, c.config.MaxAttempts, ErrAttemptsExhausted, lastErr)
}

// try runs one attempt: resolve if needed, bind an exchanger to the
// endpoint, exchange.
func (c *Client) try(ctx context.Context, req *request) (any, error) {
	if !req.resolved {
		ep, err := endpoint.Resolve(ctx, c.provider)
		if err != nil {
			return nil, err
		}
		req.endpoint = ep
		req.resolved = true

		if c.hasLast && c.last != ep {
			c.logEndpointMoved(c.last, ep)
		}
		c.last, c.hasLast = ep, true
	}

	if c.exchanger != nil && c.exchanger.Endpoint() != req.endpoint {
		c.discard("endpoint changed")
	}
	if c.exchanger == nil {
		ex, err := c.config.Factory(req.endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create exchanger for %s: %w", req.endpoint, err)
		}
		if c.created > 0 {
			c.config.Metrics.recreation()
		}
		c.created++
		c.exchanger = ex
	}

	return c.exchanger.SendReceive(ctx, req.module, req.method, req.params, req.project)
}

// Close disposes the current exchanger. Later requests return ErrClosed.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	if c.exchanger == nil {
		return nil
	}
	err := c.exchanger.Close()
	c.exchanger = nil
	return err
}

// discard disposes the current exchanger, if any.
func (c *Client) discard(reason string) {
	if c.exchanger == nil {
		return
	}
	if err := c.exchanger.Close(); err != nil {
		c.debugLog("exchanger close failed", "device", c.provider.Identity(), "error", err)
	}
	c.exchanger = nil
	c.debugLog("exchanger discarded", "device", c.provider.Identity(), "reason", reason)
}

func (c *Client) deviceContext(req *request) policy.DeviceContext {
	dev := policy.DeviceContext{
		Identity: c.provider.Identity(),
		Dynamic:  endpoint.IsDynamic(c.provider),
		Module:   req.module,
		Method:   req.method,
	}
	if req.resolved {
		dev.Endpoint = req.endpoint.String()
	}
	return dev
}

func outcomeOf(err error) string {
	if fault.IsCancellation(err) {
		return OutcomeCancelled
	}
	return OutcomeError
}

// contextSleep waits for d or until ctx is done, whichever comes first.
func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) debugLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}

func (c *Client) logAttempt(req *request, attempt int, err error, directive string) {
	if c.config.ProtocolLogger == nil {
		return
	}
	ev := &log.AttemptEvent{
		Index:     attempt,
		Module:    req.module,
		Method:    req.method,
		Kind:      fault.KindOf(err),
		Directive: directive,
	}
	if err != nil {
		ev.Error = err.Error()
	}

	e := log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerClient,
		Category:  log.CategoryAttempt,
		DeviceID:  c.config.DeviceID,
		Attempt:   ev,
	}
	if req.resolved {
		e.RemoteAddr = req.endpoint.String()
	}
	c.config.ProtocolLogger.Log(e)
}

func (c *Client) logEndpointMoved(from, to endpoint.Endpoint) {
	c.debugLog("endpoint moved", "device", c.provider.Identity(), "from", from.String(), "to", to.String())
	if c.config.ProtocolLogger == nil {
		return
	}
	c.config.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerClient,
		Category:  log.CategoryState,
		DeviceID:  c.config.DeviceID,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityEndpoint,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   "resolved",
		},
	})
}

// Call sends module.method and decodes the result into T.
func Call[T any](ctx context.Context, c *Client, module, method string, params any) (T, error) {
	var zero T
	v, err := c.Request(ctx, module, method, params, wire.Into[T]())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
