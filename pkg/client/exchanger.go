package client

import (
	"context"

	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/transport"
	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

// Exchanger performs single request/response exchanges with one endpoint.
// It never retries; failures are classified by the caller's policy.
type Exchanger interface {
	// SendReceive sends module.method with params and returns the
	// projected result.
	SendReceive(ctx context.Context, module, method string, params any, project wire.Projection) (any, error)

	// Endpoint returns the endpoint the exchanger is bound to.
	Endpoint() endpoint.Endpoint

	// Close disposes the exchanger. It must be idempotent.
	Close() error
}

// ExchangerFactory creates an exchanger bound to ep.
type ExchangerFactory func(ep endpoint.Endpoint) (Exchanger, error)

// TransportFactory returns a factory creating TCP transports with config.
func TransportFactory(config transport.Config) ExchangerFactory {
	return func(ep endpoint.Endpoint) (Exchanger, error) {
		return transport.New(ep, config), nil
	}
}

// Compile-time interface satisfaction check.
var _ Exchanger = (*transport.Transport)(nil)
