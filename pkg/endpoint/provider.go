package endpoint

import (
	"context"
	"fmt"

	"github.com/kasa-protocol/kasa-go/pkg/fault"
)

// Provider resolves a device identity to an endpoint.
type Provider interface {
	// Resolve returns the current endpoint, or nil if none is known.
	// Errors are reserved for resolver malfunctions.
	Resolve(ctx context.Context) (*Endpoint, error)

	// Identity returns the address the provider was configured with.
	Identity() string
}

// Invalidator is implemented by providers whose mapping can go stale.
type Invalidator interface {
	// Invalidate drops any cached mapping so the next Resolve starts fresh.
	Invalidate()
}

// ResolutionError is returned when a provider knows no endpoint.
type ResolutionError struct {
	// Identity is the unresolved device identity.
	Identity string

	// Invalidated reports whether the provider was invalidated before the
	// error was surfaced.
	Invalidated bool
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no endpoint known for %s", e.Identity)
}

// Is reports the error as fault.ErrUnresolved.
func (e *ResolutionError) Is(target error) bool {
	return target == fault.ErrUnresolved
}

// IsDynamic reports whether p supports invalidation.
func IsDynamic(p Provider) bool {
	_, ok := p.(Invalidator)
	return ok
}

// Resolve resolves p, converting an unresolved result into a
// *ResolutionError. Dynamic providers are invalidated before that error is
// returned.
func Resolve(ctx context.Context, p Provider) (Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return Endpoint{}, err
	}

	ep, err := p.Resolve(ctx)
	if err != nil {
		return Endpoint{}, fmt.Errorf("resolve %s: %w", p.Identity(), err)
	}
	if ep != nil {
		return *ep, nil
	}

	resErr := &ResolutionError{Identity: p.Identity()}
	if inv, ok := p.(Invalidator); ok {
		inv.Invalidate()
		resErr.Invalidated = true
	}
	return Endpoint{}, resErr
}
