package endpoint_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/endpoint/mocks"
	"github.com/kasa-protocol/kasa-go/pkg/fault"
)

var plugMAC = net.HardwareAddr{0x50, 0xc7, 0xbf, 0x01, 0x02, 0x03}

func TestResolve_Static(t *testing.T) {
	p, err := endpoint.NewStatic("192.168.1.20")
	require.NoError(t, err)

	ep, err := endpoint.Resolve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", ep.Host)
	assert.Equal(t, uint16(0), ep.Port)
}

func TestResolve_DynamicFound(t *testing.T) {
	resolver := mocks.NewMockAddressResolver(t)
	profile := endpoint.ScanProfile{Interface: "eth0"}
	resolver.EXPECT().Resolve(mock.Anything, plugMAC, profile).Return(net.ParseIP("192.168.1.23"), nil).Once()

	p := endpoint.NewDynamic(plugMAC, resolver, profile)
	assert.True(t, endpoint.IsDynamic(p))

	ep, err := endpoint.Resolve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, endpoint.Endpoint{Host: "192.168.1.23", Family: endpoint.FamilyIPv4}, ep)
}

func TestResolve_DynamicUnknownInvalidatesOnce(t *testing.T) {
	resolver := mocks.NewMockAddressResolver(t)
	resolver.EXPECT().Resolve(mock.Anything, plugMAC, mock.Anything).Return(nil, nil).Once()
	resolver.EXPECT().Invalidate(plugMAC).Return().Once()

	p := endpoint.NewDynamic(plugMAC, resolver, endpoint.ScanProfile{})

	_, err := endpoint.Resolve(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrUnresolved))

	var resErr *endpoint.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.True(t, resErr.Invalidated)
	assert.Equal(t, "50:c7:bf:01:02:03", resErr.Identity)
}

func TestResolve_ProviderUnknownWithoutInvalidation(t *testing.T) {
	p := mocks.NewMockProvider(t)
	p.EXPECT().Resolve(mock.Anything).Return(nil, nil).Once()
	p.EXPECT().Identity().Return("plug.local")

	_, err := endpoint.Resolve(context.Background(), p)

	var resErr *endpoint.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.False(t, resErr.Invalidated)
}

func TestResolve_ResolverError(t *testing.T) {
	boom := errors.New("neighbor table unreadable")

	resolver := mocks.NewMockAddressResolver(t)
	resolver.EXPECT().Resolve(mock.Anything, plugMAC, mock.Anything).Return(nil, boom).Once()

	p := endpoint.NewDynamic(plugMAC, resolver, endpoint.ScanProfile{})

	_, err := endpoint.Resolve(context.Background(), p)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, fault.ErrUnresolved))
}

func TestResolve_CancelledContext(t *testing.T) {
	p := mocks.NewMockProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := endpoint.Resolve(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDynamicInvalidateForwards(t *testing.T) {
	resolver := mocks.NewMockAddressResolver(t)
	resolver.EXPECT().Invalidate(plugMAC).Return().Once()

	p := endpoint.NewDynamic(plugMAC, resolver, endpoint.ScanProfile{})
	p.Invalidate()
}

func TestParseDynamic(t *testing.T) {
	resolver := mocks.NewMockAddressResolver(t)

	p, err := endpoint.ParseDynamic("50-C7-BF-01-02-03", resolver, endpoint.ScanProfile{})
	require.NoError(t, err)
	assert.Equal(t, plugMAC, p.HardwareAddr())
	assert.Equal(t, "50:c7:bf:01:02:03", p.Identity())

	_, err = endpoint.ParseDynamic("not-a-mac", resolver, endpoint.ScanProfile{})
	assert.Error(t, err)
}
