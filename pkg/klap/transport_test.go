package klap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasa-protocol/kasa-go/pkg/client"
	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/fault"
	"github.com/kasa-protocol/kasa-go/pkg/transport"
	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

var owner = Credentials{Username: "owner@example.com", Password: "hunter2"}

type sysInfo struct {
	Alias      string    `json:"alias"`
	RelayState wire.Bool `json:"relay_state"`
}

func TestSendReceive(t *testing.T) {
	dev := newFakeDevice(t, owner)
	dev.setResult("system", "get_sysinfo", `{"alias":"Lamp","relay_state":1,"err_code":0}`)

	tr := New(dev.endpoint(), Config{Credentials: owner})
	defer tr.Close()

	for i := 0; i < 3; i++ {
		v, err := tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, wire.Into[sysInfo]())
		require.NoError(t, err)
		info := v.(sysInfo)
		assert.Equal(t, "Lamp", info.Alias)
		assert.True(t, bool(info.RelayState))
	}

	handshakes, requests := dev.counts()
	assert.Equal(t, 1, handshakes)
	assert.Equal(t, 3, requests)
	assert.NotEmpty(t, tr.SessionID())
}

func TestSendReceive_RawResult(t *testing.T) {
	dev := newFakeDevice(t, owner)
	dev.setResult("system", "set_relay_state", `{"err_code":0}`)

	tr := New(dev.endpoint(), Config{Credentials: owner})
	defer tr.Close()

	v, err := tr.SendReceive(context.Background(), "system", "set_relay_state", map[string]any{"state": wire.Bool(true)}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"err_code":0}`, string(v.(json.RawMessage)))
}

func TestSendReceive_WrongCredentials(t *testing.T) {
	dev := newFakeDevice(t, owner)

	tr := New(dev.endpoint(), Config{Credentials: Credentials{Username: owner.Username, Password: "wrong"}})
	defer tr.Close()

	_, err := tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, StageHandshake1, authErr.Stage)
	assert.ErrorIs(t, err, ErrServerHash)
	assert.True(t, fault.IsAuthentication(err))
	assert.Empty(t, tr.SessionID())
}

func TestSendReceive_SessionRejected(t *testing.T) {
	dev := newFakeDevice(t, owner)
	dev.setResult("system", "get_sysinfo", `{"alias":"Lamp","err_code":0}`)
	dev.rejectRequests(1)

	tr := New(dev.endpoint(), Config{Credentials: owner})
	defer tr.Close()

	_, err := tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, StageRequest, authErr.Stage)
	assert.Equal(t, http.StatusForbidden, authErr.Status)
	assert.Empty(t, tr.SessionID())

	_, err = tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)
	require.NoError(t, err)

	handshakes, _ := dev.counts()
	assert.Equal(t, 2, handshakes)
}

func TestSendReceive_SessionExpiry(t *testing.T) {
	dev := newFakeDevice(t, owner)
	dev.setResult("system", "get_sysinfo", `{"err_code":0}`)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := New(dev.endpoint(), Config{Credentials: owner, Now: func() time.Time { return now }})
	defer tr.Close()

	_, err := tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)
	require.NoError(t, err)

	now = now.Add(DefaultSessionTimeout - SessionExpiryMargin - time.Minute)
	_, err = tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)
	require.NoError(t, err)
	handshakes, _ := dev.counts()
	assert.Equal(t, 1, handshakes)

	now = now.Add(2 * time.Minute)
	_, err = tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)
	require.NoError(t, err)
	handshakes, _ = dev.counts()
	assert.Equal(t, 2, handshakes)
}

func TestSendReceive_DeviceError(t *testing.T) {
	dev := newFakeDevice(t, owner)
	dev.setResult("emeter", "get_realtime", `{"err_code":-1,"err_msg":"module not support"}`)

	tr := New(dev.endpoint(), Config{Credentials: owner})
	defer tr.Close()

	_, err := tr.SendReceive(context.Background(), "emeter", "get_realtime", nil, nil)

	var devErr *transport.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, wire.ErrorCodeModuleNotSupported, devErr.Code)
	assert.Equal(t, "module not support", devErr.Message)
	assert.NotEmpty(t, tr.SessionID(), "device errors keep the session")
}

func TestSendReceive_Unreachable(t *testing.T) {
	dev := newFakeDevice(t, owner)
	ep := dev.endpoint()
	dev.server.Close()

	tr := New(ep, Config{Credentials: owner})
	defer tr.Close()

	_, err := tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)
	require.Error(t, err)
	assert.True(t, fault.IsUnreachable(err), "got %v", err)
}

func TestSendReceive_Cancelled(t *testing.T) {
	dev := newFakeDevice(t, owner)

	tr := New(dev.endpoint(), Config{Credentials: owner})
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.SendReceive(ctx, "system", "get_sysinfo", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)

	handshakes, requests := dev.counts()
	assert.Zero(t, handshakes)
	assert.Zero(t, requests)
}

func TestClose(t *testing.T) {
	dev := newFakeDevice(t, owner)
	dev.setResult("system", "get_sysinfo", `{"err_code":0}`)

	tr := New(dev.endpoint(), Config{Credentials: owner})
	_, err := tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, err = tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, nil)
	assert.ErrorIs(t, err, transport.ErrDisposed)
}

func TestClientReauthenticatesAfterRejection(t *testing.T) {
	dev := newFakeDevice(t, owner)
	dev.setResult("system", "get_sysinfo", `{"alias":"Lamp","relay_state":0,"err_code":0}`)

	c := client.New(endpoint.NewStaticEndpoint(dev.endpoint()), client.Config{
		Factory: func(ep endpoint.Endpoint) (client.Exchanger, error) {
			return New(ep, Config{Credentials: owner}), nil
		},
	})
	defer c.Close()

	_, err := client.Call[sysInfo](context.Background(), c, "system", "get_sysinfo", nil)
	require.NoError(t, err)

	dev.rejectRequests(1)
	info, err := client.Call[sysInfo](context.Background(), c, "system", "get_sysinfo", nil)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", info.Alias)
	assert.False(t, bool(info.RelayState))

	handshakes, _ := dev.counts()
	assert.Equal(t, 2, handshakes)
}

func TestSessionSealOpen(t *testing.T) {
	local := bytes.Repeat([]byte{1}, SeedSize)
	remote := bytes.Repeat([]byte{2}, SeedSize)
	auth := AuthHash(owner)

	s := newSession(local, remote, auth)
	start := s.seq

	tests := [][]byte{
		[]byte(`{"system":{"get_sysinfo":{}}}`),
		{},
		bytes.Repeat([]byte("x"), 16),
		bytes.Repeat([]byte("y"), 1000),
	}
	for i, plain := range tests {
		seq, body, err := s.encrypt(plain)
		require.NoError(t, err)
		assert.Equal(t, start+int32(i)+1, seq)
		assert.True(t, s.verify(seq, body))
		assert.Zero(t, (len(body)-signatureSize)%16)

		got, err := s.open(seq, body)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestSessionOpenRejectsGarbage(t *testing.T) {
	s := newSession(make([]byte, SeedSize), make([]byte, SeedSize), AuthHash(Credentials{}))

	_, err := s.open(1, make([]byte, 10))
	assert.Error(t, err)

	_, err = s.open(1, make([]byte, signatureSize+15))
	assert.Error(t, err)

	// A tampered signature is caught by verify.
	_, body, err := s.encrypt([]byte("hello"))
	require.NoError(t, err)
	body[0] ^= 0xff
	assert.False(t, s.verify(s.seq, body))
}

func TestSessionKeysDependOnSeeds(t *testing.T) {
	auth := AuthHash(owner)
	a := newSession(bytes.Repeat([]byte{1}, SeedSize), bytes.Repeat([]byte{2}, SeedSize), auth)
	b := newSession(bytes.Repeat([]byte{2}, SeedSize), bytes.Repeat([]byte{1}, SeedSize), auth)

	assert.NotEqual(t, a.key, b.key)
	assert.Len(t, a.key, 16)
	assert.Len(t, a.ivBase, 12)
	assert.Len(t, a.sig, 28)
}

func TestPKCS7(t *testing.T) {
	for n := 0; n <= 32; n++ {
		data := bytes.Repeat([]byte{0xab}, n)
		padded := pkcs7Pad(data, 16)
		assert.Zero(t, len(padded)%16)
		assert.Greater(t, len(padded), n)

		got, err := pkcs7Unpad(padded, 16)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}

	_, err := pkcs7Unpad(bytes.Repeat([]byte{0}, 16), 16)
	assert.Error(t, err)
	_, err = pkcs7Unpad(append(bytes.Repeat([]byte{1}, 15), 3), 16)
	assert.Error(t, err)
}

func TestSessionCookie(t *testing.T) {
	tests := []struct {
		name    string
		cookies []*http.Cookie
		id      string
		timeout time.Duration
	}{
		{"attribute", []*http.Cookie{{Name: SessionCookieName, Value: "abc", Unparsed: []string{"TIMEOUT=3600"}}}, "abc", time.Hour},
		{"separate", []*http.Cookie{{Name: SessionCookieName, Value: "abc"}, {Name: TimeoutCookieName, Value: "60"}}, "abc", time.Minute},
		{"missing timeout", []*http.Cookie{{Name: SessionCookieName, Value: "abc"}}, "abc", DefaultSessionTimeout},
		{"invalid timeout", []*http.Cookie{{Name: SessionCookieName, Value: "abc"}, {Name: TimeoutCookieName, Value: "soon"}}, "abc", DefaultSessionTimeout},
		{"none", nil, "", DefaultSessionTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, timeout := sessionCookie(tt.cookies)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.timeout, timeout)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, "authentication", fault.KindOf(&AuthenticationError{Stage: StageRequest}))
	assert.Equal(t, "unexpected", fault.KindOf(&StatusError{Status: 500}))
	assert.Equal(t, "disconnected", fault.KindOf(&TimeoutError{Timeout: time.Second}))
	assert.True(t, errors.Is(&AuthenticationError{Err: ErrSessionRejected}, ErrSessionRejected))
}
