package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kasa-protocol/kasa-go/internal/mock"
	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/fault"
	"github.com/kasa-protocol/kasa-go/pkg/log"
	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

var sysinfo = map[string]any{"err_code": 0, "alias": "Lamp", "relay_state": 1}

func newDevice(t *testing.T) *mock.Device {
	t.Helper()
	d, err := mock.NewDevice()
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	d.SetResult("system", "get_sysinfo", sysinfo)
	return d
}

func newTransport(t *testing.T, d *mock.Device, config Config) *Transport {
	t.Helper()
	tr := New(d.Endpoint(), config)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func getSysinfo(tr *Transport, ctx context.Context) (any, error) {
	return tr.SendReceive(ctx, "system", "get_sysinfo", map[string]any{}, nil)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSendReceiveSuccess(t *testing.T) {
	d := newDevice(t)
	tr := newTransport(t, d, Config{})

	if tr.State() != StateDisconnected {
		t.Errorf("initial State() = %v, want DISCONNECTED", tr.State())
	}

	v, err := getSysinfo(tr, context.Background())
	if err != nil {
		t.Fatalf("SendReceive failed: %v", err)
	}

	raw, ok := v.(json.RawMessage)
	if !ok {
		t.Fatalf("result type = %T, want json.RawMessage", v)
	}
	var info struct {
		Alias string `json:"alias"`
	}
	if err := json.Unmarshal(raw, &info); err != nil || info.Alias != "Lamp" {
		t.Errorf("result = %s (%v)", raw, err)
	}

	if tr.State() != StateConnected {
		t.Errorf("State() = %v, want CONNECTED", tr.State())
	}
	if tr.ConnectionID() == "" {
		t.Error("ConnectionID() is empty while connected")
	}
	if tr.buf.Len() != 0 {
		t.Errorf("buffer holds %d bytes after success", tr.buf.Len())
	}
}

func TestSendReceiveReusesConnection(t *testing.T) {
	d := newDevice(t)
	tr := newTransport(t, d, Config{})

	for i := 0; i < 3; i++ {
		if _, err := getSysinfo(tr, context.Background()); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	if d.Connections() != 1 {
		t.Errorf("Connections() = %d, want 1", d.Connections())
	}
}

func TestSendReceiveIdleRefresh(t *testing.T) {
	d := newDevice(t)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := newTransport(t, d, Config{Now: clock.Now, IdleRefresh: 25 * time.Second})

	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	clock.Advance(10 * time.Second)
	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if d.Connections() != 1 {
		t.Fatalf("Connections() = %d before idle expiry, want 1", d.Connections())
	}

	clock.Advance(26 * time.Second)
	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Fatalf("call after idle expiry failed: %v", err)
	}
	if d.Connections() != 2 {
		t.Errorf("Connections() = %d after idle expiry, want 2", d.Connections())
	}
}

func TestSendReceivePeerDropIsDisconnected(t *testing.T) {
	d := newDevice(t)
	tr := newTransport(t, d, Config{})

	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	d.DropConnections()
	time.Sleep(50 * time.Millisecond)

	_, err := getSysinfo(tr, context.Background())
	if !errors.Is(err, fault.ErrDisconnected) {
		t.Fatalf("error = %v, want kind disconnected", err)
	}
	var discErr *DisconnectedError
	if !errors.As(err, &discErr) {
		t.Errorf("error type = %T, want *DisconnectedError", err)
	}
	if tr.State() != StateDisconnected {
		t.Errorf("State() = %v, want DISCONNECTED", tr.State())
	}

	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Errorf("call after reconnect failed: %v", err)
	}
}

func TestSendReceiveDropBeforeAnswer(t *testing.T) {
	d := newDevice(t)
	d.Script(mock.ActionDrop)
	tr := newTransport(t, d, Config{})

	_, err := getSysinfo(tr, context.Background())
	if !errors.Is(err, fault.ErrDisconnected) {
		t.Errorf("error = %v, want kind disconnected", err)
	}
}

func TestSendReceiveSplitWithinTimeout(t *testing.T) {
	d := newDevice(t)
	d.SplitDelay = 50 * time.Millisecond
	d.Script(mock.ActionSplit)
	tr := newTransport(t, d, Config{SplitTimeout: time.Second})

	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Fatalf("split response failed: %v", err)
	}
}

func TestSendReceiveSplitTimeoutIsIncomplete(t *testing.T) {
	d := newDevice(t)
	d.SplitDelay = time.Second
	d.Script(mock.ActionSplit)
	tr := newTransport(t, d, Config{SplitTimeout: 50 * time.Millisecond})

	_, err := getSysinfo(tr, context.Background())
	if !errors.Is(err, fault.ErrIncomplete) {
		t.Fatalf("error = %v, want kind incomplete", err)
	}
	var bodyErr *wire.BodyTooShortError
	if !errors.As(err, &bodyErr) {
		t.Errorf("error does not wrap *wire.BodyTooShortError: %v", err)
	}
	if tr.State() != StateDisconnected {
		t.Errorf("State() = %v after incomplete response, want DISCONNECTED", tr.State())
	}
	if tr.buf.Len() != 0 {
		t.Errorf("buffer holds %d bytes after error", tr.buf.Len())
	}
}

func TestSendReceiveCancelDuringSplitWait(t *testing.T) {
	d := newDevice(t)
	d.Script(mock.ActionTruncate)
	tr := newTransport(t, d, Config{SplitTimeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := getSysinfo(tr, ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if errors.Is(err, fault.ErrIncomplete) {
		t.Error("cancellation reported as incomplete response")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation did not interrupt the receive")
	}
	if tr.buf.Len() != 0 {
		t.Errorf("buffer holds %d bytes after cancellation", tr.buf.Len())
	}
}

func TestSendReceiveSilentDeviceTimesOut(t *testing.T) {
	d := newDevice(t)
	d.Script(mock.ActionStall)
	tr := newTransport(t, d, Config{ReceiveTimeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := getSysinfo(tr, context.Background())

	var timeoutErr *ReceiveTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %v, want *ReceiveTimeoutError", err)
	}
	if timeoutErr.Module != "system" || timeoutErr.Method != "get_sysinfo" || timeoutErr.Received != 0 {
		t.Errorf("ReceiveTimeoutError = %+v", timeoutErr)
	}
	if !errors.Is(err, fault.ErrIncomplete) || fault.IsCancellation(err) {
		t.Errorf("KindOf = %q, want incomplete", fault.KindOf(err))
	}
	if time.Since(start) > 2*time.Second {
		t.Error("receive timeout did not bound the wait")
	}
	if tr.State() != StateDisconnected {
		t.Errorf("State() = %v after receive timeout, want DISCONNECTED", tr.State())
	}

	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Errorf("call after receive timeout failed: %v", err)
	}
}

func TestSendReceiveOversizedFrame(t *testing.T) {
	d := newDevice(t)
	tr := newTransport(t, d, Config{MaxMessageSize: 16})

	_, err := getSysinfo(tr, context.Background())

	var unexpected *UnexpectedResponseError
	if !errors.As(err, &unexpected) {
		t.Fatalf("error = %v, want *UnexpectedResponseError", err)
	}
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("error does not wrap ErrMessageTooLarge: %v", err)
	}
	if unexpected.Module != "system" || unexpected.Method != "get_sysinfo" || unexpected.Endpoint != d.Address() {
		t.Errorf("UnexpectedResponseError = %+v", unexpected)
	}
	if tr.State() != StateDisconnected {
		t.Errorf("State() = %v after oversized frame, want DISCONNECTED", tr.State())
	}
}

func TestSendReceivePreCancelled(t *testing.T) {
	d := newDevice(t)
	tr := newTransport(t, d, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := getSysinfo(tr, ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if d.Connections() != 0 {
		t.Errorf("Connections() = %d, want 0", d.Connections())
	}
}

func TestSendReceiveWrongMethodIsUnexpected(t *testing.T) {
	d := newDevice(t)
	d.Script(mock.ActionWrongMethod)
	tr := newTransport(t, d, Config{})

	_, err := getSysinfo(tr, context.Background())
	if !errors.Is(err, fault.ErrUnexpected) {
		t.Fatalf("error = %v, want kind unexpected", err)
	}
	var shapeErr *wire.MessageShapeError
	if !errors.As(err, &shapeErr) {
		t.Errorf("error does not wrap *wire.MessageShapeError: %v", err)
	}
}

func TestSendReceiveDeviceError(t *testing.T) {
	d := newDevice(t)
	d.SetErrorCode("system", "set_relay_state", -1, "module not support")
	tr := newTransport(t, d, Config{})

	_, err := tr.SendReceive(context.Background(), "system", "set_relay_state", map[string]any{"state": 1}, nil)

	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("error = %v, want *DeviceError", err)
	}
	if devErr.Code != wire.ErrorCodeModuleNotSupported || devErr.Module != "system" || devErr.Method != "set_relay_state" {
		t.Errorf("DeviceError = %+v", devErr)
	}
	if devErr.Endpoint != d.Address() || devErr.Message != "module not support" {
		t.Errorf("DeviceError endpoint/message = %q/%q", devErr.Endpoint, devErr.Message)
	}
	if !errors.Is(err, fault.ErrDevice) {
		t.Error("DeviceError is not of kind device")
	}
	if tr.State() != StateConnected {
		t.Errorf("State() = %v after device error, want CONNECTED", tr.State())
	}
}

func TestSendReceiveProjection(t *testing.T) {
	d := newDevice(t)
	tr := newTransport(t, d, Config{})

	type info struct {
		Alias      string    `json:"alias"`
		RelayState wire.Bool `json:"relay_state"`
	}
	v, err := tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, wire.Into[info]())
	if err != nil {
		t.Fatalf("SendReceive failed: %v", err)
	}
	if got := v.(info); got.Alias != "Lamp" || !bool(got.RelayState) {
		t.Errorf("projected = %+v", got)
	}

	boom := errors.New("boom")
	_, err = tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, func(json.RawMessage) (any, error) {
		return nil, boom
	})
	var projErr *ClientProjectionError
	if !errors.As(err, &projErr) {
		t.Fatalf("error = %v, want *ClientProjectionError", err)
	}
	if !errors.Is(err, boom) || !errors.Is(err, fault.ErrProjection) {
		t.Errorf("ClientProjectionError does not wrap cause and kind: %v", err)
	}
	if len(projErr.Result) == 0 || projErr.Module != "system" || projErr.Endpoint != d.Address() {
		t.Errorf("ClientProjectionError = %+v", projErr)
	}
}

func TestSendReceiveProjectionPanic(t *testing.T) {
	d := newDevice(t)
	tr := newTransport(t, d, Config{})

	v, err := tr.SendReceive(context.Background(), "system", "get_sysinfo", nil, func(json.RawMessage) (any, error) {
		panic("unexpected result shape")
	})

	if v != nil {
		t.Errorf("value = %v, want nil", v)
	}
	var projErr *ClientProjectionError
	if !errors.As(err, &projErr) {
		t.Fatalf("error = %v, want *ClientProjectionError", err)
	}
	if !errors.Is(err, ErrProjectionPanic) || fault.KindOf(err) != "projection" {
		t.Errorf("error = %v, want projection kind wrapping ErrProjectionPanic", err)
	}
	if !strings.Contains(err.Error(), "unexpected result shape") {
		t.Errorf("error = %v, want panic value in message", err)
	}
	if tr.State() != StateConnected {
		t.Errorf("State() = %v after projection panic, want CONNECTED", tr.State())
	}
}

func TestSendReceiveConnectRefusedIsUnreachable(t *testing.T) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := l.Addr().(*net.TCPAddr)
	l.Close()

	tr := New(endpoint.FromIP(addr.IP, uint16(addr.Port)), Config{})
	defer tr.Close()

	_, err = getSysinfo(tr, context.Background())
	if err == nil {
		t.Fatal("expected connect error")
	}
	if !fault.IsUnreachable(err) {
		t.Errorf("error = %v, want unreachable", err)
	}
}

type blockingDialer struct{}

func (blockingDialer) DialContext(ctx context.Context, _, _ string) (net.Conn, error) {
	<-ctx.Done()
	return nil, &net.OpError{Op: "dial", Net: "tcp", Err: ctx.Err()}
}

func TestSendReceiveConnectTimeout(t *testing.T) {
	tr := New(endpoint.Endpoint{Host: "192.0.2.1"}, Config{
		Dialer:         blockingDialer{},
		ConnectTimeout: 20 * time.Millisecond,
	})
	defer tr.Close()

	_, err := getSysinfo(tr, context.Background())

	var timeoutErr *ConnectTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("error = %v, want *ConnectTimeoutError", err)
	}
	if timeoutErr.Endpoint != "192.0.2.1:9999" {
		t.Errorf("Endpoint = %q, want default port substituted", timeoutErr.Endpoint)
	}
	if !fault.IsUnreachable(err) {
		t.Error("connect timeout is not classified unreachable")
	}
}

func TestCloseDisposes(t *testing.T) {
	d := newDevice(t)
	tr := New(d.Endpoint(), Config{})

	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Fatalf("SendReceive failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
	if tr.State() != StateDisposed {
		t.Errorf("State() = %v, want DISPOSED", tr.State())
	}
	if _, err := getSysinfo(tr, context.Background()); !errors.Is(err, ErrDisposed) {
		t.Errorf("error after Close = %v, want ErrDisposed", err)
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestSendReceiveProtocolEvents(t *testing.T) {
	d := newDevice(t)
	rec := &recordingLogger{}
	tr := newTransport(t, d, Config{ProtocolLogger: rec, DeviceID: "lamp"})

	if _, err := getSysinfo(tr, context.Background()); err != nil {
		t.Fatalf("SendReceive failed: %v", err)
	}

	var frames, requests, responses, states int
	for _, e := range rec.events {
		if e.DeviceID != "lamp" || e.ConnectionID == "" {
			t.Errorf("event missing identifiers: %+v", e)
		}
		switch {
		case e.Frame != nil:
			frames++
		case e.Message != nil && e.Message.Type == log.MessageTypeRequest:
			requests++
		case e.Message != nil && e.Message.Type == log.MessageTypeResponse:
			responses++
			if e.Message.ErrorCode == nil || *e.Message.ErrorCode != 0 {
				t.Errorf("response ErrorCode = %v", e.Message.ErrorCode)
			}
		case e.StateChange != nil:
			states++
		}
	}
	if frames != 2 || requests != 1 || responses != 1 || states != 1 {
		t.Errorf("frames/requests/responses/states = %d/%d/%d/%d, want 2/1/1/1", frames, requests, responses, states)
	}
}

func TestNetworkFor(t *testing.T) {
	if got := networkFor(endpoint.FamilyIPv4); got != "tcp4" {
		t.Errorf("networkFor(IPv4) = %q", got)
	}
	if got := networkFor(endpoint.FamilyIPv6); got != "tcp6" {
		t.Errorf("networkFor(IPv6) = %q", got)
	}
	if got := networkFor(endpoint.FamilyUnspecified); got != "tcp" && got != "tcp4" {
		t.Errorf("networkFor(Unspecified) = %q", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "DISCONNECTED"},
		{StateConnected, "CONNECTED"},
		{StateDisposed, "DISPOSED"},
		{State(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
