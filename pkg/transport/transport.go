package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/fault"
	"github.com/kasa-protocol/kasa-go/pkg/log"
	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

// aLongTimeAgo is a deadline in the past, used to abort blocked I/O.
var aLongTimeAgo = time.Unix(1, 0)

// Transport exchanges framed requests with one device endpoint over TCP.
type Transport struct {
	config   Config
	endpoint endpoint.Endpoint
	address  string

	conn         net.Conn
	connID       string
	lastActivity time.Time
	disposed     bool

	// buf holds the outgoing frame, then the incoming one. It is reset on
	// every exit from SendReceive.
	buf   bytes.Buffer
	chunk []byte
}

// New creates a Transport bound to ep. No connection is opened until the
// first SendReceive.
func New(ep endpoint.Endpoint, config Config) *Transport {
	config.applyDefaults()
	return &Transport{
		config:   config,
		endpoint: ep,
		address:  ep.Address(config.DefaultPort),
		chunk:    make([]byte, config.ReceiveChunk),
	}
}

// Endpoint returns the endpoint the transport is bound to.
func (t *Transport) Endpoint() endpoint.Endpoint {
	return t.endpoint
}

// Address returns the dialed host:port.
func (t *Transport) Address() string {
	return t.address
}

// State returns the current connection state.
func (t *Transport) State() State {
	switch {
	case t.disposed:
		return StateDisposed
	case t.conn != nil:
		return StateConnected
	default:
		return StateDisconnected
	}
}

// ConnectionID returns the ID of the open connection, or "" when
// disconnected.
func (t *Transport) ConnectionID() string {
	return t.connID
}

// SendReceive sends module.method with params and returns the projected
// result. A nil project returns the raw result as json.RawMessage.
func (t *Transport) SendReceive(ctx context.Context, module, method string, params any, project wire.Projection) (any, error) {
	if t.disposed {
		return nil, ErrDisposed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer t.buf.Reset()

	if t.conn != nil && t.config.Now().Sub(t.lastActivity) > t.config.IdleRefresh {
		t.disconnect("idle")
	}
	if t.conn == nil {
		if err := t.connect(ctx); err != nil {
			return nil, err
		}
	}

	if err := wire.SerializeTo(&t.buf, module, method, params); err != nil {
		return nil, err
	}
	t.logRequest(module, method)

	started := time.Now()
	reads, err := t.exchange(ctx, module, method)
	if err != nil {
		t.disconnect(fault.KindOf(err))
		return nil, err
	}
	t.logFrame(log.DirectionIn, t.buf.Bytes(), reads)

	result, err := wire.Deserialize(t.buf.Bytes(), module, method)
	if err != nil {
		// Unread bytes of a short or foreign frame would poison the next
		// exchange on this connection.
		t.disconnect("malformed response")
		return nil, DecodeError(err, t.address, module, method)
	}

	t.logResponse(module, method, result, time.Since(started))

	v, err := Complete(result, t.address, module, method, project)
	if err != nil {
		return nil, err
	}

	t.lastActivity = t.config.Now()
	return v, nil
}

// Close disposes the transport. It is safe to call more than once; every
// later SendReceive returns ErrDisposed.
func (t *Transport) Close() error {
	if t.disposed {
		return nil
	}
	var err error
	if t.conn != nil {
		err = t.conn.Close()
		t.conn = nil
		t.logState(StateConnected, StateDisposed, "closed")
	}
	t.disposed = true
	t.buf.Reset()
	t.debugLog("transport disposed", "address", t.address)
	return err
}

// connect dials the endpoint.
func (t *Transport) connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, t.config.ConnectTimeout)
	defer cancel()

	network := networkFor(t.endpoint.Family)
	conn, err := t.config.Dialer.DialContext(dialCtx, network, t.address)
	if err != nil {
		t.debugLog("connect failed", "address", t.address, "network", network, "error", err)
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return &ConnectTimeoutError{Endpoint: t.address, Timeout: t.config.ConnectTimeout, Err: err}
		}
		return err
	}

	t.conn = conn
	t.connID = uuid.New().String()
	t.lastActivity = t.config.Now()
	t.logState(StateDisconnected, StateConnected, "")
	t.debugLog("connected", "address", t.address, "network", network, "conn_id", t.connID)
	return nil
}

// disconnect drops the connection without disposing the transport.
func (t *Transport) disconnect(reason string) {
	if t.conn == nil {
		return
	}
	_ = t.conn.Close()
	t.conn = nil
	t.logState(StateConnected, StateDisconnected, reason)
	t.debugLog("disconnected", "address", t.address, "reason", reason, "conn_id", t.connID)
	t.connID = ""
}

// exchange writes the frame in buf and reads the response back into buf.
// It returns the number of socket reads performed.
func (t *Transport) exchange(ctx context.Context, module, method string) (int, error) {
	conn := t.conn
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(aLongTimeAgo)
	})

	reads, err := t.roundTrip(ctx, conn, module, method)
	if !stop() {
		// Cancellation already moved the deadline into the past; the
		// connection cannot be reused.
		return reads, ctx.Err()
	}
	_ = conn.SetDeadline(time.Time{})
	return reads, err
}

func (t *Transport) roundTrip(ctx context.Context, conn net.Conn, module, method string) (int, error) {
	t.logFrame(log.DirectionOut, t.buf.Bytes(), 0)
	if _, err := conn.Write(t.buf.Bytes()); err != nil {
		return 0, t.classify(ctx, err)
	}

	t.buf.Reset()
	return t.receive(ctx, conn, module, method)
}

// receive reads one frame into buf. The header must be complete within
// ReceiveTimeout. After that every read is bounded by SplitTimeout; when it
// fires the frame is returned as is.
func (t *Transport) receive(ctx context.Context, conn net.Conn, module, method string) (int, error) {
	expected := -1
	reads := 0

	// The deadline is set before ctx is checked so a concurrent cancellation
	// cannot be overwritten.
	_ = conn.SetReadDeadline(time.Now().Add(t.config.ReceiveTimeout))
	if err := ctx.Err(); err != nil {
		return reads, err
	}

	for {
		if expected < 0 {
			if total, ok := wire.FrameLength(t.buf.Bytes()); ok {
				if total-wire.LengthPrefixSize > t.config.MaxMessageSize {
					return reads, &UnexpectedResponseError{
						Endpoint: t.address,
						Module:   module,
						Method:   method,
						Err:      fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, total-wire.LengthPrefixSize, t.config.MaxMessageSize),
					}
				}
				expected = total
			}
		}
		if expected >= 0 {
			if t.buf.Len() >= expected {
				return reads, nil
			}
			_ = conn.SetReadDeadline(time.Now().Add(t.config.SplitTimeout))
			if ctx.Err() != nil {
				return reads, ctx.Err()
			}
		}

		n, err := conn.Read(t.chunk)
		reads++
		t.buf.Write(t.chunk[:n])

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return reads, ctxErr
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				if expected < 0 {
					return reads, &ReceiveTimeoutError{
						Endpoint: t.address,
						Module:   module,
						Method:   method,
						Timeout:  t.config.ReceiveTimeout,
						Received: t.buf.Len(),
					}
				}
				t.debugLog("split timeout, decoding partial frame",
					"address", t.address, "have", t.buf.Len(), "want", expected)
				return reads, nil
			}
			if n == 0 && errors.Is(err, io.EOF) {
				return reads, &DisconnectedError{Endpoint: t.address, Err: ErrPeerClosed}
			}
			return reads, t.classify(ctx, err)
		}
	}
}

// classify translates socket errors. Peer resets become *DisconnectedError;
// anything else is returned unchanged.
func (t *Transport) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if fault.IsPeerReset(err) {
		return &DisconnectedError{Endpoint: t.address, Err: err}
	}
	return err
}

var (
	ipv6Once      sync.Once
	ipv6Available bool
)

// networkFor maps an address family to a dial network. An unspecified
// family prefers IPv6 when the host supports it.
func networkFor(f endpoint.Family) string {
	switch f {
	case endpoint.FamilyIPv4:
		return "tcp4"
	case endpoint.FamilyIPv6:
		return "tcp6"
	}

	ipv6Once.Do(func() {
		l, err := net.Listen("tcp6", "[::1]:0")
		if err != nil {
			return
		}
		_ = l.Close()
		ipv6Available = true
	})
	if ipv6Available {
		return "tcp"
	}
	return "tcp4"
}

func (t *Transport) debugLog(msg string, args ...any) {
	if t.config.Logger != nil {
		t.config.Logger.Debug(msg, args...)
	}
}

func (t *Transport) logEvent(e log.Event) {
	if t.config.ProtocolLogger == nil {
		return
	}
	e.Timestamp = time.Now()
	e.ConnectionID = t.connID
	e.RemoteAddr = t.address
	e.DeviceID = t.config.DeviceID
	t.config.ProtocolLogger.Log(e)
}

func (t *Transport) logFrame(dir log.Direction, data []byte, reads int) {
	if t.config.ProtocolLogger == nil {
		return
	}
	frame := &log.FrameEvent{Size: len(data), Reads: reads}
	if len(data) > MaxLogFrameDataSize {
		frame.Data = bytes.Clone(data[:MaxLogFrameDataSize])
		frame.Truncated = true
	} else {
		frame.Data = bytes.Clone(data)
	}
	t.logEvent(log.Event{
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame:     frame,
	})
}

// logRequest logs the plain envelope of the request that was just
// serialized into buf.
func (t *Transport) logRequest(module, method string) {
	if t.config.ProtocolLogger == nil {
		return
	}
	body := wire.DecryptBytes(t.buf.Bytes()[wire.LengthPrefixSize:])
	var payload any
	if params, err := wire.DecodeEnvelope(body, module, method); err == nil {
		payload = log.PayloadOf(params)
	}
	t.logEvent(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:    log.MessageTypeRequest,
			Module:  module,
			Method:  method,
			Payload: payload,
		},
	})
}

func (t *Transport) logResponse(module, method string, result json.RawMessage, rtt time.Duration) {
	if t.config.ProtocolLogger == nil {
		return
	}
	code := int(wire.ErrorCodeOf(result))
	t.logEvent(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:      log.MessageTypeResponse,
			Module:    module,
			Method:    method,
			ErrorCode: &code,
			Payload:   log.PayloadOf(result),
			RoundTrip: &rtt,
		},
	})
}

func (t *Transport) logState(from, to State, reason string) {
	if t.config.ProtocolLogger == nil {
		return
	}
	t.logEvent(log.Event{
		Layer:    log.LayerTransport,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}
