// Package mock provides a fake device speaking the framed protocol over a
// loopback TCP listener, for tests.
package mock

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

// Action selects how the device answers one request.
type Action int

const (
	// ActionRespond sends the full response in one write.
	ActionRespond Action = iota

	// ActionDrop closes the connection without answering.
	ActionDrop

	// ActionSplit sends the response in two writes, SplitDelay apart.
	ActionSplit

	// ActionTruncate sends the header and half of the body, then stalls
	// until the connection is closed.
	ActionTruncate

	// ActionStall never answers.
	ActionStall

	// ActionWrongMethod answers under a different method name.
	ActionWrongMethod
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionRespond:
		return "RESPOND"
	case ActionDrop:
		return "DROP"
	case ActionSplit:
		return "SPLIT"
	case ActionTruncate:
		return "TRUNCATE"
	case ActionStall:
		return "STALL"
	case ActionWrongMethod:
		return "WRONG_METHOD"
	default:
		return "UNKNOWN"
	}
}

// Request is a request received by the device.
type Request struct {
	Module string
	Method string
	Params json.RawMessage

	// Conn is the 1-based sequence number of the connection it arrived on.
	Conn int
}

// Handler computes the result for a request.
type Handler func(req Request) (any, error)

// Device is a fake device. The zero value is not usable; call NewDevice.
type Device struct {
	// SplitDelay is the pause between the two writes of ActionSplit.
	SplitDelay time.Duration

	listener net.Listener

	mu          sync.RWMutex
	handlers    map[string]Handler
	script      []Action
	received    []Request
	connections int
	live        map[net.Conn]struct{}

	wg     sync.WaitGroup
	closed chan struct{}
}

// NewDevice starts a device listening on an ephemeral loopback port.
func NewDevice() (*Device, error) {
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	d := &Device{
		SplitDelay: 50 * time.Millisecond,
		listener:   l,
		handlers:   make(map[string]Handler),
		live:       make(map[net.Conn]struct{}),
		closed:     make(chan struct{}),
	}

	d.wg.Add(1)
	go d.acceptLoop()
	return d, nil
}

// Endpoint returns the device's endpoint.
func (d *Device) Endpoint() endpoint.Endpoint {
	addr := d.listener.Addr().(*net.TCPAddr)
	return endpoint.FromIP(addr.IP, uint16(addr.Port))
}

// Address returns the device's host:port.
func (d *Device) Address() string {
	return d.listener.Addr().String()
}

// Port returns the device's port.
func (d *Device) Port() uint16 {
	_, port, _ := net.SplitHostPort(d.Address())
	n, _ := strconv.Atoi(port)
	return uint16(n)
}

// Handle registers h for module.method.
func (d *Device) Handle(module, method string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[module+"."+method] = h
}

// SetResult makes module.method answer with result.
func (d *Device) SetResult(module, method string, result any) {
	d.Handle(module, method, func(Request) (any, error) { return result, nil })
}

// SetErrorCode makes module.method answer with a device error code.
func (d *Device) SetErrorCode(module, method string, code int, msg string) {
	d.SetResult(module, method, map[string]any{wire.ErrorCodeField: code, wire.ErrorMessageField: msg})
}

// Script queues actions for the next requests, one per request. Requests
// beyond the script are answered with ActionRespond.
func (d *Device) Script(actions ...Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, actions...)
}

// Received returns the requests received so far.
func (d *Device) Received() []Request {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Request(nil), d.received...)
}

// Connections returns the number of connections accepted so far.
func (d *Device) Connections() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connections
}

// DropConnections closes every open connection, as a device does with
// idle clients.
func (d *Device) DropConnections() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.live {
		_ = c.Close()
	}
}

// Close stops the device and closes all connections.
func (d *Device) Close() error {
	select {
	case <-d.closed:
		return nil
	default:
	}
	close(d.closed)
	err := d.listener.Close()
	d.DropConnections()
	d.wg.Wait()
	return err
}

func (d *Device) acceptLoop() {
	defer d.wg.Done()
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}

		d.mu.Lock()
		d.connections++
		seq := d.connections
		d.live[conn] = struct{}{}
		d.mu.Unlock()

		d.wg.Add(1)
		go d.serve(conn, seq)
	}
}

func (d *Device) serve(conn net.Conn, seq int) {
	defer d.wg.Done()
	defer func() {
		d.mu.Lock()
		delete(d.live, conn)
		d.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		req, err := readRequest(conn)
		if err != nil {
			return
		}
		req.Conn = seq

		action, result := d.dispatch(req)
		if !d.respond(conn, req, action, result) {
			return
		}
	}
}

func (d *Device) dispatch(req Request) (Action, any) {
	d.mu.Lock()
	d.received = append(d.received, req)
	action := ActionRespond
	if len(d.script) > 0 {
		action = d.script[0]
		d.script = d.script[1:]
	}
	h, ok := d.handlers[req.Module+"."+req.Method]
	d.mu.Unlock()

	if !ok {
		return action, map[string]any{wire.ErrorCodeField: -2, wire.ErrorMessageField: "method not support"}
	}
	result, err := h(req)
	if err != nil {
		return action, map[string]any{wire.ErrorCodeField: -1, wire.ErrorMessageField: err.Error()}
	}
	return action, result
}

// respond writes the answer. It returns false when the connection must be
// closed.
func (d *Device) respond(conn net.Conn, req Request, action Action, result any) bool {
	method := req.Method
	if action == ActionWrongMethod {
		method += "_unexpected"
	}
	frame, err := wire.Serialize(req.Module, method, result)
	if err != nil {
		return false
	}

	switch action {
	case ActionDrop:
		return false
	case ActionStall:
		d.waitClosed(conn)
		return false
	case ActionTruncate:
		cut := wire.LengthPrefixSize + (len(frame)-wire.LengthPrefixSize)/2
		if _, err := conn.Write(frame[:cut]); err != nil {
			return false
		}
		d.waitClosed(conn)
		return false
	case ActionSplit:
		cut := wire.LengthPrefixSize + (len(frame)-wire.LengthPrefixSize)/2
		if _, err := conn.Write(frame[:cut]); err != nil {
			return false
		}
		select {
		case <-time.After(d.SplitDelay):
		case <-d.closed:
			return false
		}
		_, err = conn.Write(frame[cut:])
		return err == nil
	default:
		_, err = conn.Write(frame)
		return err == nil
	}
}

// waitClosed blocks until the peer closes conn or the device shuts down.
func (d *Device) waitClosed(conn net.Conn) {
	_, _ = io.Copy(io.Discard, conn)
}

func readRequest(r io.Reader) (Request, error) {
	var header [wire.LengthPrefixSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Request{}, err
	}
	body := make([]byte, binary.BigEndian.Uint32(header[:]))
	if _, err := io.ReadFull(r, body); err != nil {
		return Request{}, err
	}
	body = wire.DecryptBytes(body)

	var envelope map[string]map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Request{}, err
	}
	for module, methods := range envelope {
		for method, params := range methods {
			return Request{Module: module, Method: method, Params: params}, nil
		}
	}
	return Request{}, errors.New("empty envelope")
}
