package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/fault"
	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

// Transport errors.
var (
	// ErrDisposed is returned by every call after Close.
	ErrDisposed = errors.New("transport disposed")

	// ErrMessageTooLarge indicates a frame header declaring more than
	// MaxMessageSize bytes.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrPeerClosed indicates the device closed the connection (zero-length
	// read).
	ErrPeerClosed = errors.New("connection closed by peer")

	// ErrProjectionPanic is wrapped by a ClientProjectionError when the
	// projection panicked.
	ErrProjectionPanic = errors.New("projection panicked")
)

// DisconnectedError reports that the device reset, shut down or closed the
// connection. A fresh connection usually recovers.
type DisconnectedError struct {
	Endpoint string

	// Err is the underlying socket error.
	Err error
}

func (e *DisconnectedError) Error() string {
	return fmt.Sprintf("disconnected from %s: %v", e.Endpoint, e.Err)
}

func (e *DisconnectedError) Unwrap() error { return e.Err }

// Is reports the error as fault.ErrDisconnected.
func (e *DisconnectedError) Is(target error) bool { return target == fault.ErrDisconnected }

// ConnectTimeoutError reports that the connection could not be established
// within ConnectTimeout. A device that moved to another address typically
// shows up this way, so it is classified as unreachable.
//
// Err is kept for diagnosis but not unwrapped: the dialer reports a context
// deadline, which must not be mistaken for a caller cancellation.
type ConnectTimeoutError struct {
	Endpoint string
	Timeout  time.Duration
	Err      error
}

func (e *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("connect to %s timed out after %v", e.Endpoint, e.Timeout)
}

// Is reports the error as fault.ErrUnreachable.
func (e *ConnectTimeoutError) Is(target error) bool { return target == fault.ErrUnreachable }

// ReceiveTimeoutError reports that the device accepted the request but no
// complete frame header arrived within ReceiveTimeout. It is classified as
// an incomplete response.
type ReceiveTimeoutError struct {
	Endpoint string
	Module   string
	Method   string
	Timeout  time.Duration

	// Received is the number of header bytes that did arrive.
	Received int
}

func (e *ReceiveTimeoutError) Error() string {
	return fmt.Sprintf("no response from %s for %s.%s within %v (%d bytes received)",
		e.Endpoint, e.Module, e.Method, e.Timeout, e.Received)
}

// Is reports the error as fault.ErrIncomplete.
func (e *ReceiveTimeoutError) Is(target error) bool { return target == fault.ErrIncomplete }

// IncompleteResponseError wraps a framing failure (*wire.HeaderTooShortError
// or *wire.BodyTooShortError). Usually transient.
type IncompleteResponseError struct {
	Endpoint string
	Module   string
	Method   string
	Err      error
}

func (e *IncompleteResponseError) Error() string {
	return fmt.Sprintf("incomplete response from %s for %s.%s: %v", e.Endpoint, e.Module, e.Method, e.Err)
}

func (e *IncompleteResponseError) Unwrap() error { return e.Err }

// Is reports the error as fault.ErrIncomplete.
func (e *IncompleteResponseError) Is(target error) bool { return target == fault.ErrIncomplete }

// UnexpectedResponseError wraps a *wire.MessageShapeError or an oversized
// frame: the device answered with something other than what was asked.
type UnexpectedResponseError struct {
	Endpoint string
	Module   string
	Method   string
	Err      error
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response from %s for %s.%s: %v", e.Endpoint, e.Module, e.Method, e.Err)
}

func (e *UnexpectedResponseError) Unwrap() error { return e.Err }

// Is reports the error as fault.ErrUnexpected.
func (e *UnexpectedResponseError) Is(target error) bool { return target == fault.ErrUnexpected }

// DeviceError reports a nonzero err_code in a result.
type DeviceError struct {
	Code     wire.ErrorCode
	Message  string
	Module   string
	Method   string
	Endpoint string
}

func (e *DeviceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s.%s on %s failed: %s (%d): %s", e.Module, e.Method, e.Endpoint, e.Code, int(e.Code), e.Message)
	}
	return fmt.Sprintf("%s.%s on %s failed: %s (%d)", e.Module, e.Method, e.Endpoint, e.Code, int(e.Code))
}

// Is reports the error as fault.ErrDevice.
func (e *DeviceError) Is(target error) bool { return target == fault.ErrDevice }

// ClientProjectionError wraps an error returned by the caller's projection.
// The raw result is kept for diagnosis.
type ClientProjectionError struct {
	Module   string
	Method   string
	Endpoint string
	Result   json.RawMessage
	Err      error
}

func (e *ClientProjectionError) Error() string {
	return fmt.Sprintf("projecting %s.%s result from %s: %v", e.Module, e.Method, e.Endpoint, e.Err)
}

func (e *ClientProjectionError) Unwrap() error { return e.Err }

// Is reports the error as fault.ErrProjection.
func (e *ClientProjectionError) Is(target error) bool { return target == fault.ErrProjection }
