package klap

import (
	"errors"
	"fmt"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/fault"
)

var (
	// ErrServerHash is wrapped when the device's handshake1 hash does not
	// match the credentials.
	ErrServerHash = errors.New("server hash mismatch")

	// ErrSessionRejected is wrapped when the device refuses a request for
	// an established session.
	ErrSessionRejected = errors.New("session rejected")
)

// Handshake and request stages reported by AuthenticationError.
const (
	StageHandshake1 = "handshake1"
	StageHandshake2 = "handshake2"
	StageRequest    = "request"
)

// AuthenticationError is returned when the device rejects the credentials or
// the session.
type AuthenticationError struct {
	Endpoint string
	Stage    string
	Status   int
	Err      error
}

func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("authentication with %s failed at %s", e.Endpoint, e.Stage)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *AuthenticationError) Unwrap() error { return e.Err }

// Is reports the error as fault.ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool { return target == fault.ErrAuthentication }

// StatusError is returned for an HTTP status the protocol does not expect.
type StatusError struct {
	Endpoint string
	Path     string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s%s returned HTTP %d", e.Endpoint, e.Path, e.Status)
}

// Is reports the error as fault.ErrUnexpected.
func (e *StatusError) Is(target error) bool { return target == fault.ErrUnexpected }

// TimeoutError is returned when an HTTP round trip exceeds the transport's
// own timeout. It is reported as fault.ErrDisconnected: the session is
// dropped and a fresh one is worth one attempt.
type TimeoutError struct {
	Endpoint string
	Path     string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s%s timed out after %v", e.Endpoint, e.Path, e.Timeout)
}

// Is reports the error as fault.ErrDisconnected.
func (e *TimeoutError) Is(target error) bool { return target == fault.ErrDisconnected }
