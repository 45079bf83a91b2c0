package fault

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// Failure kinds.
var (
	ErrDisconnected   = errors.New("disconnected")
	ErrUnreachable    = errors.New("unreachable")
	ErrIncomplete     = errors.New("incomplete response")
	ErrUnexpected     = errors.New("unexpected response")
	ErrDevice         = errors.New("device error")
	ErrProjection     = errors.New("result projection failed")
	ErrUnresolved     = errors.New("endpoint unresolved")
	ErrAuthentication = errors.New("authentication failed")
)

// IsUnreachable reports whether err is a connect-level failure: an error of
// kind ErrUnreachable, or a raw refused/host-unreachable/network-unreachable
// socket error.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// IsPeerReset reports whether err is a raw socket error caused by the peer
// resetting, shutting down or aborting the connection.
func IsPeerReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ESHUTDOWN) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.EOF)
}

// IsDisconnected reports whether err is of kind ErrDisconnected.
func IsDisconnected(err error) bool {
	return errors.Is(err, ErrDisconnected)
}

// IsIncomplete reports whether err is of kind ErrIncomplete.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// IsAuthentication reports whether err is of kind ErrAuthentication.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsCancellation reports whether err stems from a caller cancellation or
// deadline rather than from the device.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// KindOf returns a short, stable name for the kind of err, suitable for
// log fields and metric labels.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsCancellation(err):
		return "cancelled"
	case errors.Is(err, ErrDisconnected):
		return "disconnected"
	case IsUnreachable(err):
		return "unreachable"
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	case errors.Is(err, ErrUnexpected):
		return "unexpected"
	case errors.Is(err, ErrDevice):
		return "device"
	case errors.Is(err, ErrProjection):
		return "projection"
	case errors.Is(err, ErrUnresolved):
		return "unresolved"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	default:
		return "other"
	}
}
