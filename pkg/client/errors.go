package client

import "errors"

var (
	// ErrClosed is returned by requests on a closed client.
	ErrClosed = errors.New("client closed")

	// ErrAttemptsExhausted is returned when the attempt budget runs out
	// without the policy ever returning Throw. A well-formed policy never
	// lets this happen.
	ErrAttemptsExhausted = errors.New("attempts exhausted without a terminal directive")
)
