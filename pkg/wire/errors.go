package wire

import "fmt"

// HeaderTooShortError is returned when fewer than LengthPrefixSize bytes
// are available to read the frame header.
type HeaderTooShortError struct {
	// Actual is the number of bytes that were available.
	Actual int
}

func (e *HeaderTooShortError) Error() string {
	return fmt.Sprintf("frame header too short: have %d bytes, need %d", e.Actual, LengthPrefixSize)
}

// BodyTooShortError is returned when the frame body is shorter than the
// length its header declares.
type BodyTooShortError struct {
	// IndicatedLength is the body length declared by the header.
	IndicatedLength int

	// ActualLength is the number of body bytes available.
	ActualLength int
}

func (e *BodyTooShortError) Error() string {
	return fmt.Sprintf("frame body too short: header indicates %d bytes, have %d", e.IndicatedLength, e.ActualLength)
}

// MessageShapeError is returned when a decoded body is not JSON or lacks
// the expected module.method path.
type MessageShapeError struct {
	Module string
	Method string

	// Err is the JSON syntax error, if the body did not parse.
	Err error
}

func (e *MessageShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed message for %s.%s: %v", e.Module, e.Method, e.Err)
	}
	return fmt.Sprintf("message does not contain %s.%s", e.Module, e.Method)
}

func (e *MessageShapeError) Unwrap() error {
	return e.Err
}
