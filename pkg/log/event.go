package log

import "time"

// Event is a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the TCP connection or KLAP session (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (host:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// DeviceID is the configured device identity (hostname, IP or MAC).
	DeviceID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Attempt     *AttemptEvent     `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the device.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the socket layer (ciphered bytes).
	LayerTransport Layer = 0
	// LayerWire is the JSON envelope layer.
	LayerWire Layer = 1
	// LayerClient is the request orchestration layer.
	LayerClient Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerClient:
		return "CLIENT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a frame, request or response.
	CategoryMessage Category = 0
	// CategoryAttempt indicates a request attempt and its outcome.
	CategoryAttempt Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryAttempt:
		return "ATTEMPT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame bytes at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// Reads is the number of socket reads it took to receive the frame.
	Reads int `cbor:"4,keyasint,omitempty"`
}

// MessageEvent captures a decoded request or response.
type MessageEvent struct {
	// Type distinguishes request and response.
	Type MessageType `cbor:"1,keyasint"`

	// Module is the device module, e.g. "system".
	Module string `cbor:"2,keyasint"`

	// Method is the method within the module, e.g. "get_sysinfo".
	Method string `cbor:"3,keyasint"`

	// ErrorCode is the device's err_code (response only).
	ErrorCode *int `cbor:"4,keyasint,omitempty"`

	// Payload is the request params or response result.
	Payload any `cbor:"5,keyasint,omitempty"`

	// RoundTrip is the time from send to complete response (response only).
	RoundTrip *time.Duration `cbor:"6,keyasint,omitempty"`
}

// MessageType distinguishes request and response.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection, session and endpoint changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a TCP connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntitySession indicates a KLAP session state change.
	StateEntitySession StateEntity = 1
	// StateEntityEndpoint indicates a resolved endpoint change.
	StateEntityEndpoint StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntitySession:
		return "SESSION"
	case StateEntityEndpoint:
		return "ENDPOINT"
	default:
		return "UNKNOWN"
	}
}

// AttemptEvent captures one pass through the request loop.
type AttemptEvent struct {
	// Index is the zero-based attempt number.
	Index int `cbor:"1,keyasint"`

	// Module and Method identify the request.
	Module string `cbor:"2,keyasint"`
	Method string `cbor:"3,keyasint"`

	// Kind is the fault kind of the attempt's error ("none" on success).
	Kind string `cbor:"4,keyasint"`

	// Error is the attempt's error message.
	Error string `cbor:"5,keyasint,omitempty"`

	// Directive is the policy's decision, e.g. "retry+reconnect after 200ms".
	Directive string `cbor:"6,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
