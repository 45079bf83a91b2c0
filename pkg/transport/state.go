package transport

// State is the connection state of a Transport.
type State int

const (
	// StateDisconnected indicates no open connection.
	StateDisconnected State = iota

	// StateConnected indicates an open connection.
	StateConnected

	// StateDisposed indicates the Transport was closed and cannot be used.
	StateDisposed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnected:
		return "CONNECTED"
	case StateDisposed:
		return "DISPOSED"
	default:
		return "UNKNOWN"
	}
}
