// Package transport implements the TCP transport for the framed protocol.
//
// A Transport owns at most one TCP connection to one endpoint and performs
// one request/response exchange at a time:
//
//	┌────────────────────────────────┐
//	│  {"module":{"method":params}}  │  JSON envelope
//	├────────────────────────────────┤
//	│  Autokey XOR (body only)       │  pkg/wire
//	├────────────────────────────────┤
//	│  Length-Prefix Framing (4B)    │  pkg/wire
//	├────────────────────────────────┤
//	│           TCP                  │  this package
//	└────────────────────────────────┘
//
// # Connection Lifecycle
//
// Connections are opened lazily by SendReceive and reused across calls.
// Devices silently drop idle connections after roughly 30 seconds, so a
// connection that has been idle for longer than IdleRefresh is discarded
// before the next write instead of risking a write into a half-dead socket.
//
// # Split Responses
//
// The length header must arrive within ReceiveTimeout of the request being
// written, or the exchange fails with a ReceiveTimeoutError. Devices may deliver a response across several TCP segments. Once the
// length header has arrived, the remaining reads are bounded by
// SplitTimeout. When it fires, whatever was received is decoded as final,
// which yields an IncompleteResponseError if the body is short. A caller's
// context cancellation is always reported as the context error instead.
//
// # Errors
//
// The transport never retries. It classifies failures into the kinds of
// pkg/fault (DisconnectedError, IncompleteResponseError, ReceiveTimeoutError,
// UnexpectedResponseError, DeviceError, ClientProjectionError) and leaves the
// decision to the caller. Connect failures are returned as the dialer
// reports them.
//
// # Concurrency
//
// A Transport is not safe for concurrent use. Calls must be serialized by
// the owner.
package transport
