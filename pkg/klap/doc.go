// Package klap implements the HTTP variant of the device protocol.
//
// Newer devices accept the same {"module":{"method":params}} envelope over
// HTTP, inside an authenticated session:
//
//	POST /app/handshake1   local seed            -> remote seed, server hash
//	POST /app/handshake2   client hash           -> 200 OK
//	POST /app/request?seq  signature ‖ AES-CBC   -> signature ‖ AES-CBC
//
// Session keys are derived from both seeds and the credential hash. A
// Transport establishes the session lazily and drops it when the device
// rejects it; failures carry the same fault kinds as pkg/transport, plus
// fault.ErrAuthentication, so the request loop of pkg/client serves both.
package klap
