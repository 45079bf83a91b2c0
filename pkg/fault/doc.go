// Package fault defines the protocol-independent failure taxonomy shared by
// the transports and the request orchestrator.
//
// Concrete error types live next to the code that raises them (pkg/wire,
// pkg/transport, pkg/endpoint, pkg/klap). Each reports its kind through an
// Is method, so retry policies can classify any transport's failures with
// errors.Is against the sentinels below:
//
//	ErrDisconnected   peer reset/closed/aborted; recover by reconnecting
//	ErrUnreachable    connect-level refusal or no route; recover by re-resolving
//	ErrIncomplete     short/split frame; usually transient
//	ErrUnexpected     response shape did not match the request
//	ErrDevice         device returned a nonzero error code
//	ErrProjection     the caller's result mapping failed
//	ErrUnresolved     endpoint provider knows no address
//	ErrAuthentication session handshake rejected or expired
//
// Raw socket errors returned by net.Dial are not wrapped by the transports;
// IsUnreachable and IsPeerReset recognise their errno values directly.
package fault
