// Package policy decides how a failed request attempt is handled.
//
// A Policy maps (error, attempt index, device context) to a Directive:
//
//	Throw                      give up, surface the error
//	Retry                      try again on the same connection
//	RetryAfterReconnect        drop the connection, keep the endpoint
//	RetryAfterResolveEndpoint  invalidate and re-resolve the endpoint
//
// Policies see errors only through the kinds of pkg/fault, so the same
// policy serves the TCP transport and the HTTP variant. Default is the
// reference policy; custom policies delegate unhandled cases to it with
// Chain.
package policy
