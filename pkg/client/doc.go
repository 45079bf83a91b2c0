// Package client drives requests to one device through the retry loop:
// resolve the endpoint, (re)create the exchanger bound to it, send, and on
// failure let a policy.Policy decide between throwing, retrying,
// reconnecting and re-resolving.
//
// # Usage
//
//	provider, _ := endpoint.NewStatic("192.168.1.23")
//	c := client.New(provider, client.DefaultConfig())
//	defer c.Close()
//
//	info, err := client.Call[SysInfo](ctx, c, "system", "get_sysinfo", nil)
//
// A Client is not safe for concurrent use. Callers sharing one must
// serialize their calls; all attempts of a request complete before the next
// request starts.
//
// The exchanger is pluggable: the default factory creates TCP transports
// (pkg/transport); pkg/klap provides the HTTP variant.
package client
