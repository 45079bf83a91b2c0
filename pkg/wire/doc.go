// Package wire implements the framed JSON wire format spoken by the
// devices on their TCP port.
//
// # Frame Layout
//
//	┌──────────────────────┬───────────────────────────────────────┐
//	│ length (4B, BE)      │ body (length bytes, autokey XOR)      │
//	└──────────────────────┴───────────────────────────────────────┘
//
// The body is UTF-8 JSON shaped as a two-level envelope:
//
//	{"<module>":{"<method>":<params>}}     request
//	{"<module>":{"<method>":<result>}}     response
//
// A response is only accepted if it carries exactly (case-sensitively) the
// module and method of the request.
//
// # Autokey Cipher
//
// The body is obfuscated with an autokey XOR stream. The key starts at
// InitialKey and after every byte becomes the previous ciphertext byte.
// This is a framing convention mandated by the firmware, not encryption,
// and must not be altered.
//
// # Numeric Booleans
//
// Devices encode booleans as JSON integers. Bool reads any nonzero number as
// true and writes 1/0.
package wire
