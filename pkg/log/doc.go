// Package log provides structured protocol logging for kasa-go.
//
// It defines the Logger interface and the Event types used to capture what
// happens on the wire and inside the retry loop. It is separate from
// operational logging (slog): protocol capture is a machine-readable trace
// that can be replayed and filtered after the fact.
//
// # Basic Usage
//
//	// Development: protocol events on the console
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Field capture: binary file, read back with kasa-log
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/kasa/plug.klog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # Event Types
//
//   - Transport: ciphered frames as sent and received (FrameEvent)
//   - Wire: decoded requests and responses (MessageEvent)
//   - Client: attempts and the directive chosen for them (AttemptEvent)
//   - Any layer: connection/endpoint state changes and errors
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .klog extension.
package log
