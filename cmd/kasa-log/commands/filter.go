package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kasa-protocol/kasa-go/pkg/log"
)

// faultKinds are the attempt outcomes recorded by the client.
var faultKinds = []string{
	"none", "cancelled", "disconnected", "unreachable", "incomplete",
	"unexpected", "device", "projection", "unresolved", "authentication", "other",
}

// directiveClasses are the retry decisions an attempt can end with.
var directiveClasses = []string{"throw", "retry", "reconnect", "resolve"}

// Selection picks the events of a capture that concern particular calls or
// outcomes. All set criteria must hold.
type Selection struct {
	// Base is applied by the reader before any other criterion.
	Base log.Filter

	// Call is a module ("system") or a single call ("system.get_sysinfo").
	// Only message and attempt events carry a call.
	Call string

	// Kinds keeps attempt events with one of these fault kinds.
	Kinds []string

	// Directive keeps attempt events whose decision has this class.
	Directive string

	// ErrCode keeps responses carrying this err_code.
	ErrCode *int

	// Failures keeps failed attempts, responses with a nonzero err_code
	// and error events.
	Failures bool
}

// Matches reports whether event is selected. Base is not consulted.
func (s Selection) Matches(event log.Event) bool {
	if s.Call != "" && !matchCall(s.Call, event) {
		return false
	}
	if len(s.Kinds) > 0 && (event.Attempt == nil || !slices.Contains(s.Kinds, event.Attempt.Kind)) {
		return false
	}
	if s.Directive != "" && (event.Attempt == nil || directiveClass(event.Attempt.Directive) != s.Directive) {
		return false
	}
	if s.ErrCode != nil {
		code, ok := responseCode(event)
		if !ok || code != *s.ErrCode {
			return false
		}
	}
	if s.Failures && !failed(event) {
		return false
	}
	return true
}

func matchCall(call string, event log.Event) bool {
	var module, method string
	switch {
	case event.Message != nil:
		module, method = event.Message.Module, event.Message.Method
	case event.Attempt != nil:
		module, method = event.Attempt.Module, event.Attempt.Method
	default:
		return false
	}
	if m, mm, ok := strings.Cut(call, "."); ok {
		return m == module && mm == method
	}
	return call == module
}

// directiveClass reduces a logged directive such as "retry+reconnect after
// 200ms" to its class. Successful attempts have no directive.
func directiveClass(directive string) string {
	switch {
	case directive == "":
		return ""
	case directive == "throw":
		return "throw"
	case strings.Contains(directive, "+resolve"):
		return "resolve"
	case strings.Contains(directive, "+reconnect"):
		return "reconnect"
	default:
		return "retry"
	}
}

func responseCode(event log.Event) (int, bool) {
	m := event.Message
	if m == nil || m.Type != log.MessageTypeResponse || m.ErrorCode == nil {
		return 0, false
	}
	return *m.ErrorCode, true
}

func failed(event log.Event) bool {
	switch {
	case event.Attempt != nil:
		return event.Attempt.Kind != "none"
	case event.Error != nil:
		return true
	default:
		code, ok := responseCode(event)
		return ok && code != 0
	}
}

// SelectionFlags registers the selection flags on fs. The returned function
// builds the Selection once fs has been parsed.
func SelectionFlags(fs *flag.FlagSet) func() (Selection, error) {
	deviceID := fs.String("device-id", "", "Keep events of this device")
	connID := fs.String("conn-id", "", "Keep events of this connection or KLAP session")
	call := fs.String("call", "", "Keep events of a module or module.method")
	kinds := fs.String("kind", "", "Keep attempts with these fault kinds (comma-separated)")
	directive := fs.String("directive", "", "Keep attempts ending in this decision (throw, retry, reconnect, resolve)")
	errCode := fs.String("err-code", "", "Keep responses with this err_code")
	failures := fs.Bool("failures", false, "Keep only failed attempts, device errors and error events")
	since := fs.String("since", "", "Keep events at or after this time (RFC3339)")
	until := fs.String("until", "", "Keep events before this time (RFC3339)")

	return func() (Selection, error) {
		sel := Selection{
			Base:      log.Filter{DeviceID: *deviceID, ConnectionID: *connID},
			Call:      *call,
			Directive: *directive,
			Failures:  *failures,
		}
		if *call != "" {
			sel.Base.Module, _, _ = strings.Cut(*call, ".")
		}

		if *kinds != "" {
			for _, k := range strings.Split(*kinds, ",") {
				k = strings.TrimSpace(k)
				if !slices.Contains(faultKinds, k) {
					return Selection{}, fmt.Errorf("invalid kind: %s (must be one of %s)", k, strings.Join(faultKinds, ", "))
				}
				sel.Kinds = append(sel.Kinds, k)
			}
		}
		if *directive != "" && !slices.Contains(directiveClasses, *directive) {
			return Selection{}, fmt.Errorf("invalid directive: %s (must be one of %s)", *directive, strings.Join(directiveClasses, ", "))
		}
		if *errCode != "" {
			code, err := strconv.Atoi(*errCode)
			if err != nil {
				return Selection{}, fmt.Errorf("invalid err-code: %w", err)
			}
			sel.ErrCode = &code
		}

		var err error
		if sel.Base.TimeStart, err = parseInstant("since", *since); err != nil {
			return Selection{}, err
		}
		if sel.Base.TimeEnd, err = parseInstant("until", *until); err != nil {
			return Selection{}, err
		}
		return sel, nil
	}
}

func parseInstant(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &t, nil
}

// eachSelected calls fn for every selected event of the capture at path.
func eachSelected(path string, sel Selection, fn func(log.Event) error) error {
	reader, err := log.NewFilteredReader(path, sel.Base)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !sel.Matches(event) {
			continue
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

// RunFilter copies the selected events of the capture at path into a new
// capture at output and returns how many were written.
func RunFilter(path, output string, sel Selection) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}

	err = eachSelected(path, sel, func(event log.Event) error {
		logger.Log(event)
		return nil
	})
	if cerr := logger.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output: %w", cerr)
	}
	return logger.Written(), err
}
