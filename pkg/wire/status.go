package wire

import (
	"encoding/json"
	"fmt"
)

// Result fields reporting the device status.
const (
	// ErrorCodeField carries the device error code.
	ErrorCodeField = "err_code"

	// ErrorMessageField carries an optional human-readable description.
	ErrorMessageField = "err_msg"
)

// ErrorCode is the application error code a device reports inside a result.
type ErrorCode int

const (
	// ErrorCodeSuccess indicates the method completed successfully.
	ErrorCodeSuccess ErrorCode = 0

	// ErrorCodeModuleNotSupported indicates the device has no such module.
	ErrorCodeModuleNotSupported ErrorCode = -1

	// ErrorCodeMethodNotSupported indicates the module has no such method.
	ErrorCodeMethodNotSupported ErrorCode = -2
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeSuccess:
		return "SUCCESS"
	case ErrorCodeModuleNotSupported:
		return "MODULE_NOT_SUPPORTED"
	case ErrorCodeMethodNotSupported:
		return "METHOD_NOT_SUPPORTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(c))
	}
}

// IsSuccess returns true if the code indicates success.
func (c ErrorCode) IsSuccess() bool {
	return c == ErrorCodeSuccess
}

// ErrorCodeOf extracts the err_code sibling field from a result object.
// Results that are not objects, or carry no numeric err_code, report
// ErrorCodeSuccess.
func ErrorCodeOf(result json.RawMessage) ErrorCode {
	code, _ := StatusOf(result)
	return code
}

// StatusOf extracts err_code and err_msg from a result object.
func StatusOf(result json.RawMessage) (ErrorCode, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(result, &fields); err != nil {
		return ErrorCodeSuccess, ""
	}

	var msg string
	if raw, ok := fields[ErrorMessageField]; ok {
		_ = json.Unmarshal(raw, &msg)
	}

	raw, ok := fields[ErrorCodeField]
	if !ok {
		return ErrorCodeSuccess, msg
	}
	f, ok := parseNumber(raw)
	if !ok {
		return ErrorCodeSuccess, msg
	}
	return ErrorCode(int(f)), msg
}
