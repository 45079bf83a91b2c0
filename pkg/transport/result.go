package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

// DecodeError classifies a wire.Deserialize failure. Framing errors become
// *IncompleteResponseError, everything else *UnexpectedResponseError.
func DecodeError(err error, endpoint, module, method string) error {
	var headerErr *wire.HeaderTooShortError
	var bodyErr *wire.BodyTooShortError
	if errors.As(err, &headerErr) || errors.As(err, &bodyErr) {
		return &IncompleteResponseError{Endpoint: endpoint, Module: module, Method: method, Err: err}
	}
	return &UnexpectedResponseError{Endpoint: endpoint, Module: module, Method: method, Err: err}
}

// Complete checks the device error code of result and applies project.
// It is shared by every transport speaking the JSON envelope.
func Complete(result json.RawMessage, endpoint, module, method string, project wire.Projection) (any, error) {
	if code, msg := wire.StatusOf(result); !code.IsSuccess() {
		return nil, &DeviceError{Code: code, Message: msg, Module: module, Method: method, Endpoint: endpoint}
	}

	if project == nil {
		return result, nil
	}
	v, err := applyProjection(project, result)
	if err != nil {
		return nil, &ClientProjectionError{
			Module:   module,
			Method:   method,
			Endpoint: endpoint,
			Result:   result,
			Err:      err,
		}
	}
	return v, nil
}

// applyProjection runs project, turning a panic into ErrProjectionPanic.
func applyProjection(project wire.Projection, result json.RawMessage) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("%w: %v", ErrProjectionPanic, r)
		}
	}()
	return project(result)
}
