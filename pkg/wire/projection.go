package wire

import "encoding/json"

// Projection maps the raw result of a call to the caller's value.
// An error returned by a projection is a caller bug, never retried.
type Projection func(result json.RawMessage) (any, error)

// Raw is the identity projection. It returns the result as a
// json.RawMessage.
func Raw(result json.RawMessage) (any, error) {
	return result, nil
}

// Into returns a projection that unmarshals the result into a new T.
func Into[T any]() Projection {
	return func(result json.RawMessage) (any, error) {
		var v T
		if err := json.Unmarshal(result, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
