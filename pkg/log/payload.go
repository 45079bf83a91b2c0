package log

import (
	"encoding/json"
	"reflect"
)

// mapStringAnyType makes decoded payload objects map[string]any, matching
// what encoding/json produces for the same document.
var mapStringAnyType = reflect.TypeOf(map[string]any(nil))

// PayloadOf converts a raw JSON document into a value that can be stored in
// MessageEvent.Payload. Invalid JSON is kept as a string.
func PayloadOf(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
