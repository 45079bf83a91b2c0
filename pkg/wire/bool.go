package wire

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Bool is a boolean encoded by the device as a JSON number.
//
// Reading accepts any JSON number (nonzero is true). Any other token reads as
// false without an error. Writing emits 1 or 0.
type Bool bool

// MarshalJSON implements json.Marshaler.
func (b Bool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (b *Bool) UnmarshalJSON(data []byte) error {
	v, _ := ParseBool(data)
	*b = Bool(v)
	return nil
}

// ParseBool interprets raw as a numeric boolean. ok is false when raw is not
// a JSON number, in which case value is false.
func ParseBool(raw json.RawMessage) (value, ok bool) {
	f, ok := parseNumber(raw)
	if !ok {
		return false, false
	}
	return f != 0, true
}

func parseNumber(raw []byte) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	// Reject non-number JSON tokens up front; ParseFloat would accept
	// "Inf" and "NaN" spellings that are not JSON numbers.
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
