package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the big-endian length header in bytes.
	LengthPrefixSize = 4
)

// Serialize returns the framed, ciphered request for module.method.
func Serialize(module, method string, params any) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeTo(&buf, module, method, params); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SerializeTo appends the framed, ciphered request to buf. On error buf is
// left as it was.
//
// A length placeholder is reserved first, the JSON envelope written after
// it, then the placeholder is patched and the body (not the header) ciphered.
func SerializeTo(buf *bytes.Buffer, module, method string, params any) error {
	start := buf.Len()

	var header [LengthPrefixSize]byte
	buf.Write(header[:])

	if err := writeEnvelope(buf, module, method, params); err != nil {
		buf.Truncate(start)
		return err
	}

	frame := buf.Bytes()[start:]
	body := frame[LengthPrefixSize:]
	binary.BigEndian.PutUint32(frame[:LengthPrefixSize], uint32(len(body)))

	c := NewCipher()
	c.Encrypt(body)
	return nil
}

// Deserialize decodes a framed response and returns the raw JSON found at
// module.method.
//
// Errors are *HeaderTooShortError, *BodyTooShortError or *MessageShapeError.
// Bytes past the declared length are ignored. buf is not modified.
func Deserialize(buf []byte, module, method string) (json.RawMessage, error) {
	if len(buf) < LengthPrefixSize {
		return nil, &HeaderTooShortError{Actual: len(buf)}
	}

	length := binary.BigEndian.Uint32(buf[:LengthPrefixSize])
	body := buf[LengthPrefixSize:]
	if uint64(len(body)) < uint64(length) {
		return nil, &BodyTooShortError{IndicatedLength: int(length), ActualLength: len(body)}
	}

	plain := bytes.Clone(body[:length])
	c := NewCipher()
	c.Decrypt(plain)

	return DecodeEnvelope(plain, module, method)
}

// FrameLength returns the total frame size (header included) declared by
// the header at the start of buf. ok is false until the header is complete.
func FrameLength(buf []byte) (total int, ok bool) {
	if len(buf) < LengthPrefixSize {
		return 0, false
	}
	return LengthPrefixSize + int(binary.BigEndian.Uint32(buf[:LengthPrefixSize])), true
}

// EncodeEnvelope returns the unframed, plain JSON envelope
// {"<module>":{"<method>":<params>}}.
func EncodeEnvelope(module, method string, params any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeEnvelope(&buf, module, method, params); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEnvelope parses a plain JSON envelope and returns the value at
// module.method. Keys are matched exactly.
func DecodeEnvelope(data []byte, module, method string) (json.RawMessage, error) {
	var modules map[string]json.RawMessage
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, &MessageShapeError{Module: module, Method: method, Err: err}
	}

	rawMethods, ok := modules[module]
	if !ok {
		return nil, &MessageShapeError{Module: module, Method: method}
	}

	var methods map[string]json.RawMessage
	if err := json.Unmarshal(rawMethods, &methods); err != nil {
		return nil, &MessageShapeError{Module: module, Method: method, Err: err}
	}

	result, ok := methods[method]
	if !ok {
		return nil, &MessageShapeError{Module: module, Method: method}
	}
	return result, nil
}

func writeEnvelope(buf *bytes.Buffer, module, method string, params any) error {
	envelope := map[string]map[string]any{
		module: {method: params},
	}

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(envelope); err != nil {
		return fmt.Errorf("failed to encode %s.%s: %w", module, method, err)
	}

	// Encoder terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
