package cache

import "encoding/json"

// Codec serializes values into the opaque byte form stored by both
// tiers. Failures surface as *CodecError and the affected value is
// passed through uncached.
type Codec interface {
	// Encode serializes a value for storage.
	Encode(v any) ([]byte, error)

	// Decode deserializes stored bytes into the target.
	Decode(data []byte, target any) error
}

// JSONCodec stores values as JSON. It is the default codec.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode serializes v as JSON.
func (c *JSONCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &CodecError{Op: "encode", Err: err}
	}
	return data, nil
}

// Decode deserializes JSON into target.
func (c *JSONCodec) Decode(data []byte, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return &CodecError{Op: "decode", Err: err}
	}
	return nil
}

// Ensure JSONCodec implements Codec
var _ Codec = (*JSONCodec)(nil)
