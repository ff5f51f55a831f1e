package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// JSONCodec decodes and encodes JSON documents
type JSONCodec struct{}

// NewJSONCodec is the Factory for LocatorJSON
func NewJSONCodec(string) (Codec, error) {
	return JSONCodec{}, nil
}

func (JSONCodec) Name() string { return "json" }

// Decode parses a single JSON document. Trailing data is rejected.
func (JSONCodec) Decode(data []byte, _ string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

func (JSONCodec) Encode(v any, _ string) ([]byte, error) {
	return json.Marshal(v)
}
