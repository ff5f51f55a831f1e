// Package codec holds the wire codecs used to decode request bodies and the
// registry that hands them out by format.
package codec

import (
	"errors"
	"fmt"
)

// Codec is any wire codec. What it can do is expressed through the
// Decoder and Encoder capabilities.
type Codec interface {
	// Name returns the format the codec was built for
	Name() string
}

// Decoder turns raw bytes in the given format into a generic value
type Decoder interface {
	Codec
	Decode(data []byte, format string) (any, error)
}

// Encoder turns a generic value into raw bytes in the given format
type Encoder interface {
	Codec
	Encode(v any, format string) ([]byte, error)
}

// Factory builds a codec for a format
type Factory func(format string) (Codec, error)

// FormatMap maps format identifiers to codec locators
type FormatMap map[string]string

// ErrUnknownLocator is returned when no factory is registered for a locator
var ErrUnknownLocator = errors.New("codec: unknown locator")

// DecodeError reports a body that could not be decoded in its declared format
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s body: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Built-in locators
const (
	LocatorJSON = "codec.json"
	LocatorXML  = "codec.xml"
	LocatorYAML = "codec.yaml"
)

// DefaultFormatMap wires the built-in formats to the built-in codecs
func DefaultFormatMap() FormatMap {
	return FormatMap{
		"json": LocatorJSON,
		"xml":  LocatorXML,
		"yaml": LocatorYAML,
	}
}
