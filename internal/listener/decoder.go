package listener

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/guided-traffic/format-listener/internal/codec"
	"github.com/guided-traffic/format-listener/internal/format"
	"github.com/sirupsen/logrus"
)

// DecoderRegistry supplies decoders by format. Implementations must be safe
// for concurrent use and return nil when no decoder is available.
type DecoderRegistry interface {
	Decoder(format string) codec.Decoder
}

// Outcome describes what MaybeDecode did with a request
type Outcome string

const (
	// OutcomeDisabled means body decoding is switched off
	OutcomeDisabled Outcome = "disabled"
	// OutcomeSkipped means the method carries no body or params were already parsed
	OutcomeSkipped Outcome = "skipped"
	// OutcomeUnmappable means the content type maps to no known format
	OutcomeUnmappable Outcome = "unmappable"
	// OutcomeNoDecoder means the registry had no decoder for the format
	OutcomeNoDecoder Outcome = "no_decoder"
	// OutcomeDecoded means Params were replaced with the decoded body
	OutcomeDecoded Outcome = "decoded"
	// OutcomeFailed means the body was malformed for its format
	OutcomeFailed Outcome = "failed"
)

var bodyMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// BodyDecoder replaces a request's parameters with its decoded body when
// the body is in a non-form encoding and nothing was parsed yet
type BodyDecoder struct {
	logger *logrus.Entry
	table  *format.Table
}

// NewBodyDecoder creates a body decoder mapping content types through table
func NewBodyDecoder(logger *logrus.Entry, table *format.Table) *BodyDecoder {
	if table == nil {
		table = format.DefaultTable()
	}
	return &BodyDecoder{
		logger: logger,
		table:  table,
	}
}

// MaybeDecode decodes rc.Body into rc.Params. Lookup misses are reported
// through the outcome only; a malformed body returns a *codec.DecodeError
// and leaves rc.Params untouched.
func (d *BodyDecoder) MaybeDecode(rc *RequestContext, registry DecoderRegistry) (Outcome, error) {
	if len(rc.Params) > 0 || !bodyMethods[rc.Method] {
		return OutcomeSkipped, nil
	}

	contentFormat := d.table.Format(rc.ContentType)
	if contentFormat == "" {
		return OutcomeUnmappable, nil
	}

	decoder := registry.Decoder(contentFormat)
	if decoder == nil {
		return OutcomeNoDecoder, nil
	}

	if len(rc.Body) == 0 {
		rc.Params = map[string]any{}
		return OutcomeDecoded, nil
	}

	decoded, err := decoder.Decode(rc.Body, contentFormat)
	if err != nil {
		return OutcomeFailed, &codec.DecodeError{Format: contentFormat, Err: err}
	}

	rc.Params = toParams(decoded)

	d.logger.WithFields(logrus.Fields{
		"format": contentFormat,
		"params": len(rc.Params),
	}).Debug("Decoded request body")

	return OutcomeDecoded, nil
}

// toParams coerces a decoded value into a fresh parameter map. Lists are
// keyed by index, scalars land under "0" and null yields an empty map.
func toParams(v any) map[string]any {
	switch value := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		params := make(map[string]any, len(value))
		for k, item := range value {
			params[k] = item
		}
		return params
	case map[any]any:
		params := make(map[string]any, len(value))
		for k, item := range value {
			params[fmt.Sprint(k)] = item
		}
		return params
	case []any:
		params := make(map[string]any, len(value))
		for i, item := range value {
			params[strconv.Itoa(i)] = item
		}
		return params
	default:
		return map[string]any{"0": value}
	}
}
