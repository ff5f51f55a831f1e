package handlers

import (
	"net/http"

	"github.com/guided-traffic/format-listener/internal/codec"
	"github.com/guided-traffic/format-listener/internal/format"
	"github.com/guided-traffic/format-listener/internal/listener"
	"github.com/sirupsen/logrus"
)

// EncoderRegistry supplies encoders by format
type EncoderRegistry interface {
	Encoder(format string) codec.Encoder
}

// Echo answers with the normalized request: the resolved format and the
// parameters seen by handlers. The response is written in the resolved
// format when an encoder exists for it, JSON otherwise.
type Echo struct {
	logger   *logrus.Entry
	registry EncoderRegistry
	table    *format.Table
}

// NewEcho creates the echo handler
func NewEcho(logger *logrus.Entry, registry EncoderRegistry, table *format.Table) *Echo {
	return &Echo{
		logger:   logger,
		registry: registry,
		table:    table,
	}
}

// ServeHTTP implements http.Handler
func (e *Echo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc, ok := listener.FromContext(r.Context())
	if !ok {
		rc = &listener.RequestContext{Method: r.Method}
	}

	params := rc.Params
	if params == nil {
		params = map[string]any{}
	}
	body := map[string]any{
		"method": rc.Method,
		"format": rc.Format,
		"params": params,
	}

	outFormat := rc.Format
	enc := e.registry.Encoder(outFormat)
	if enc == nil {
		outFormat = "json"
		enc = codec.JSONCodec{}
	}

	data, err := enc.Encode(body, outFormat)
	if err != nil {
		e.logger.WithError(err).WithField("format", outFormat).Warn("Falling back to JSON response")
		outFormat = "json"
		if data, err = (codec.JSONCodec{}).Encode(body, outFormat); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", e.table.MimeType(outFormat))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		e.logger.WithError(err).Error("Failed to write echo response")
	}
}
