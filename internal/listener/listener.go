// Package listener normalizes incoming requests: it settles the format a
// request is processed in and decodes non-form bodies into parameters
// before handlers run.
package listener

import (
	"github.com/guided-traffic/format-listener/internal/format"
	"github.com/sirupsen/logrus"
)

// Config holds the options recognised by the listener
type Config struct {
	DetectFormat  bool
	DefaultFormat string
	DecodeBody    bool
	// Negotiator replaces the Accept header strategy; nil means FirstAccepted
	Negotiator format.Negotiator
	// Table maps MIME types to formats; nil means format.DefaultTable
	Table *format.Table
	// MaxBodyBytes bounds the body read by the HTTP adapter; 0 means unlimited
	MaxBodyBytes int64
}

// Result reports what the listener did with a request
type Result struct {
	Source  format.Source
	Format  string
	Outcome Outcome
}

// Listener runs format resolution and body decoding for each request
type Listener struct {
	logger       *logrus.Entry
	resolver     *format.Resolver
	decoder      *BodyDecoder
	registry     DecoderRegistry
	decodeBody   bool
	maxBodyBytes int64
}

// New creates a listener. The registry is only consulted when body
// decoding is enabled.
func New(logger *logrus.Entry, cfg Config, registry DecoderRegistry) *Listener {
	resolver := format.NewResolver(format.ResolverConfig{
		DetectFormat:  cfg.DetectFormat,
		DefaultFormat: cfg.DefaultFormat,
		Negotiator:    cfg.Negotiator,
		Table:         cfg.Table,
	})

	return &Listener{
		logger:       logger,
		resolver:     resolver,
		decoder:      NewBodyDecoder(logger, resolver.Table()),
		registry:     registry,
		decodeBody:   cfg.DecodeBody && registry != nil,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Table returns the MIME table shared by resolution and decoding
func (l *Listener) Table() *format.Table {
	return l.resolver.Table()
}

// OnRequest resolves the request format and, when enabled, decodes the
// body. The only error returned is a *codec.DecodeError.
func (l *Listener) OnRequest(rc *RequestContext) (Result, error) {
	source := l.resolver.Resolve(rc)
	result := Result{
		Source:  source,
		Format:  rc.Format,
		Outcome: OutcomeDisabled,
	}

	if !l.decodeBody {
		return result, nil
	}

	outcome, err := l.decoder.MaybeDecode(rc, l.registry)
	result.Outcome = outcome
	if err != nil {
		return result, err
	}

	l.logger.WithFields(logrus.Fields{
		"format":  result.Format,
		"source":  result.Source,
		"outcome": result.Outcome,
	}).Debug("Request normalized")

	return result, nil
}
