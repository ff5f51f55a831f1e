package codec

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Registry hands out codecs by format. Codecs are built lazily from the
// factory registered for the format's locator and memoized; concurrent first
// use of a format builds it at most once.
type Registry struct {
	logger    *logrus.Entry
	formats   FormatMap
	factories map[string]Factory

	mu     sync.RWMutex
	codecs map[string]Codec
	group  singleflight.Group
}

// NewRegistry creates a registry for the given format map. The built-in
// JSON, XML and YAML factories are registered up front.
func NewRegistry(logger *logrus.Entry, formats FormatMap) *Registry {
	copied := make(FormatMap, len(formats))
	for format, locator := range formats {
		copied[format] = locator
	}

	r := &Registry{
		logger:    logger,
		formats:   copied,
		factories: make(map[string]Factory),
		codecs:    make(map[string]Codec),
	}
	r.Register(LocatorJSON, NewJSONCodec)
	r.Register(LocatorXML, NewXMLCodec)
	r.Register(LocatorYAML, NewYAMLCodec)
	return r
}

// Register binds a factory to a locator. It must be called before the
// registry serves requests.
func (r *Registry) Register(locator string, factory Factory) {
	r.factories[locator] = factory
}

// Formats returns the configured formats
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.formats))
	for format := range r.formats {
		out = append(out, format)
	}
	return out
}

// Decoder returns a decoder for the format, or nil if none can be supplied
func (r *Registry) Decoder(format string) Decoder {
	c := r.codec(format)
	if c == nil {
		return nil
	}
	dec, ok := c.(Decoder)
	if !ok {
		return nil
	}
	return dec
}

// Encoder returns an encoder for the format, or nil if none can be supplied
func (r *Registry) Encoder(format string) Encoder {
	c := r.codec(format)
	if c == nil {
		return nil
	}
	enc, ok := c.(Encoder)
	if !ok {
		return nil
	}
	return enc
}

func (r *Registry) codec(format string) Codec {
	if format == "" || r.formats[format] == "" {
		return nil
	}

	r.mu.RLock()
	c, ok := r.codecs[format]
	r.mu.RUnlock()
	if ok {
		return c
	}

	v, err, _ := r.group.Do(format, func() (any, error) {
		r.mu.RLock()
		c, ok := r.codecs[format]
		r.mu.RUnlock()
		if ok {
			return c, nil
		}

		c, err := r.build(format)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.codecs[format] = c
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		r.logger.WithError(err).WithField("format", format).Warn("Codec unavailable")
		return nil
	}
	return v.(Codec)
}

func (r *Registry) build(format string) (Codec, error) {
	locator := r.formats[format]
	factory, ok := r.factories[locator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocator, locator)
	}

	c, err := factory(format)
	if err != nil {
		return nil, fmt.Errorf("failed to build codec %s: %w", locator, err)
	}
	if c == nil {
		return nil, fmt.Errorf("factory for %s returned no codec", locator)
	}

	r.logger.WithFields(logrus.Fields{
		"format":  format,
		"locator": locator,
	}).Debug("Codec constructed")
	return c, nil
}
