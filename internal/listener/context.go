package listener

import "context"

// RequestContext is the per-request state the listener reads and updates
type RequestContext struct {
	// Format is the resolved request format; "" means unset
	Format      string
	Accept      string
	ContentType string
	Method      string
	// Params holds the parsed body parameters
	Params map[string]any
	Body   []byte
}

// RequestFormat implements format.Request
func (rc *RequestContext) RequestFormat() string {
	return rc.Format
}

// SetRequestFormat implements format.Request
func (rc *RequestContext) SetRequestFormat(format string) {
	rc.Format = format
}

// AcceptHeader implements format.Request
func (rc *RequestContext) AcceptHeader() string {
	return rc.Accept
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying rc
func NewContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the RequestContext stored by the middleware, if any
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(*RequestContext)
	return rc, ok
}
