package format

// Request is the view of an in-flight request the resolver needs
type Request interface {
	RequestFormat() string
	SetRequestFormat(format string)
	AcceptHeader() string
}

// Source tells where a resolved format came from
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceAccept   Source = "accept"
	SourceDefault  Source = "default"
	SourceNone     Source = "none"
)

// ResolverConfig holds the options recognised by the resolver
type ResolverConfig struct {
	DetectFormat  bool
	DefaultFormat string
	Negotiator    Negotiator
	Table         *Table
}

// Resolver assigns a canonical format to each request using the precedence
// explicit format, then Accept header, then configured default.
type Resolver struct {
	detect        bool
	defaultFormat string
	negotiator    Negotiator
	table         *Table
}

// NewResolver creates a resolver. A nil negotiator falls back to
// FirstAccepted and a nil table to DefaultTable.
func NewResolver(cfg ResolverConfig) *Resolver {
	negotiator := cfg.Negotiator
	if negotiator == nil {
		negotiator = FirstAccepted{}
	}
	table := cfg.Table
	if table == nil {
		table = DefaultTable()
	}
	return &Resolver{
		detect:        cfg.DetectFormat,
		defaultFormat: cfg.DefaultFormat,
		negotiator:    negotiator,
		table:         table,
	}
}

// Table returns the MIME table the resolver negotiates against
func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve sets the request format when it is not already set. A format set
// by an earlier stage is never overridden. Leaving the format empty is a
// valid outcome and reported as SourceNone.
func (r *Resolver) Resolve(req Request) Source {
	if req.RequestFormat() != "" {
		return SourceExplicit
	}

	if !r.detect {
		if r.defaultFormat == "" {
			return SourceNone
		}
		req.SetRequestFormat(r.defaultFormat)
		return SourceDefault
	}

	if negotiated := r.negotiator.Negotiate(req.AcceptHeader(), r.table); negotiated != "" {
		req.SetRequestFormat(negotiated)
		return SourceAccept
	}

	req.SetRequestFormat(r.defaultFormat)
	if r.defaultFormat == "" {
		return SourceNone
	}
	return SourceDefault
}
