package format

import (
	"strings"

	"github.com/munnerz/goautoneg"
)

// Negotiator picks a format from an Accept header. It returns "" when the
// header carries no usable signal.
type Negotiator interface {
	Negotiate(accept string, table *Table) string
}

// NegotiatorFunc adapts a plain function to the Negotiator interface
type NegotiatorFunc func(accept string, table *Table) string

// Negotiate calls f
func (f NegotiatorFunc) Negotiate(accept string, table *Table) string {
	return f(accept, table)
}

// FirstAccepted maps the most preferred media range to a format. It does not
// fall through to lower ranked entries when the top entry is unknown.
type FirstAccepted struct{}

// Negotiate implements Negotiator
func (FirstAccepted) Negotiate(accept string, table *Table) string {
	entries := ParseAccept(accept)
	if len(entries) == 0 {
		return ""
	}
	return table.Format(entries[0].MimeType)
}

// WildcardNegotiator performs full content negotiation: wildcard ranges
// (*/* and type/*) are honoured and every acceptable range is tried in
// preference order. Candidates restricts and orders the formats that may be
// chosen; when empty every format in the table is a candidate.
type WildcardNegotiator struct {
	Candidates []string
}

// Negotiate implements Negotiator
func (n WildcardNegotiator) Negotiate(accept string, table *Table) string {
	if strings.TrimSpace(accept) == "" || table == nil {
		return ""
	}

	candidates := n.Candidates
	if len(candidates) == 0 {
		candidates = table.Formats()
	}

	alternatives := make([]string, 0, len(candidates))
	for _, format := range candidates {
		alternatives = append(alternatives, table.MimeTypes(format)...)
	}
	if len(alternatives) == 0 {
		return ""
	}

	chosen := goautoneg.Negotiate(accept, alternatives)
	if chosen == "" {
		return ""
	}
	return table.Format(chosen)
}

// NewNegotiator returns the named strategy. Unknown names yield nil.
func NewNegotiator(name string, candidates []string) Negotiator {
	switch strings.ToLower(name) {
	case "", "first":
		return FirstAccepted{}
	case "wildcard":
		return WildcardNegotiator{Candidates: candidates}
	default:
		return nil
	}
}
