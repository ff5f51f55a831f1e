package format

import (
	"mime"
	"strings"
)

// Table maps format identifiers to the MIME types that represent them.
// It is built once at startup and only read afterwards.
type Table struct {
	order   []string
	formats map[string][]string
	byMime  map[string]string
}

// defaultMimeTypes holds the formats known out of the box
var defaultMimeTypes = []struct {
	format    string
	mimeTypes []string
}{
	{"html", []string{"text/html", "application/xhtml+xml"}},
	{"txt", []string{"text/plain"}},
	{"js", []string{"application/javascript", "application/x-javascript", "text/javascript"}},
	{"css", []string{"text/css"}},
	{"json", []string{"application/json", "application/x-json"}},
	{"xml", []string{"text/xml", "application/xml", "application/x-xml"}},
	{"rdf", []string{"application/rdf+xml"}},
	{"atom", []string{"application/atom+xml"}},
	{"rss", []string{"application/rss+xml"}},
	{"yaml", []string{"application/x-yaml", "application/yaml", "text/yaml"}},
	{"form", []string{"application/x-www-form-urlencoded", "multipart/form-data"}},
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		formats: make(map[string][]string),
		byMime:  make(map[string]string),
	}
}

// DefaultTable returns a table populated with the standard web formats
func DefaultTable() *Table {
	t := NewTable()
	for _, entry := range defaultMimeTypes {
		t.Add(entry.format, entry.mimeTypes...)
	}
	return t
}

// Add registers MIME types for a format. A MIME type already claimed by
// another format keeps its first owner.
func (t *Table) Add(format string, mimeTypes ...string) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return
	}
	if _, ok := t.formats[format]; !ok {
		t.order = append(t.order, format)
		t.formats[format] = nil
	}
	for _, mt := range mimeTypes {
		mt = normalizeMimeType(mt)
		if mt == "" {
			continue
		}
		if _, taken := t.byMime[mt]; !taken {
			t.byMime[mt] = format
		}
		if !contains(t.formats[format], mt) {
			t.formats[format] = append(t.formats[format], mt)
		}
	}
}

// Format maps a MIME type (parameters allowed) to its format, or "" if unknown
func (t *Table) Format(mimeType string) string {
	if t == nil {
		return ""
	}
	return t.byMime[normalizeMimeType(mimeType)]
}

// MimeType returns the preferred MIME type for a format, or "" if unknown
func (t *Table) MimeType(format string) string {
	if t == nil {
		return ""
	}
	if types := t.formats[strings.ToLower(format)]; len(types) > 0 {
		return types[0]
	}
	return ""
}

// MimeTypes returns every MIME type registered for a format
func (t *Table) MimeTypes(format string) []string {
	if t == nil {
		return nil
	}
	types := t.formats[strings.ToLower(format)]
	out := make([]string, len(types))
	copy(out, types)
	return out
}

// Has reports whether the format is known
func (t *Table) Has(format string) bool {
	if t == nil {
		return false
	}
	_, ok := t.formats[strings.ToLower(format)]
	return ok
}

// Formats lists the known formats in registration order
func (t *Table) Formats() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// normalizeMimeType lowercases a MIME type and strips its parameters
func normalizeMimeType(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mediaType
	}
	// Fall back to a plain split for values mime rejects (e.g. stray parameters)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
