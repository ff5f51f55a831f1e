package listener

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// FormatParam is the route variable and query parameter that sets the
// request format explicitly
const FormatParam = "_format"

// maxMultipartMemory bounds the in-memory part of multipart form parsing
const maxMultipartMemory = 32 << 20

// ErrBodyTooLarge is returned when the body exceeds the configured limit
var ErrBodyTooLarge = errors.New("request body too large")

// NewRequestContext captures the parts of r the listener works on. The body
// is read in full and put back so downstream handlers can still read it.
// Form encoded bodies are parsed into Params here, which keeps them out of
// body decoding.
func NewRequestContext(r *http.Request, maxBodyBytes int64) (*RequestContext, error) {
	body, err := readBody(r, maxBodyBytes)
	if err != nil {
		return nil, err
	}
	resetBody(r, body)

	rc := &RequestContext{
		Format:      explicitFormat(r),
		Accept:      r.Header.Get("Accept"),
		ContentType: r.Header.Get("Content-Type"),
		Method:      r.Method,
		Body:        body,
	}
	rc.Params = parseFormParams(r, rc.ContentType, body)

	return rc, nil
}

// explicitFormat returns a format chosen by routing, if any. Format names
// are lowercase everywhere else, so the value is normalized here.
func explicitFormat(r *http.Request) string {
	f := mux.Vars(r)[FormatParam]
	if f == "" {
		f = r.URL.Query().Get(FormatParam)
	}
	return strings.ToLower(strings.TrimSpace(f))
}

// readBody reads the request body up to maxBodyBytes
func readBody(r *http.Request, maxBodyBytes int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()

	if maxBodyBytes <= 0 {
		return io.ReadAll(r.Body)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// resetBody resets the request body with new content
func resetBody(r *http.Request, body []byte) {
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
}

func parseFormParams(r *http.Request, contentType string, body []byte) map[string]any {
	if len(body) == 0 {
		return map[string]any{}
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return map[string]any{}
	}

	var values url.Values
	switch mediaType {
	case "application/x-www-form-urlencoded":
		// Keep whatever pairs parse cleanly
		values, _ = url.ParseQuery(string(body))
	case "multipart/form-data":
		clone := r.Clone(r.Context())
		clone.Body = io.NopCloser(bytes.NewReader(body))
		if err := clone.ParseMultipartForm(maxMultipartMemory); err != nil || clone.MultipartForm == nil {
			return map[string]any{}
		}
		defer clone.MultipartForm.RemoveAll()
		values = clone.MultipartForm.Value
	default:
		return map[string]any{}
	}

	return valuesToParams(values)
}

func valuesToParams(values url.Values) map[string]any {
	params := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
		case 1:
			params[key] = vals[0]
		default:
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			params[key] = list
		}
	}
	return params
}
