package listener

import (
	"errors"
	"net/http"

	"github.com/guided-traffic/format-listener/internal/codec"
	"github.com/guided-traffic/format-listener/internal/monitoring"
	"github.com/guided-traffic/format-listener/internal/response"
)

const otherFormat = "other"

// Middleware runs the listener in front of next. The RequestContext is
// stored on the request context for handlers; a body that fails to decode
// ends the request with 400 Bad Request.
func (l *Listener) Middleware(next http.Handler) http.Handler {
	errorWriter := response.NewErrorWriter(l.logger)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc, err := NewRequestContext(r, l.maxBodyBytes)
		if err != nil {
			if errors.Is(err, ErrBodyTooLarge) {
				errorWriter.WriteError(w, r, http.StatusRequestEntityTooLarge, response.ErrorTypeTooLarge, err)
				return
			}
			errorWriter.WriteError(w, r, http.StatusBadRequest, response.ErrorTypeValidation, err)
			return
		}

		result, err := l.OnRequest(rc)

		monitoring.RecordFormatResolution(string(result.Source), l.metricFormat(result.Format))
		if result.Outcome != OutcomeDisabled && result.Outcome != OutcomeSkipped {
			monitoring.RecordBodyDecode(l.Table().Format(rc.ContentType), string(result.Outcome), len(rc.Body))
		}

		if err != nil {
			var decodeErr *codec.DecodeError
			if errors.As(err, &decodeErr) {
				errorWriter.WriteDecodeError(w, r, decodeErr.Format, decodeErr)
				return
			}
			errorWriter.WriteError(w, r, http.StatusInternalServerError, response.ErrorTypeInternal, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), rc)))
	})
}

// metricFormat keeps the format label bounded. Explicit formats come from
// the client, so anything the table does not know is reported as "other".
func (l *Listener) metricFormat(f string) string {
	if f == "" || l.Table().Has(f) {
		return f
	}
	return otherFormat
}
