package response

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id back to the client
const RequestIDHeader = "X-Request-ID"

// ErrorType classifies error responses
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeTooLarge   ErrorType = "request_too_large"
	ErrorTypeNotFound   ErrorType = "not_found_error"
	ErrorTypeInternal   ErrorType = "internal_error"
)

// APIError is the body of an error response
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Format    string    `json:"format,omitempty"`
	RequestID string    `json:"request_id"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// ErrorWriter writes JSON error responses
type ErrorWriter struct {
	logger *logrus.Entry
}

// NewErrorWriter creates a new error response writer
func NewErrorWriter(logger *logrus.Entry) *ErrorWriter {
	return &ErrorWriter{
		logger: logger,
	}
}

// WriteError writes an error response and logs it by severity
func (e *ErrorWriter) WriteError(w http.ResponseWriter, r *http.Request, statusCode int, errorType ErrorType, err error) {
	e.write(w, r, statusCode, APIError{Type: errorType, Message: err.Error()}, err)
}

// WriteDecodeError writes the 400 response for a body that failed to decode
func (e *ErrorWriter) WriteDecodeError(w http.ResponseWriter, r *http.Request, format string, err error) {
	e.write(w, r, http.StatusBadRequest, APIError{
		Type:    ErrorTypeValidation,
		Message: err.Error(),
		Format:  format,
	}, err)
}

func (e *ErrorWriter) write(w http.ResponseWriter, r *http.Request, statusCode int, apiErr APIError, cause error) {
	apiErr.RequestID = RequestID(r)

	logEntry := e.logger.WithError(cause).WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"error_type":  apiErr.Type,
		"status_code": statusCode,
		"request_id":  apiErr.RequestID,
	})
	if statusCode >= 500 {
		logEntry.Error("Request failed")
	} else {
		logEntry.Warn("Request rejected with client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(RequestIDHeader, apiErr.RequestID)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResponse{Error: apiErr}); err != nil {
		e.logger.WithError(err).Error("Failed to write error response")
	}
}

// RequestID returns the client supplied request id or a fresh one
func RequestID(r *http.Request) string {
	if id := r.Header.Get(RequestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
