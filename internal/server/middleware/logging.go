package middleware

import (
	"net/http"
	"time"

	"github.com/guided-traffic/format-listener/internal/listener"
	"github.com/sirupsen/logrus"
)

// Logger provides HTTP request logging
type Logger struct {
	logger *logrus.Entry
}

// NewLogger creates a new logging middleware
func NewLogger(logger *logrus.Entry) *Logger {
	return &Logger{
		logger: logger,
	}
}

// Middleware returns the HTTP middleware function. It must run after the
// listener so the resolved format is available.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		fields := logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent(),
		}
		if rc, ok := listener.FromContext(r.Context()); ok {
			fields["format"] = rc.Format
			fields["params"] = len(rc.Params)
		}

		l.logger.WithFields(fields).Info("HTTP request processed")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
