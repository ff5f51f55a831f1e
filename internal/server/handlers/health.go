package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Health handles health and version endpoints
type Health struct {
	logger               *logrus.Entry
	logHealthRequests    bool
	version              string
	shutdownStateHandler func() (bool, time.Time)
}

// NewHealth creates a new health handler
func NewHealth(logger *logrus.Entry, logHealthRequests bool, version string) *Health {
	return &Health{
		logger:            logger,
		logHealthRequests: logHealthRequests,
		version:           version,
	}
}

// SetShutdownStateHandler sets the handler to check shutdown state
func (h *Health) SetShutdownStateHandler(handler func() (bool, time.Time)) {
	h.shutdownStateHandler = handler
}

// Health handles the health check endpoint
func (h *Health) Health(w http.ResponseWriter, r *http.Request) {
	h.logRequest(r, "Health check request")

	if h.shutdownStateHandler != nil {
		if shutdownInitiated, shutdownTime := h.shutdownStateHandler(); shutdownInitiated {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":        "shutting_down",
				"shutdown_time": shutdownTime.Format(time.RFC3339),
				"message":       "Server is shutting down gracefully",
			})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Version handles the version endpoint
func (h *Health) Version(w http.ResponseWriter, r *http.Request) {
	h.logRequest(r, "Version check request")

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
		"service": "format-listener",
	})
}

func (h *Health) logRequest(r *http.Request, msg string) {
	if !h.logHealthRequests {
		return
	}
	h.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"remote": r.RemoteAddr,
	}).Debug(msg)
}

func (h *Health) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WithError(err).Error("Failed to write health response")
	}
}
