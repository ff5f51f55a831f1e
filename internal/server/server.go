package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/guided-traffic/format-listener/internal/codec"
	"github.com/guided-traffic/format-listener/internal/config"
	"github.com/guided-traffic/format-listener/internal/listener"
	"github.com/guided-traffic/format-listener/internal/server/middleware"
	"github.com/sirupsen/logrus"
)

// Server hosts the listener in front of a small HTTP API
type Server struct {
	httpServer *http.Server
	config     *config.Config
	logger     *logrus.Entry
	registry   *codec.Registry
	listener   *listener.Listener
	tracker    *middleware.RequestTracker
	version    string
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, version string) (*Server, error) {
	logger := logrus.WithField("component", "server")

	registry := codec.NewRegistry(
		logrus.WithField("component", "codec-registry"),
		cfg.Listener.FormatMap(),
	)

	negotiator := cfg.Listener.Negotiator()
	if negotiator == nil {
		return nil, fmt.Errorf("unknown negotiation strategy: %s", cfg.Listener.Negotiation)
	}

	l := listener.New(
		logrus.WithField("component", "listener"),
		listener.Config{
			DetectFormat:  cfg.Listener.DetectFormat,
			DefaultFormat: cfg.Listener.DefaultFormat,
			DecodeBody:    cfg.Listener.DecodeBody,
			Negotiator:    negotiator,
			Table:         cfg.Listener.Table(),
			MaxBodyBytes:  cfg.Listener.MaxBodyBytes,
		},
		registry,
	)

	server := &Server{
		config:   cfg,
		logger:   logger,
		registry: registry,
		listener: l,
		tracker:  middleware.NewRequestTracker(),
		version:  version,
	}

	router := mux.NewRouter()
	server.setupRoutes(router)

	server.httpServer = &http.Server{
		Addr:         cfg.BindAddress,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"detect_format":  cfg.Listener.DetectFormat,
		"default_format": cfg.Listener.DefaultFormat,
		"decode_body":    cfg.Listener.DecodeBody,
		"negotiation":    cfg.Listener.Negotiation,
		"formats":        registry.Formats(),
	}).Info("Listener configured")

	return server, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the server until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	serverErrChan := make(chan error, 1)
	go func() {
		if s.config.TLS.Enabled {
			s.logger.WithFields(logrus.Fields{
				"address":   s.config.BindAddress,
				"cert_file": s.config.TLS.CertFile,
				"key_file":  s.config.TLS.KeyFile,
			}).Info("Starting HTTPS server")

			if err := s.httpServer.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile); err != nil && err != http.ErrServerClosed {
				serverErrChan <- fmt.Errorf("HTTPS server failed: %w", err)
			}
		} else {
			s.logger.WithField("address", s.config.BindAddress).Info("Starting HTTP server")
			if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrChan <- fmt.Errorf("HTTP server failed: %w", err)
			}
		}
	}()

	select {
	case err := <-serverErrChan:
		return err
	case <-ctx.Done():
		return s.shutdown()
	}
}

func (s *Server) shutdown() error {
	s.tracker.BeginShutdown()

	timeout := time.Duration(s.config.ShutdownTimeout) * time.Second
	s.logger.WithFields(logrus.Fields{
		"active_requests": s.tracker.Active(),
		"timeout":         timeout,
	}).Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Error("Failed to gracefully shutdown server")
		return err
	}

	s.logger.Info("Server stopped")
	return nil
}
