package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/guided-traffic/format-listener/internal/listener"
	"github.com/guided-traffic/format-listener/internal/monitoring"
	"github.com/guided-traffic/format-listener/internal/server/handlers"
	"github.com/guided-traffic/format-listener/internal/server/middleware"
)

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes(router *mux.Router) {
	if s.config.Monitoring.Enabled {
		router.Use(monitoring.HTTPMiddleware)
	}

	healthHandler := handlers.NewHealth(s.logger, s.config.LogHealthRequests, s.version)
	healthHandler.SetShutdownStateHandler(s.tracker.ShutdownState)

	// Health and version endpoints bypass the listener
	healthRouter := router.NewRoute().Subrouter()
	healthRouter.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	healthRouter.HandleFunc("/version", healthHandler.Version).Methods(http.MethodGet)

	// Order matters: cors answers preflights, the listener normalizes the
	// request, logging reads the resolved format
	apiRouter := router.NewRoute().Subrouter()
	apiRouter.Use(s.tracker.Middleware)
	apiRouter.Use(middleware.NewCORS().Middleware)
	apiRouter.Use(s.listener.Middleware)
	apiRouter.Use(middleware.NewLogger(s.logger).Middleware)

	echo := handlers.NewEcho(s.logger, s.registry, s.listener.Table())
	methods := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions}

	// The path suffix sets the format explicitly, e.g. /echo.xml
	apiRouter.Handle("/echo.{"+listener.FormatParam+"}", echo).Methods(methods...)
	apiRouter.Handle("/echo", echo).Methods(methods...)
}
