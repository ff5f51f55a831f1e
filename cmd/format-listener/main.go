package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/guided-traffic/format-listener/internal/config"
	"github.com/guided-traffic/format-listener/internal/monitoring"
	"github.com/guided-traffic/format-listener/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Build information injected at build time
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "format-listener",
		Short: "Format listener normalizes request formats and bodies",
		Long: `Format listener runs in front of an HTTP API and normalizes every request
before handlers see it.

Format resolution, first match wins:
- Format set by routing (path suffix such as /echo.xml, or ?_format=xml)
- Accept header negotiation ("first" or "wildcard" strategy)
- Configured default format

Body decoding: POST, PUT and DELETE requests without parsed form parameters
have their JSON, XML or YAML body decoded into request parameters. Malformed
bodies are rejected with 400 Bad Request.

All configuration is done through YAML configuration files and FMTL_*
environment variables. Use --config to specify a configuration file.`,
		Run: runServer,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file (YAML format)")
}

func initConfig() {
	config.InitConfig(cfgFile)
}

func runServer(cmd *cobra.Command, args []string) {
	logrus.WithFields(logrus.Fields{
		"version":   version,
		"commit":    commit,
		"buildTime": buildTime,
	}).Info("Format listener build information")

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid log level")
	}
	logrus.SetLevel(level)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	if !cfg.Listener.DetectFormat && cfg.Listener.DefaultFormat == "" {
		logrus.Warn("Format detection is disabled and no default format is set; requests without an explicit format stay unresolved")
	}

	srv, err := server.NewServer(cfg, version)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Monitoring.Enabled {
		monitoring.SetServerInfo(version, commit, buildTime)
		monitoringServer := monitoring.NewServer(&monitoring.Config{
			BindAddress: cfg.Monitoring.BindAddress,
			MetricsPath: cfg.Monitoring.MetricsPath,
		})
		go func() {
			if err := monitoringServer.Start(ctx); err != nil {
				logrus.WithError(err).Error("Monitoring server failed")
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Start(ctx); err != nil {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	select {
	case <-sigChan:
		logrus.Info("Received shutdown signal, gracefully shutting down...")
		cancel()
		<-done
	case <-done:
	}

	logrus.Info("Server stopped")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
