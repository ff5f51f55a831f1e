package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/guided-traffic/format-listener/internal/codec"
	"github.com/guided-traffic/format-listener/internal/format"
	"github.com/spf13/viper"
)

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`      // Enable/disable monitoring
	BindAddress string `mapstructure:"bind_address"` // Address to bind monitoring server (default: :9090)
	MetricsPath string `mapstructure:"metrics_path"` // Path for metrics endpoint (default: /metrics)
}

// ListenerConfig holds the request format listener configuration
type ListenerConfig struct {
	// Run Accept header negotiation when no format was set by routing
	DetectFormat bool `mapstructure:"detect_format"`

	// Format used when nothing else applies; empty leaves the format unset
	DefaultFormat string `mapstructure:"default_format"`

	// Decode non-form POST/PUT/DELETE bodies into request parameters
	DecodeBody bool `mapstructure:"decode_body"`

	// Accept header strategy: "first" or "wildcard"
	Negotiation string `mapstructure:"negotiation"`

	// Formats the wildcard strategy may pick, in order of preference
	NegotiationFormats []string `mapstructure:"negotiation_formats"`

	// Format -> codec locator. An empty locator disables a format.
	Formats map[string]string `mapstructure:"formats"`

	// Extra MIME types per format, added to the built-in table
	MimeTypes map[string][]string `mapstructure:"mime_types"`

	// Upper bound for request bodies read by the listener
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// Config holds the application configuration
type Config struct {
	// Server configuration
	BindAddress       string    `mapstructure:"bind_address"`
	LogLevel          string    `mapstructure:"log_level"`
	LogFormat         string    `mapstructure:"log_format"` // "text" (default) or "json"
	LogHealthRequests bool      `mapstructure:"log_health_requests"`
	ShutdownTimeout   int       `mapstructure:"shutdown_timeout"` // Graceful shutdown timeout in seconds
	TLS               TLSConfig `mapstructure:"tls"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// Listener configuration
	Listener ListenerConfig `mapstructure:"listener"`
}

// InitConfig initializes the configuration system
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory with name ".format-listener" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".format-listener")
	}

	// Environment variable configuration, e.g. FMTL_LISTENER_DEFAULT_FORMAT
	viper.SetEnvPrefix("FMTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// Load loads the configuration from viper
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalizeListener(&cfg.Listener)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("bind_address", "0.0.0.0:8080")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("log_health_requests", false)
	viper.SetDefault("shutdown_timeout", 30)

	// TLS defaults
	viper.SetDefault("tls.enabled", false)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", false)
	viper.SetDefault("monitoring.bind_address", ":9090")
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Listener defaults
	viper.SetDefault("listener.detect_format", true)
	viper.SetDefault("listener.default_format", "")
	viper.SetDefault("listener.decode_body", true)
	viper.SetDefault("listener.negotiation", "first")
	viper.SetDefault("listener.formats", map[string]string(codec.DefaultFormatMap()))
	viper.SetDefault("listener.max_body_bytes", 10*1024*1024) // 10MB
}

// normalizeListener lowercases format names so lookups match the MIME table
func normalizeListener(l *ListenerConfig) {
	l.DefaultFormat = strings.ToLower(strings.TrimSpace(l.DefaultFormat))
	l.Negotiation = strings.ToLower(strings.TrimSpace(l.Negotiation))

	formats := make(map[string]string, len(l.Formats))
	for name, locator := range l.Formats {
		formats[strings.ToLower(name)] = strings.TrimSpace(locator)
	}
	l.Formats = formats

	for i, name := range l.NegotiationFormats {
		l.NegotiationFormats[i] = strings.ToLower(strings.TrimSpace(name))
	}
}

// Table builds the MIME table: the built-in formats plus configured extras
func (l *ListenerConfig) Table() *format.Table {
	table := format.DefaultTable()
	for name, mimeTypes := range l.MimeTypes {
		table.Add(name, mimeTypes...)
	}
	return table
}

// FormatMap returns the enabled format -> locator entries
func (l *ListenerConfig) FormatMap() codec.FormatMap {
	formats := make(codec.FormatMap, len(l.Formats))
	for name, locator := range l.Formats {
		if locator != "" {
			formats[name] = locator
		}
	}
	return formats
}

// Negotiator returns the configured Accept header strategy
func (l *ListenerConfig) Negotiator() format.Negotiator {
	return format.NewNegotiator(l.Negotiation, l.NegotiationFormats)
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.BindAddress == "" {
		return fmt.Errorf("bind_address is required")
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be 'text' or 'json', got '%s'", cfg.LogFormat)
	}

	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout cannot be negative")
	}

	// Validate TLS configuration
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			return fmt.Errorf("tls.cert_file is required when TLS is enabled")
		}
		if cfg.TLS.KeyFile == "" {
			return fmt.Errorf("tls.key_file is required when TLS is enabled")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file does not exist: %s", cfg.TLS.CertFile)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file does not exist: %s", cfg.TLS.KeyFile)
		}
	}

	if cfg.Monitoring.Enabled && cfg.Monitoring.BindAddress == "" {
		return fmt.Errorf("monitoring.bind_address is required when monitoring is enabled")
	}

	return validateListener(&cfg.Listener)
}

// validateListener checks that every configured format is known to the MIME table
func validateListener(l *ListenerConfig) error {
	table := l.Table()

	for name, mimeTypes := range l.MimeTypes {
		if len(mimeTypes) == 0 {
			return fmt.Errorf("listener.mime_types.%s must list at least one MIME type", name)
		}
	}

	if l.DefaultFormat != "" && !table.Has(l.DefaultFormat) {
		return fmt.Errorf("listener.default_format '%s' is not a known format", l.DefaultFormat)
	}

	for name := range l.Formats {
		if !table.Has(name) {
			return fmt.Errorf("listener.formats.%s has no MIME type; add it to listener.mime_types", name)
		}
	}

	if l.Negotiator() == nil {
		return fmt.Errorf("listener.negotiation must be 'first' or 'wildcard', got '%s'", l.Negotiation)
	}

	for _, name := range l.NegotiationFormats {
		if !table.Has(name) {
			return fmt.Errorf("listener.negotiation_formats contains unknown format '%s'", name)
		}
	}

	if l.MaxBodyBytes <= 0 {
		return fmt.Errorf("listener.max_body_bytes must be positive")
	}

	return nil
}
