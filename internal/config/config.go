// Package config provides configuration management for vidroute using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultHTTPTimeout          = 30 * time.Second
	defaultHTTPMaxRedirects     = 10
	defaultCircuitThreshold     = 5
	defaultCircuitTimeout       = 30 * time.Second
	defaultProbeTimeout         = 10 * time.Second
	defaultProbeUserAgent       = "Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Mobile Safari/537.36"
	defaultMaxManifestBytes     = 2 * 1024 * 1024 // 2MB
	defaultPipelineMaxRetries   = 3
	defaultPipelineRetryDelay   = time.Second
	defaultWebViewLoadAttempts  = 3
	defaultWebViewRetryDelay    = 2 * time.Second
	defaultReportingQueueSize   = 64
	defaultReportingRatePerSec  = 1.0
	defaultReportingBurst       = 5
	defaultReportingTimeout     = 5 * time.Second
	defaultReportingDrainPeriod = 3 * time.Second
)

// Secret is a string that is redacted when logged.
type Secret string

// String never reveals the value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// MarshalText keeps secrets out of JSON logs and config dumps.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Value returns the raw secret.
func (s Secret) Value() string {
	return string(s)
}

// Config holds all configuration for the application.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Probe     ProbeConfig     `mapstructure:"probe" yaml:"probe"`
	YouTube   YouTubeConfig   `mapstructure:"youtube" yaml:"youtube"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" yaml:"pipeline"`
	WebView   WebViewConfig   `mapstructure:"webview" yaml:"webview"`
	Reporting ReportingConfig `mapstructure:"reporting" yaml:"reporting"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // trace, debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// HTTPConfig holds the shared HTTP client configuration.
type HTTPConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRedirects     int           `mapstructure:"max_redirects" yaml:"max_redirects"`
	CircuitThreshold int           `mapstructure:"circuit_threshold" yaml:"circuit_threshold"`
	CircuitTimeout   time.Duration `mapstructure:"circuit_timeout" yaml:"circuit_timeout"`
}

// ProbeConfig holds direct-file probe configuration.
type ProbeConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent        string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxManifestBytes int64         `mapstructure:"max_manifest_bytes" yaml:"max_manifest_bytes"`
	InspectManifests bool          `mapstructure:"inspect_manifests" yaml:"inspect_manifests"`
}

// YouTubeConfig holds the default embed parameters.
type YouTubeConfig struct {
	Autoplay       bool   `mapstructure:"autoplay" yaml:"autoplay"`
	Controls       bool   `mapstructure:"controls" yaml:"controls"`
	Loop           bool   `mapstructure:"loop" yaml:"loop"`
	Muted          bool   `mapstructure:"muted" yaml:"muted"`
	ModestBranding bool   `mapstructure:"modest_branding" yaml:"modest_branding"`
	PlaysInline    bool   `mapstructure:"plays_inline" yaml:"plays_inline"`
	Related        bool   `mapstructure:"related" yaml:"related"`
	EnableJSAPI    bool   `mapstructure:"enable_js_api" yaml:"enable_js_api"`
	Origin         string `mapstructure:"origin" yaml:"origin"`
	WidgetReferrer string `mapstructure:"widget_referrer" yaml:"widget_referrer"`
}

// PipelineConfig holds playback orchestrator configuration.
type PipelineConfig struct {
	AutoRetry  bool          `mapstructure:"auto_retry" yaml:"auto_retry"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// WebViewConfig holds the headless webview loader configuration.
type WebViewConfig struct {
	MaxLoadAttempts int           `mapstructure:"max_load_attempts" yaml:"max_load_attempts"`
	LoadRetryDelay  time.Duration `mapstructure:"load_retry_delay" yaml:"load_retry_delay"`
}

// ReportingConfig holds error-report forwarding configuration.
type ReportingConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey      Secret        `mapstructure:"api_key" yaml:"api_key"`
	QueueSize   int           `mapstructure:"queue_size" yaml:"queue_size"`
	RatePerSec  float64       `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`
	Burst       int           `mapstructure:"burst" yaml:"burst"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DrainPeriod time.Duration `mapstructure:"drain_period" yaml:"drain_period"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with VIDROUTE_ and use underscores for nesting.
// Example: VIDROUTE_PIPELINE_MAX_RETRIES=5.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/vidroute")
		v.AddConfigPath("$HOME/.vidroute")
	}

	v.SetEnvPrefix("VIDROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration produced by the defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// HTTP defaults
	v.SetDefault("http.timeout", defaultHTTPTimeout)
	v.SetDefault("http.max_redirects", defaultHTTPMaxRedirects)
	v.SetDefault("http.circuit_threshold", defaultCircuitThreshold)
	v.SetDefault("http.circuit_timeout", defaultCircuitTimeout)

	// Probe defaults
	v.SetDefault("probe.timeout", defaultProbeTimeout)
	v.SetDefault("probe.user_agent", defaultProbeUserAgent)
	v.SetDefault("probe.max_manifest_bytes", defaultMaxManifestBytes)
	v.SetDefault("probe.inspect_manifests", true)

	// YouTube embed defaults
	v.SetDefault("youtube.autoplay", false)
	v.SetDefault("youtube.controls", true)
	v.SetDefault("youtube.loop", false)
	v.SetDefault("youtube.muted", false)
	v.SetDefault("youtube.modest_branding", true)
	v.SetDefault("youtube.plays_inline", true)
	v.SetDefault("youtube.related", false)
	v.SetDefault("youtube.enable_js_api", true)
	v.SetDefault("youtube.origin", "")
	v.SetDefault("youtube.widget_referrer", "")

	// Pipeline defaults
	v.SetDefault("pipeline.auto_retry", true)
	v.SetDefault("pipeline.max_retries", defaultPipelineMaxRetries)
	v.SetDefault("pipeline.retry_delay", defaultPipelineRetryDelay)

	// WebView defaults
	v.SetDefault("webview.max_load_attempts", defaultWebViewLoadAttempts)
	v.SetDefault("webview.load_retry_delay", defaultWebViewRetryDelay)

	// Reporting defaults
	v.SetDefault("reporting.enabled", false)
	v.SetDefault("reporting.endpoint", "")
	v.SetDefault("reporting.api_key", "")
	v.SetDefault("reporting.queue_size", defaultReportingQueueSize)
	v.SetDefault("reporting.rate_per_sec", defaultReportingRatePerSec)
	v.SetDefault("reporting.burst", defaultReportingBurst)
	v.SetDefault("reporting.timeout", defaultReportingTimeout)
	v.SetDefault("reporting.drain_period", defaultReportingDrainPeriod)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Logging validation
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	// HTTP validation
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.MaxRedirects < 1 {
		return fmt.Errorf("http.max_redirects must be at least 1")
	}

	// Probe validation
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("probe.timeout must be positive")
	}
	if c.Probe.MaxManifestBytes < 1 {
		return fmt.Errorf("probe.max_manifest_bytes must be at least 1")
	}

	// Pipeline validation
	if c.Pipeline.MaxRetries < 1 {
		return fmt.Errorf("pipeline.max_retries must be at least 1")
	}
	if c.Pipeline.RetryDelay < 0 {
		return fmt.Errorf("pipeline.retry_delay must not be negative")
	}

	// WebView validation
	if c.WebView.MaxLoadAttempts < 1 {
		return fmt.Errorf("webview.max_load_attempts must be at least 1")
	}

	// Reporting validation
	if c.Reporting.Enabled {
		if c.Reporting.Endpoint == "" {
			return fmt.Errorf("reporting.endpoint is required when reporting is enabled")
		}
		if c.Reporting.QueueSize < 1 {
			return fmt.Errorf("reporting.queue_size must be at least 1")
		}
		if c.Reporting.RatePerSec <= 0 {
			return fmt.Errorf("reporting.rate_per_sec must be positive")
		}
	}

	return nil
}
