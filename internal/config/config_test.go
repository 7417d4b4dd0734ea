package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		HTTP:     HTTPConfig{Timeout: 30 * time.Second, MaxRedirects: 10},
		Probe:    ProbeConfig{Timeout: 10 * time.Second, MaxManifestBytes: 1024},
		Pipeline: PipelineConfig{AutoRetry: true, MaxRetries: 3, RetryDelay: time.Second},
		WebView:  WebViewConfig{MaxLoadAttempts: 3},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	// HTTP defaults
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 10, cfg.HTTP.MaxRedirects)

	// Probe defaults
	assert.Equal(t, 10*time.Second, cfg.Probe.Timeout)
	assert.Contains(t, cfg.Probe.UserAgent, "Mozilla/5.0")
	assert.Equal(t, int64(2*1024*1024), cfg.Probe.MaxManifestBytes)
	assert.True(t, cfg.Probe.InspectManifests)

	// YouTube defaults
	assert.False(t, cfg.YouTube.Autoplay)
	assert.True(t, cfg.YouTube.Controls)
	assert.True(t, cfg.YouTube.ModestBranding)
	assert.True(t, cfg.YouTube.PlaysInline)
	assert.False(t, cfg.YouTube.Related)
	assert.True(t, cfg.YouTube.EnableJSAPI)

	// Pipeline defaults
	assert.True(t, cfg.Pipeline.AutoRetry)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, time.Second, cfg.Pipeline.RetryDelay)

	// WebView defaults
	assert.Equal(t, 3, cfg.WebView.MaxLoadAttempts)
	assert.Equal(t, 2*time.Second, cfg.WebView.LoadRetryDelay)

	// Reporting defaults
	assert.False(t, cfg.Reporting.Enabled)
	assert.Equal(t, 64, cfg.Reporting.QueueSize)
}

func TestDefault_MatchesLoad(t *testing.T) {
	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, loaded, Default())
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"
  format: "json"

probe:
  timeout: 4s

pipeline:
  max_retries: 6
  retry_delay: 250ms

youtube:
  autoplay: true
  origin: "https://app.example.com"

reporting:
  enabled: true
  endpoint: "https://reports.example.com/v1/errors"
  api_key: "s3cr3t"
`
	err := os.WriteFile(configPath, []byte(configContent), 0o600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 4*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, 6, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.RetryDelay)
	assert.True(t, cfg.YouTube.Autoplay)
	assert.Equal(t, "https://app.example.com", cfg.YouTube.Origin)
	assert.True(t, cfg.Reporting.Enabled)
	assert.Equal(t, "s3cr3t", cfg.Reporting.APIKey.Value())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("VIDROUTE_LOGGING_LEVEL", "warn")
	t.Setenv("VIDROUTE_PIPELINE_MAX_RETRIES", "7")
	t.Setenv("VIDROUTE_PROBE_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Probe.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
pipeline:
  max_retries: 4
  auto_retry: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	t.Setenv("VIDROUTE_PIPELINE_MAX_RETRIES", "9")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Pipeline.MaxRetries)
	assert.False(t, cfg.Pipeline.AutoRetry)
}

func TestLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging: [unclosed"), 0o600))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("VIDROUTE_PIPELINE_MAX_RETRIES", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.max_retries")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validTestConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		errContains string
	}{
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero http timeout", func(c *Config) { c.HTTP.Timeout = 0 }, "http.timeout"},
		{"zero redirects", func(c *Config) { c.HTTP.MaxRedirects = 0 }, "http.max_redirects"},
		{"zero probe timeout", func(c *Config) { c.Probe.Timeout = 0 }, "probe.timeout"},
		{"zero manifest cap", func(c *Config) { c.Probe.MaxManifestBytes = 0 }, "probe.max_manifest_bytes"},
		{"zero max retries", func(c *Config) { c.Pipeline.MaxRetries = 0 }, "pipeline.max_retries"},
		{"negative retry delay", func(c *Config) { c.Pipeline.RetryDelay = -time.Second }, "pipeline.retry_delay"},
		{"zero load attempts", func(c *Config) { c.WebView.MaxLoadAttempts = 0 }, "webview.max_load_attempts"},
		{"reporting without endpoint", func(c *Config) {
			c.Reporting = ReportingConfig{Enabled: true, QueueSize: 1, RatePerSec: 1}
		}, "reporting.endpoint"},
		{"reporting without queue", func(c *Config) {
			c.Reporting = ReportingConfig{Enabled: true, Endpoint: "http://x", RatePerSec: 1}
		}, "reporting.queue_size"},
		{"reporting without rate", func(c *Config) {
			c.Reporting = ReportingConfig{Enabled: true, Endpoint: "http://x", QueueSize: 1}
		}, "reporting.rate_per_sec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestSecret(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "hunter2", s.Value())
	assert.Equal(t, "", Secret("").String())

	text, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]", string(text))
}
