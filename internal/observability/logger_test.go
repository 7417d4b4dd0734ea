package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/vidroute/internal/config"
)

func newTestLogger(level string) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLoggerWithWriter(config.LoggingConfig{Level: level, Format: "json"}, &buf), &buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	logger, buf := newTestLogger("info")
	logger.Info("test message", slog.String("key", "value"))

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, `"key":"value"`)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &parsed))
}

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	logger.Info("test message", slog.String("key", "value"))

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "key=value")
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		logLevel    slog.Level
		shouldLog   bool
	}{
		{"trace logs at trace level", "trace", LevelTrace, true},
		{"debug does not log trace", "debug", LevelTrace, false},
		{"debug logs at debug level", "debug", slog.LevelDebug, true},
		{"info does not log debug", "info", slog.LevelDebug, false},
		{"info logs at info level", "info", slog.LevelInfo, true},
		{"warn does not log info", "warn", slog.LevelInfo, false},
		{"error does not log warn", "error", slog.LevelWarn, false},
		{"error logs at error level", "error", slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(tt.configLevel)
			logger.Log(context.Background(), tt.logLevel, "test")

			if tt.shouldLog {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestTraceLevelDisplay(t *testing.T) {
	logger, buf := newTestLogger("trace")
	logger.Log(context.Background(), LevelTrace, "trace message")

	output := buf.String()
	assert.Contains(t, output, `"level":"TRACE"`)
	assert.NotContains(t, output, "DEBUG-4")
}

func TestNewLogger_CustomTimeFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(config.LoggingConfig{
		Level:      "info",
		Format:     "json",
		TimeFormat: "2006-01-02",
	}, &buf)
	logger.Info("test message")

	assert.Contains(t, buf.String(), `"time":"`+time.Now().Format("2006-01-02")+`"`)
}

func TestSensitiveKeyRedaction(t *testing.T) {
	tests := []struct {
		fieldName string
		value     string
	}{
		{"password", "secret123"},
		{"Password", "MyP@ssw0rd"},
		{"token", "jwt-token-abc"},
		{"api_key", "api-key-value"},
		{"ApiKey", "AK_67890"},
		{"authorization", "Bearer xyz"},
		{"credential", "cred-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.fieldName, func(t *testing.T) {
			logger, buf := newTestLogger("info")
			logger.Info("test message", slog.String(tt.fieldName, tt.value))

			assert.NotContains(t, buf.String(), tt.value)
			assert.Contains(t, buf.String(), "[REDACTED]")
		})
	}
}

func TestSensitiveKeyRedaction_Group(t *testing.T) {
	logger, buf := newTestLogger("info")
	logger.Info("test with group",
		slog.Group("credentials",
			slog.String("username", "admin"),
			slog.String("password", "secret123"),
		),
	)

	output := buf.String()
	assert.Contains(t, output, "admin")
	assert.NotContains(t, output, "secret123")
}

func TestSecretRedaction_Struct(t *testing.T) {
	logger, buf := newTestLogger("info")
	logger.Info("config loaded", slog.Any("reporting", config.ReportingConfig{
		Endpoint: "https://reports.example.com",
		APIKey:   config.Secret("sk_live_12345"),
	}))

	output := buf.String()
	assert.NotContains(t, output, "sk_live_12345")
	assert.Contains(t, output, "reports.example.com")
}

func TestURLRedaction(t *testing.T) {
	logger, buf := newTestLogger("info")
	logger.Info("probing",
		slog.String("url", "https://cdn.example.com/v.mp4?token=abc123xyz&quality=hd"),
		slog.String("title", "token=visible-because-not-a-url-key"),
	)

	output := buf.String()
	assert.NotContains(t, output, "abc123xyz")
	assert.Contains(t, output, "token=[REDACTED]")
	assert.Contains(t, output, "quality=hd")
	assert.Contains(t, output, "visible-because-not-a-url-key")
}

func TestWithHelpers(t *testing.T) {
	logger, buf := newTestLogger("info")

	enriched := WithSessionID(WithOperation(WithComponent(logger, "pipeline"), "execute"), "sess-1")
	WithError(enriched, errors.New("boom")).Info("chained")

	output := buf.String()
	assert.Contains(t, output, `"component":"pipeline"`)
	assert.Contains(t, output, `"operation":"execute"`)
	assert.Contains(t, output, `"session_id":"sess-1"`)
	assert.Contains(t, output, `"error":"boom"`)
}

func TestWithError_Nil(t *testing.T) {
	logger, buf := newTestLogger("info")
	WithError(logger, nil).Info("test")
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestContextLogger(t *testing.T) {
	logger, buf := newTestLogger("info")

	ctx := ContextWithLogger(context.Background(), logger)
	LoggerFromContext(ctx).Info("from context")
	assert.Contains(t, buf.String(), "from context")

	assert.NotNil(t, LoggerFromContext(context.Background()))
}

func TestContextSessionID(t *testing.T) {
	ctx := ContextWithSessionID(context.Background(), "sess-789")
	assert.Equal(t, "sess-789", SessionIDFromContext(ctx))
	assert.Empty(t, SessionIDFromContext(context.Background()))
}

func TestTimedOperationWithError(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		logger, buf := newTestLogger("info")
		var err error
		done := TimedOperationWithError(context.Background(), logger, "success_op", &err)
		done()

		assert.Contains(t, buf.String(), "operation completed")
		assert.NotContains(t, buf.String(), "operation failed")
	})

	t.Run("failure", func(t *testing.T) {
		logger, buf := newTestLogger("info")
		var err error
		done := TimedOperationWithError(context.Background(), logger, "failure_op", &err)
		err = errors.New("bad things")
		done()

		assert.Contains(t, buf.String(), "operation failed")
		assert.Contains(t, buf.String(), "bad things")
	})
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}
