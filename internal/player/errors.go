package player

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Severity ranks a player error. Ordering is significant: info < warning < error < fatal.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so severities serialize as strings.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity parses a severity name, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return s >= other
}

// Error codes produced by the orchestrator, the probe mapping, and the
// headless webview loader. Adapter-specific codes pass through unchanged.
const (
	CodeInitializationFailed    = "INITIALIZATION_FAILED"
	CodeInitializationException = "INITIALIZATION_EXCEPTION"
	CodePipelineCancelled       = "PIPELINE_CANCELLED"

	CodeSourceNotFound     = "SOURCE_NOT_FOUND"
	CodeSourceAccessDenied = "SOURCE_ACCESS_DENIED"
	CodeSourceHTTPError    = "SOURCE_HTTP_ERROR"
	CodeSourceTimeout      = "SOURCE_TIMEOUT"
	CodeSourceNetworkError = "SOURCE_NETWORK_ERROR"
	CodeSourceNotVideo     = "SOURCE_NOT_VIDEO"
	CodeSourceInvalidURL   = "SOURCE_INVALID_URL"

	CodeWebViewHTTPError = "WEBVIEW_HTTP_ERROR"
	CodeWebViewLoadError = "WEBVIEW_LOAD_ERROR"
)

// Error is a playback fault emitted by adapters and by the orchestrator.
type Error struct {
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Severity    Severity  `json:"severity"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	URL         string    `json:"url,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	// StatusCode is set for HTTP-derived errors.
	StatusCode int   `json:"status_code,omitempty"`
	Cause      error `json:"-"`
}

// NewError creates an Error stamped with the current time.
func NewError(code, message string, severity Severity, recoverable bool) *Error {
	return &Error{
		Code:        code,
		Message:     message,
		Severity:    severity,
		Recoverable: recoverable,
		Timestamp:   time.Now(),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Terminal reports whether no further retries should be made for the
// candidate that produced this error.
func (e *Error) Terminal() bool {
	return e != nil && e.Severity == SeverityFatal && !e.Recoverable
}

// WithURL returns a copy of e with the URL set.
func (e *Error) WithURL(u string) *Error {
	cp := *e
	cp.URL = u
	return &cp
}

// WithCause returns a copy of e with the cause set.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Cause = err
	return &cp
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// HasCode reports whether err's chain contains a *Error with the given code.
func HasCode(err error, code string) bool {
	pe, ok := AsError(err)
	return ok && pe.Code == code
}
