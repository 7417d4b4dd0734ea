// Package probe performs bounded network checks against direct video URLs
// and interprets status, content type and range headers into a verdict.
//
// A successful probe means the server responded plausibly. It does not prove
// the device can decode the media.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/vidroute/internal/config"
	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/urlutil"
	"github.com/jmylchreest/vidroute/pkg/httpclient"
)

// Outcome is the probe verdict category, used for metrics and error mapping.
type Outcome string

const (
	OutcomePlayable    Outcome = "playable"
	OutcomeUnplayable  Outcome = "unplayable"
	OutcomeWebPage     Outcome = "web_page"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeForbidden   Outcome = "forbidden"
	OutcomeHTTPError   Outcome = "http_error"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeCancelled   Outcome = "cancelled"
	OutcomeCircuitOpen Outcome = "circuit_open"
	OutcomeNetwork     Outcome = "network"
	OutcomeInvalidURL  Outcome = "invalid_url"
)

// Error messages. UIs display these verbatim.
const (
	MsgNotFound    = "Video not found (HTTP 404). The file may have been moved or deleted."
	MsgForbidden   = "Access denied (HTTP 403). Possible causes: hotlink protection, geo-blocking, authentication required, or referrer policy restrictions."
	MsgWebPage     = "URL points to a web page, not a video file"
	MsgCancelled   = "Validation cancelled"
	MsgCircuitOpen = "Host temporarily unavailable after repeated failures"
)

// playableContentTypes are the media types the native player accepts.
var playableContentTypes = map[string]bool{
	"video/mp4":                     true,
	"video/x-m4v":                   true,
	"video/quicktime":               true,
	"video/webm":                    true,
	"video/ogg":                     true,
	"video/mpeg":                    true,
	"application/vnd.apple.mpegurl": true,
	"application/x-mpegurl":         true,
	"audio/mpegurl":                 true,
	"audio/x-mpegurl":               true,
	"application/dash+xml":          true,
	// CDNs and object stores commonly serve media as untyped binary.
	"application/octet-stream": true,
	"binary/octet-stream":      true,
}

// Result is the verdict of one probe. ContentLength is -1 when unknown.
type Result struct {
	URL           string        `json:"url"`
	IsValid       bool          `json:"is_valid"`
	CanPlay       bool          `json:"can_play"`
	SupportsRange bool          `json:"supports_range"`
	ContentType   string        `json:"content_type,omitempty"`
	ContentLength int64         `json:"content_length"`
	RedirectURL   string        `json:"redirect_url,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	Warning       string        `json:"warning,omitempty"`
	StatusCode    int           `json:"status_code,omitempty"`
	Outcome       Outcome       `json:"outcome"`
	Duration      time.Duration `json:"duration"`
}

// Prober validates direct video URLs.
type Prober struct {
	client           *httpclient.Client
	timeout          time.Duration
	userAgent        string
	maxManifestBytes int64
	inspect          bool
	logger           *slog.Logger
	metrics          *observability.Metrics
}

// New creates a prober. A nil client gets one built by NewClient from the
// default HTTP settings; logger and metrics may be nil.
func New(cfg config.ProbeConfig, client *httpclient.Client, logger *slog.Logger, metrics *observability.Metrics) *Prober {
	if logger == nil {
		logger = observability.Discard()
	}
	if client == nil {
		client = NewClient(config.Default().HTTP, logger)
	}
	defaults := config.Default().Probe
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.MaxManifestBytes <= 0 {
		cfg.MaxManifestBytes = defaults.MaxManifestBytes
	}
	return &Prober{
		client:           client,
		timeout:          cfg.Timeout,
		userAgent:        cfg.UserAgent,
		maxManifestBytes: cfg.MaxManifestBytes,
		inspect:          cfg.InspectManifests,
		logger:           observability.WithComponent(logger, "probe"),
		metrics:          metrics,
	}
}

// NewClient builds the HTTP client probes use: no retries, and any response
// below 500 counts as a healthy origin for the circuit breaker.
func NewClient(cfg config.HTTPConfig, logger *slog.Logger) *httpclient.Client {
	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.Timeout
	hc.MaxRedirects = cfg.MaxRedirects
	if cfg.CircuitThreshold > 0 {
		hc.CircuitThreshold = cfg.CircuitThreshold
	}
	if cfg.CircuitTimeout > 0 {
		hc.CircuitTimeout = cfg.CircuitTimeout
	}
	hc.RetryAttempts = 0
	hc.AcceptableStatusCodes = httpclient.MustParseStatusCodes("200-499")
	if logger != nil {
		hc.Logger = observability.WithComponent(logger, "httpclient")
	}
	return httpclient.New(hc)
}

// InspectsManifests reports whether HLS manifests should be inspected after
// a successful probe.
func (p *Prober) InspectsManifests() bool {
	return p.inspect
}

// Validate probes rawURL with the configured timeout.
func (p *Prober) Validate(ctx context.Context, rawURL string) Result {
	return p.ValidateWithTimeout(ctx, rawURL, p.timeout)
}

// ValidateWithTimeout probes rawURL with one bounded GET for the first two
// bytes. The request is cancelled when timeout elapses. It never returns an
// error: every failure is described by the result.
func (p *Prober) ValidateWithTimeout(ctx context.Context, rawURL string, timeout time.Duration) Result {
	start := time.Now()
	result := p.validate(ctx, rawURL, timeout)
	result.Duration = time.Since(start)

	p.metrics.RecordProbe(string(result.Outcome), result.Duration)

	attrs := []any{
		slog.String("url", rawURL),
		slog.String("outcome", string(result.Outcome)),
		slog.Int("status", result.StatusCode),
		slog.String("content_type", result.ContentType),
		slog.Duration("duration", result.Duration),
	}
	if result.IsValid {
		p.logger.Debug("probe completed", attrs...)
	} else {
		p.logger.Info("probe failed", append(attrs, slog.String("error_message", result.ErrorMessage))...)
	}
	return result
}

func (p *Prober) validate(ctx context.Context, rawURL string, timeout time.Duration) Result {
	result := Result{URL: rawURL, ContentLength: -1}

	if err := urlutil.ValidateURL(rawURL); err != nil {
		result.Outcome = OutcomeInvalidURL
		result.ErrorMessage = fmt.Sprintf("Invalid URL: %v", err)
		return result
	}
	if timeout <= 0 {
		timeout = p.timeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		result.Outcome = OutcomeInvalidURL
		result.ErrorMessage = fmt.Sprintf("Invalid URL: %v", err)
		return result
	}
	req.Header.Set("Range", "bytes=0-1")
	req.Header.Set(httpclient.HeaderUserAgent, p.userAgent)
	req.Header.Set("Accept", "video/*,application/vnd.apple.mpegurl,application/dash+xml,*/*;q=0.8")
	// Byte ranges refer to the stored representation.
	req.Header.Set(httpclient.HeaderAcceptEncoding, "identity")

	resp, err := p.client.Do(req)
	if err != nil {
		return transportFailure(ctx, result, err, timeout)
	}
	defer func() {
		// Drain the two-byte body so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	return interpretResponse(result, resp)
}

func transportFailure(parent context.Context, result Result, err error, timeout time.Duration) Result {
	var netErr net.Error
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		result.Outcome = OutcomeCancelled
		result.ErrorMessage = MsgCancelled
	case errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()):
		result.Outcome = OutcomeTimeout
		result.ErrorMessage = fmt.Sprintf("Request timed out after %s", timeout)
	case errors.Is(err, httpclient.ErrCircuitOpen):
		result.Outcome = OutcomeCircuitOpen
		result.ErrorMessage = MsgCircuitOpen
	default:
		result.Outcome = OutcomeNetwork
		result.ErrorMessage = fmt.Sprintf("Network error: %v", httpclient.LastError(err))
	}
	return result
}

func interpretResponse(result Result, resp *http.Response) Result {
	result.StatusCode = resp.StatusCode

	if resp.Request != nil && resp.Request.URL != nil {
		if final := resp.Request.URL.String(); final != result.URL {
			result.RedirectURL = final
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		result.Outcome = OutcomeNotFound
		result.ErrorMessage = MsgNotFound
		return result
	case resp.StatusCode == http.StatusForbidden:
		result.Outcome = OutcomeForbidden
		result.ErrorMessage = MsgForbidden
		return result
	case resp.StatusCode >= http.StatusBadRequest:
		result.Outcome = OutcomeHTTPError
		result.ErrorMessage = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return result
	}

	result.SupportsRange = resp.StatusCode == http.StatusPartialContent ||
		strings.EqualFold(strings.TrimSpace(resp.Header.Get("Accept-Ranges")), "bytes")
	result.ContentLength = contentLength(resp)

	rawType := resp.Header.Get("Content-Type")
	mediaType := normalizeContentType(rawType)
	result.ContentType = mediaType

	switch {
	case mediaType == "":
		// Nothing to contradict the URL; let the player try.
		result.IsValid = true
		result.CanPlay = true
		result.Outcome = OutcomePlayable
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		result.Outcome = OutcomeWebPage
		result.ErrorMessage = MsgWebPage
	case playableContentTypes[mediaType]:
		result.IsValid = true
		result.CanPlay = true
		result.Outcome = OutcomePlayable
	case strings.HasPrefix(mediaType, "video/"):
		result.IsValid = true
		result.Outcome = OutcomeUnplayable
		result.Warning = fmt.Sprintf("Video content type %s may not be supported on this device", mediaType)
	default:
		result.IsValid = true
		result.Outcome = OutcomeUnplayable
		result.Warning = fmt.Sprintf("Content type %s is not a video type", mediaType)
	}
	return result
}

func normalizeContentType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		mediaType, _, _ = strings.Cut(raw, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// contentLength prefers the total from Content-Range on a partial response.
func contentLength(resp *http.Response) int64 {
	if resp.StatusCode == http.StatusPartialContent {
		if cr := resp.Header.Get("Content-Range"); cr != "" {
			if _, total, ok := strings.Cut(cr, "/"); ok && total != "*" {
				if n, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64); err == nil {
					return n
				}
			}
		}
		return -1
	}
	if resp.ContentLength >= 0 {
		return resp.ContentLength
	}
	return -1
}
