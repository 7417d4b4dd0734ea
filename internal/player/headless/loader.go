package headless

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmylchreest/vidroute/internal/config"
	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/player"
	"github.com/jmylchreest/vidroute/internal/urlutil"
	"github.com/jmylchreest/vidroute/pkg/httpclient"
)

// CodeMediaLoadError is reported when the native surface cannot open a file.
const CodeMediaLoadError = "MEDIA_LOAD_ERROR"

// maxPageBytes bounds how much of a page body is read per load.
const maxPageBytes = 1 << 20

// LoadResult describes a successful load.
type LoadResult struct {
	URL         string `json:"url"`
	FinalURL    string `json:"final_url"`
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type,omitempty"`
	Attempts    int    `json:"attempts"`
}

// Loader fetches sources the way an embedded browser or native video surface
// would open them.
type Loader struct {
	client      *httpclient.Client
	maxAttempts int
	retryDelay  time.Duration
	userAgent   string
	logger      *slog.Logger
}

// NewLoader creates a loader. A nil client gets a default one with retries
// disabled; the loader applies its own retry policy.
func NewLoader(cfg config.WebViewConfig, userAgent string, client *httpclient.Client, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = observability.Discard()
	}
	if client == nil {
		hc := httpclient.DefaultConfig()
		hc.Logger = observability.WithComponent(logger, "httpclient")
		hc.AcceptableStatusCodes = httpclient.MustParseStatusCodes("200-499")
		client = httpclient.New(hc)
	}
	defaults := config.Default().WebView
	if cfg.MaxLoadAttempts <= 0 {
		cfg.MaxLoadAttempts = defaults.MaxLoadAttempts
	}
	if cfg.LoadRetryDelay < 0 {
		cfg.LoadRetryDelay = 0
	}
	if userAgent == "" {
		userAgent = config.Default().Probe.UserAgent
	}
	return &Loader{
		client:      client,
		maxAttempts: cfg.MaxLoadAttempts,
		retryDelay:  cfg.LoadRetryDelay,
		userAgent:   userAgent,
		logger:      observability.WithComponent(logger, "loader"),
	}
}

// LoadPage opens rawURL as a webview would. HTTP 404 fails immediately with
// a fatal, non-recoverable WEBVIEW_HTTP_ERROR. Other HTTP and transport
// failures are retried up to the configured attempt count with a fixed delay;
// exhausting the attempts yields a fatal, non-recoverable error.
func (l *Loader) LoadPage(ctx context.Context, rawURL string) (LoadResult, error) {
	var last *player.Error

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		res, perr := l.fetch(ctx, rawURL, false)
		if ctx.Err() != nil {
			return LoadResult{}, ctx.Err()
		}
		if perr == nil {
			res.Attempts = attempt
			return res, nil
		}

		l.logger.Info("page load failed",
			slog.String("url", urlutil.Redact(rawURL)),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", l.maxAttempts),
			slog.String("code", perr.Code),
			slog.String("error", perr.Message),
		)

		if perr.Terminal() {
			return LoadResult{}, perr
		}
		last = perr

		if attempt < l.maxAttempts {
			if err := sleep(ctx, l.retryDelay); err != nil {
				return LoadResult{}, err
			}
		}
	}

	exhausted := player.NewError(last.Code,
		fmt.Sprintf("Failed to load page after %d attempts: %s", l.maxAttempts, last.Message),
		player.SeverityFatal, false).WithURL(rawURL).WithCause(last)
	exhausted.StatusCode = last.StatusCode
	return LoadResult{}, exhausted
}

// LoadMedia opens rawURL once as a native video surface would, reading only
// the first bytes.
func (l *Loader) LoadMedia(ctx context.Context, rawURL string) (LoadResult, error) {
	res, perr := l.fetch(ctx, rawURL, true)
	if ctx.Err() != nil {
		return LoadResult{}, ctx.Err()
	}
	if perr != nil {
		return LoadResult{}, perr
	}
	res.Attempts = 1
	return res, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string, media bool) (LoadResult, *player.Error) {
	httpCode, loadCode := player.CodeWebViewHTTPError, player.CodeWebViewLoadError
	if media {
		httpCode, loadCode = CodeMediaLoadError, CodeMediaLoadError
	}

	if err := urlutil.ValidateURL(rawURL); err != nil {
		return LoadResult{}, player.NewError(loadCode, err.Error(), player.SeverityFatal, false).WithURL(rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return LoadResult{}, player.NewError(loadCode, err.Error(), player.SeverityFatal, false).WithURL(rawURL)
	}
	req.Header.Set(httpclient.HeaderUserAgent, l.userAgent)
	if media {
		req.Header.Set("Range", "bytes=0-1")
		req.Header.Set(httpclient.HeaderAcceptEncoding, "identity")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		err = httpclient.LastError(err)
		return LoadResult{}, player.NewError(loadCode,
			fmt.Sprintf("Failed to load: %v", err), player.SeverityError, true).WithURL(rawURL).WithCause(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))

	if resp.StatusCode >= http.StatusBadRequest {
		perr := player.NewError(httpCode,
			fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			player.SeverityError, true).WithURL(rawURL)
		perr.StatusCode = resp.StatusCode
		if resp.StatusCode == http.StatusNotFound {
			perr.Severity = player.SeverityFatal
			perr.Recoverable = false
		}
		return LoadResult{}, perr
	}

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return LoadResult{
		URL:         rawURL,
		FinalURL:    final,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
