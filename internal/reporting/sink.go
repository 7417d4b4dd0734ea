package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/vidroute/internal/config"
	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/urlutil"
	"github.com/jmylchreest/vidroute/internal/version"
	"github.com/jmylchreest/vidroute/pkg/httpclient"
)

// ErrNoEndpoint is returned when an HTTP sink has no endpoint configured.
var ErrNoEndpoint = errors.New("reporting endpoint is not configured")

// HeaderAPIKey carries the sink API key.
const HeaderAPIKey = "X-API-Key"

// maxResponseBytes bounds how much of a sink response is decoded.
const maxResponseBytes = 64 << 10

// Sink delivers a report.
type Sink interface {
	Send(ctx context.Context, report Report) (Response, error)
}

// NopSink accepts every report without sending it.
type NopSink struct{}

// Send returns a successful response with a locally generated id.
func (NopSink) Send(context.Context, Report) (Response, error) {
	return Response{Success: true, ReportID: ulid.Make().String(), Message: "discarded"}, nil
}

// HTTPSink posts reports as JSON.
type HTTPSink struct {
	endpoint string
	apiKey   config.Secret
	client   *httpclient.Client
	logger   *slog.Logger
}

// NewHTTPSink creates a sink posting to endpoint. A nil client gets a
// default one.
func NewHTTPSink(endpoint string, apiKey config.Secret, client *httpclient.Client, logger *slog.Logger) *HTTPSink {
	if logger == nil {
		logger = observability.Discard()
	}
	if client == nil {
		hc := httpclient.DefaultConfig()
		hc.UserAgent = version.UserAgent()
		hc.Logger = observability.WithComponent(logger, "httpclient")
		client = httpclient.New(hc)
	}
	return &HTTPSink{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
		logger:   observability.WithComponent(logger, "report_sink"),
	}
}

// Send posts report. A response without a report id is given a local one.
func (s *HTTPSink) Send(ctx context.Context, report Report) (Response, error) {
	if s.endpoint == "" {
		return Response{}, ErrNoEndpoint
	}

	body, err := json.Marshal(report)
	if err != nil {
		return Response{}, fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(httpclient.HeaderUserAgent, version.UserAgent())
	if s.apiKey != "" {
		req.Header.Set(HeaderAPIKey, s.apiKey.Value())
	}

	s.logger.Debug("sending error report",
		slog.String("endpoint", urlutil.Redact(s.endpoint)),
		slog.String("code", report.Error.Code),
		slog.Any("api_key", s.apiKey),
	)

	resp, err := s.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("sending report: %w", httpclient.LastError(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}

	var out Response
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode < http.StatusBadRequest {
			return Response{}, fmt.Errorf("decoding response: %w", err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := out.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return out, fmt.Errorf("sink returned HTTP %d: %s", resp.StatusCode, msg)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		out.Success = true
	}
	if out.ReportID == "" {
		out.ReportID = ulid.Make().String()
	}
	return out, nil
}
