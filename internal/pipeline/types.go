package pipeline

import (
	"context"
	"time"

	"github.com/jmylchreest/vidroute/internal/codec"
	"github.com/jmylchreest/vidroute/internal/player"
	"github.com/jmylchreest/vidroute/internal/probe"
	"github.com/jmylchreest/vidroute/internal/reporting"
	"github.com/jmylchreest/vidroute/internal/source"
)

// Request is one playback request.
//
// OnProgress and OnFallback run on the goroutine calling Execute, in the
// order transitions happen. They must not call Execute or Destroy on the
// same orchestrator synchronously.
type Request struct {
	URL string
	// AutoRetry enables retries and fallbacks. When false, exactly one
	// attempt is made.
	AutoRetry bool
	// MaxRetries is the total attempt ceiling; values below 1 mean 1.
	MaxRetries int
	OnProgress func(state State, attempt int)
	OnFallback func(from, to player.Family)
}

// Prober validates direct files before binding.
type Prober interface {
	Validate(ctx context.Context, rawURL string) probe.Result
	InspectManifest(ctx context.Context, rawURL string) probe.ManifestInfo
	InspectsManifests() bool
}

// ErrorReporter receives playback errors of error severity and above.
type ErrorReporter interface {
	Submit(perr *player.Error, playback reporting.PlaybackInfo) bool
}

// Candidate is one source the orchestrator may try to bind.
type Candidate struct {
	Family player.Family `json:"family"`
	URL    string        `json:"url"`
	// Probe runs the direct-file probe and codec check before every bind.
	Probe bool `json:"probe,omitempty"`
	// InspectManifest additionally parses the HLS playlist.
	InspectManifest bool `json:"inspect_manifest,omitempty"`
}

// Attempt records one bind attempt.
type Attempt struct {
	Number    int                 `json:"number"`
	Family    player.Family       `json:"family"`
	URL       string              `json:"url"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Error     *player.Error       `json:"error,omitempty"`
	Probe     *probe.Result       `json:"probe,omitempty"`
	Manifest  *probe.ManifestInfo `json:"manifest,omitempty"`
	Codec     *codec.Info         `json:"codec,omitempty"`
}

// Succeeded reports whether the attempt bound an adapter.
func (a Attempt) Succeeded() bool {
	return a.Error == nil
}

// Result is the terminal outcome of Execute. It is produced exactly once
// per call.
type Result struct {
	SessionID      string                `json:"session_id"`
	Classification source.Classification `json:"classification"`
	Candidates     []Candidate           `json:"candidates,omitempty"`
	Success        bool                  `json:"success"`
	Adapter        player.Adapter        `json:"-"`
	Attempts       []Attempt             `json:"attempts"`
	FinalError     *player.Error         `json:"final_error,omitempty"`
	Duration       time.Duration         `json:"duration"`
	// Diagnostics holds troubleshooting text for failed direct-file sources.
	Diagnostics string `json:"diagnostics,omitempty"`
}

// Cancelled reports whether the execution was superseded, destroyed or
// cancelled by the caller.
func (r *Result) Cancelled() bool {
	return r != nil && r.FinalError != nil && r.FinalError.Code == player.CodePipelineCancelled
}

// Snapshot is a point-in-time view of the orchestrator.
type Snapshot struct {
	State     State                `json:"state"`
	SessionID string               `json:"session_id,omitempty"`
	Family    player.Family        `json:"family,omitempty"`
	URL       string               `json:"url,omitempty"`
	Attempt   int                  `json:"attempt"`
	Bound     bool                 `json:"bound"`
	Playback  player.PlaybackState `json:"playback"`
}
