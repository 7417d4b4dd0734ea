// Package player defines the contract between the playback orchestrator and
// concrete player backends: adapter families, playback state, typed errors,
// and the single-slot registry exposing imperative controls to voice commands.
package player

import (
	"context"
	"time"
)

// Family identifies a player backend technology.
type Family string

const (
	// FamilyYouTube - YouTube iframe embed inside a webview with JS API control.
	FamilyYouTube Family = "youtube"

	// FamilyMP4 - native video surface for direct files and HLS/DASH manifests.
	FamilyMP4 Family = "mp4"

	// FamilyWebView - generic webview loading the original page.
	FamilyWebView Family = "webview"

	// FamilySocial - webview tuned for social platform pages.
	FamilySocial Family = "social"
)

// String returns the string representation of the family.
func (f Family) String() string {
	return string(f)
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	switch f {
	case FamilyYouTube, FamilyMP4, FamilyWebView, FamilySocial:
		return true
	default:
		return false
	}
}

// PlaybackState is the observable state of a bound adapter. It is owned by
// the adapter; subscribers receive copies.
type PlaybackState struct {
	IsPlaying          bool          `json:"is_playing"`
	IsPaused           bool          `json:"is_paused"`
	IsBuffering        bool          `json:"is_buffering"`
	IsSeeking          bool          `json:"is_seeking"`
	CurrentTime        time.Duration `json:"current_time"`
	Duration           time.Duration `json:"duration"`
	BufferedPercentage float64       `json:"buffered_percentage"`
	Volume             float64       `json:"volume"`
	IsMuted            bool          `json:"is_muted"`
	PlaybackRate       float64       `json:"playback_rate"`
	Error              *Error        `json:"error,omitempty"`
}

// InitialState returns the state of a freshly bound adapter.
func InitialState() PlaybackState {
	return PlaybackState{
		Volume:       1,
		PlaybackRate: 1,
	}
}

// Source is what the orchestrator asks a factory to bind.
type Source struct {
	Family Family
	// URL is the candidate to load (an embed URL, a direct file, or the
	// original page).
	URL string
	// OriginalURL is the URL the caller asked to play.
	OriginalURL string
	Platform    string
	VideoID     string
	// Attempt is the 1-based attempt number this bind belongs to.
	Attempt int
}

// Adapter is a concrete playback backend. Implementations must be safe for
// concurrent use; callbacks may be invoked from any goroutine.
type Adapter interface {
	Family() Family

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error
	// SetVolume accepts 0..1; values outside are clamped.
	SetVolume(ctx context.Context, volume float64) error
	SetMuted(ctx context.Context, muted bool) error
	SetPlaybackRate(ctx context.Context, rate float64) error

	// OnStateChange registers fn and returns a function that removes it.
	OnStateChange(fn func(PlaybackState)) (unsubscribe func())
	// OnError registers fn and returns a function that removes it.
	OnError(fn func(*Error)) (unsubscribe func())

	// Destroy releases the adapter. It is idempotent and drops all listeners.
	Destroy(ctx context.Context) error
}

// ControlProvider is implemented by adapters that expose imperative controls
// to the voice-command bridge.
type ControlProvider interface {
	Controls() Controls
}

// Factory creates and binds an adapter for a source. A returned *Error is
// passed through by the orchestrator unchanged; any other error is wrapped
// as INITIALIZATION_EXCEPTION.
type Factory interface {
	Create(ctx context.Context, src Source) (Adapter, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, src Source) (Adapter, error)

// Create calls f(ctx, src).
func (f FactoryFunc) Create(ctx context.Context, src Source) (Adapter, error) {
	return f(ctx, src)
}

// Clamp01 limits v to the range [0, 1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
