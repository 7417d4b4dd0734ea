package youtube

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/vidroute/internal/config"
)

// EmbedOptions are the player parameters encoded into an embed URL.
// Start from DefaultEmbedOptions and override what you need.
type EmbedOptions struct {
	Autoplay       bool
	Controls       bool
	Loop           bool
	Muted          bool
	ModestBranding bool
	PlaysInline    bool
	Related        bool
	EnableJSAPI    bool
	// Origin and WidgetReferrer are appended only when non-empty.
	Origin         string
	WidgetReferrer string
	// Start is truncated to whole seconds and appended when positive.
	Start time.Duration
}

// DefaultEmbedOptions returns the documented defaults.
func DefaultEmbedOptions() EmbedOptions {
	return EmbedOptions{
		Autoplay:       false,
		Controls:       true,
		Loop:           false,
		Muted:          false,
		ModestBranding: true,
		PlaysInline:    true,
		Related:        false,
		EnableJSAPI:    true,
	}
}

// EmbedOptionsFromConfig maps the youtube config section to embed options.
func EmbedOptionsFromConfig(cfg config.YouTubeConfig) EmbedOptions {
	return EmbedOptions{
		Autoplay:       cfg.Autoplay,
		Controls:       cfg.Controls,
		Loop:           cfg.Loop,
		Muted:          cfg.Muted,
		ModestBranding: cfg.ModestBranding,
		PlaysInline:    cfg.PlaysInline,
		Related:        cfg.Related,
		EnableJSAPI:    cfg.EnableJSAPI,
		Origin:         cfg.Origin,
		WidgetReferrer: cfg.WidgetReferrer,
	}
}

// queryBuilder writes parameters in insertion order; url.Values would sort them.
type queryBuilder struct {
	b strings.Builder
}

func (q *queryBuilder) add(key, value string) {
	if q.b.Len() > 0 {
		q.b.WriteByte('&')
	}
	q.b.WriteString(key)
	q.b.WriteByte('=')
	q.b.WriteString(url.QueryEscape(value))
}

func (q *queryBuilder) flag(key string, v bool) {
	if v {
		q.add(key, "1")
	} else {
		q.add(key, "0")
	}
}

func (q *queryBuilder) String() string {
	return q.b.String()
}

func fullParams(id string, opts EmbedOptions) string {
	var q queryBuilder
	q.flag("autoplay", opts.Autoplay)
	q.flag("controls", opts.Controls)
	q.flag("loop", opts.Loop)
	q.flag("mute", opts.Muted)
	q.flag("modestbranding", opts.ModestBranding)
	q.flag("playsinline", opts.PlaysInline)
	q.flag("rel", opts.Related)
	q.flag("enablejsapi", opts.EnableJSAPI)
	if opts.Loop {
		// Single-video loop only works with a playlist of itself.
		q.add("playlist", id)
	}
	if opts.Origin != "" {
		q.add("origin", opts.Origin)
	}
	if opts.WidgetReferrer != "" {
		q.add("widget_referrer", opts.WidgetReferrer)
	}
	addStart(&q, opts.Start)
	return q.String()
}

func minimalParams(opts EmbedOptions) string {
	var q queryBuilder
	q.flag("autoplay", opts.Autoplay)
	q.flag("playsinline", true)
	addStart(&q, opts.Start)
	return q.String()
}

func addStart(q *queryBuilder, start time.Duration) {
	if secs := int64(start / time.Second); secs > 0 {
		q.add("start", strconv.FormatInt(secs, 10))
	}
}

// EmbedURL builds the youtube.com embed URL for id. An invalid id yields "".
func EmbedURL(id string, opts EmbedOptions) string {
	if !IsValidVideoID(id) {
		return ""
	}
	return embedBase + id + "?" + fullParams(id, opts)
}

// FallbackURLs returns embed variants ordered from most likely to work to
// most likely to get past embed restrictions:
//
//  1. youtube.com with all parameters
//  2. youtube-nocookie.com with all parameters
//  3. youtube.com with minimal parameters
//  4. youtube-nocookie.com with minimal parameters
//  5. youtube.com bare
//
// The sequence is deterministic for a given input. An invalid id yields nil.
func FallbackURLs(id string, opts EmbedOptions) []string {
	if !IsValidVideoID(id) {
		return nil
	}
	full := fullParams(id, opts)
	minimal := minimalParams(opts)
	return []string{
		embedBase + id + "?" + full,
		embedBaseNoCookie + id + "?" + full,
		embedBase + id + "?" + minimal,
		embedBaseNoCookie + id + "?" + minimal,
		embedBase + id,
	}
}

// Resolution is a resolved YouTube source: how to play it and the ordered
// candidate URLs to try.
type Resolution struct {
	Info      PlaybackInfo
	Primary   string
	Fallbacks []string
}

// Candidates returns Primary followed by Fallbacks with duplicates removed.
func (r Resolution) Candidates() []string {
	seen := make(map[string]struct{}, len(r.Fallbacks)+1)
	out := make([]string, 0, len(r.Fallbacks)+1)
	for _, u := range append([]string{r.Primary}, r.Fallbacks...) {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Resolver binds configured embed defaults.
type Resolver struct {
	defaults EmbedOptions
}

// NewResolver creates a resolver with the given defaults.
func NewResolver(defaults EmbedOptions) *Resolver {
	return &Resolver{defaults: defaults}
}

// Defaults returns the resolver's embed options.
func (r *Resolver) Defaults() EmbedOptions {
	return r.defaults
}

// Resolve resolves rawURL. The second result is false when rawURL holds no
// YouTube video id; the returned Info still carries the reason.
func (r *Resolver) Resolve(rawURL string) (Resolution, bool) {
	info := DetectPlaybackMode(rawURL)
	if !info.IsYouTube() {
		return Resolution{Info: info}, false
	}

	primary := EmbedURL(info.VideoID, r.defaults)
	if info.Mode == ModeNative {
		// Keep the caller's embed URL and its parameters.
		primary = info.EmbedURL
	}

	return Resolution{
		Info:      info,
		Primary:   primary,
		Fallbacks: FallbackURLs(info.VideoID, r.defaults),
	}, true
}
