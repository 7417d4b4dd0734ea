// Package youtube extracts video ids from YouTube URLs and builds the embed
// URLs, and ordered fallback variants, that a webview player loads.
package youtube

import (
	"regexp"
	"strings"
)

// Mode is how a YouTube URL should be played.
type Mode string

const (
	// ModeWebView - full YouTube interface inside a webview (watch, short, shorts URLs).
	ModeWebView Mode = "webview"

	// ModeNative - the caller already holds an /embed/ URL and wants API control.
	ModeNative Mode = "native"

	// ModeNotYouTube - no video id could be extracted.
	ModeNotYouTube Mode = "not-youtube"
)

// Reasons reported by DetectPlaybackMode.
const (
	ReasonEmpty      = "Empty or invalid URL"
	ReasonNotYouTube = "Not a YouTube URL"
	ReasonEmbed      = "Embed URL supports API-controlled playback"
	ReasonWatch      = "Watch URL plays with the full YouTube interface"
)

// VideoIDLength is the exact length of every YouTube video id.
const VideoIDLength = 11

const (
	embedBase         = "https://www.youtube.com/embed/"
	embedBaseNoCookie = "https://www.youtube-nocookie.com/embed/"
)

// detectEmbedParams are the fixed parameters DetectPlaybackMode uses.
const detectEmbedParams = "enablejsapi=1&autoplay=0&controls=1&rel=0&modestbranding=1&playsinline=1"

// idPatterns are tried in order. Each captures exactly 11 id characters that
// are not followed by another id character, so a longer token never yields
// its 11-character prefix.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)youtube(?:-nocookie)?\.com/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?i)youtu\.be/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?i)youtube(?:-nocookie)?\.com/embed/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?i)youtube(?:-nocookie)?\.com/v/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?i)youtube\.com/shorts/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?i)youtube\.com/live/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?i)youtube(?:-nocookie)?\.com/.*[?&]v=([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
}

var (
	embedPathPattern = regexp.MustCompile(`(?i)youtube(?:-nocookie)?\.com/embed/`)
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// PlaybackInfo describes how a URL should be played.
type PlaybackInfo struct {
	Mode        Mode   `json:"mode"`
	VideoID     string `json:"video_id,omitempty"`
	OriginalURL string `json:"original_url"`
	EmbedURL    string `json:"embed_url,omitempty"`
	Reason      string `json:"reason"`
}

// IsYouTube reports whether a video id was found.
func (p PlaybackInfo) IsYouTube() bool {
	return p.Mode != ModeNotYouTube
}

// IsValidVideoID reports whether id has the shape of a YouTube video id.
func IsValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// ExtractVideoID returns the first 11-character video id found in rawURL.
func ExtractVideoID(rawURL string) (string, bool) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", false
	}
	for _, p := range idPatterns {
		if m := p.FindStringSubmatch(s); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

// DetectPlaybackMode decides between the full-interface webview and
// API-controlled native playback.
func DetectPlaybackMode(rawURL string) PlaybackInfo {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return PlaybackInfo{Mode: ModeNotYouTube, OriginalURL: rawURL, Reason: ReasonEmpty}
	}

	id, ok := ExtractVideoID(s)
	if !ok {
		return PlaybackInfo{Mode: ModeNotYouTube, OriginalURL: rawURL, Reason: ReasonNotYouTube}
	}

	if embedPathPattern.MatchString(s) {
		return PlaybackInfo{
			Mode:        ModeNative,
			VideoID:     id,
			OriginalURL: rawURL,
			EmbedURL:    s,
			Reason:      ReasonEmbed,
		}
	}

	return PlaybackInfo{
		Mode:        ModeWebView,
		VideoID:     id,
		OriginalURL: rawURL,
		EmbedURL:    embedBase + id + "?" + detectEmbedParams,
		Reason:      ReasonWatch,
	}
}
