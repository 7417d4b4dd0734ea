// Package source classifies raw URLs into source types and picks the player
// family that should render them. Classification is a heuristic over the
// URL text only; nothing is fetched.
package source

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/player"
	"github.com/jmylchreest/vidroute/internal/urlutil"
	"github.com/jmylchreest/vidroute/internal/youtube"
)

// Type is the kind of source a URL points at.
type Type string

const (
	TypeYouTube Type = "youtube"
	TypeDirect  Type = "direct"
	TypeHLS     Type = "hls"
	TypeDASH    Type = "dash"
	TypeAdult   Type = "adult"
	TypeSocial  Type = "social"
	TypeCloud   Type = "cloud"
	TypeUnknown Type = "unknown"
)

// String returns the string representation of the type.
func (t Type) String() string {
	return string(t)
}

// Classification is the routing decision for a URL.
type Classification struct {
	Type      Type          `json:"type"`
	Platform  string        `json:"platform,omitempty"`
	VideoID   string        `json:"video_id,omitempty"`
	UsePlayer player.Family `json:"use_player"`
}

// IsStreaming reports whether the source is an adaptive streaming manifest.
func (c Classification) IsStreaming() bool {
	return c.Type == TypeHLS || c.Type == TypeDASH
}

// NeedsProbe reports whether the source is fetched directly by a native
// player and should be probed before binding.
func (c Classification) NeedsProbe() bool {
	return c.UsePlayer == player.FamilyMP4
}

type platformPattern struct {
	name    string
	pattern *regexp.Regexp
	// idGroup is the submatch index holding the video id, or 0 for none.
	idGroup int
}

// adultPlatforms is ordered; the first match wins.
var adultPlatforms = []platformPattern{
	{"Pornhub", regexp.MustCompile(`(?i)pornhub\.(?:com|org)/(?:(?:view_video\.php\?viewkey=|embed/)([A-Za-z0-9]+))?`), 1},
	{"XVideos", regexp.MustCompile(`(?i)xvideos\.com/(?:(?:video\.?|embedframe/)([A-Za-z0-9]+))?`), 1},
	{"XNXX", regexp.MustCompile(`(?i)xnxx\.com/`), 0},
	{"xHamster", regexp.MustCompile(`(?i)xhamster\d*\.(?:com|desi|one)/`), 0},
	{"RedTube", regexp.MustCompile(`(?i)redtube\.com/(\d+)?`), 1},
	{"YouPorn", regexp.MustCompile(`(?i)youporn\.com/`), 0},
	{"SpankBang", regexp.MustCompile(`(?i)spankbang\.com/`), 0},
	{"Eporner", regexp.MustCompile(`(?i)eporner\.com/`), 0},
	{"Tube8", regexp.MustCompile(`(?i)tube8\.com/`), 0},
	{"Beeg", regexp.MustCompile(`(?i)beeg\.com/`), 0},
}

// socialPlatforms match on the registrable domain.
var socialPlatforms = []struct {
	name    string
	domains []string
}{
	{"Twitter", []string{"twitter.com", "x.com", "t.co"}},
	{"Instagram", []string{"instagram.com", "instagr.am"}},
	{"TikTok", []string{"tiktok.com"}},
}

// cloudPlatforms match on a host suffix, so "drive.google.com" does not
// capture every google.com URL.
var cloudPlatforms = []struct {
	name  string
	hosts []string
}{
	{"Google Drive", []string{"drive.google.com", "docs.google.com"}},
	{"Dropbox", []string{"dropbox.com", "dropboxusercontent.com"}},
	{"OneDrive", []string{"onedrive.live.com", "1drv.ms", "sharepoint.com"}},
	{"MEGA", []string{"mega.nz", "mega.io"}},
	{"Box", []string{"box.com"}},
	{"iCloud", []string{"icloud.com"}},
}

// directExtensions are checked in order; ".mp4" is first.
var directExtensions = []string{".mp4", ".m4v", ".webm", ".mov", ".avi", ".mkv", ".3gp", ".flv", ".wmv", ".ogv", ".ts"}

// youtubeMarkers are matched as plain substrings of the lowercased URL.
var youtubeMarkers = []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}

// Classifier classifies URLs. The zero value is usable.
type Classifier struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewClassifier creates a classifier. Both arguments may be nil.
func NewClassifier(logger *slog.Logger, metrics *observability.Metrics) *Classifier {
	if logger == nil {
		logger = observability.Discard()
	}
	return &Classifier{
		logger:  observability.WithComponent(logger, "classifier"),
		metrics: metrics,
	}
}

var defaultClassifier = NewClassifier(nil, nil)

// Classify classifies rawURL with a classifier that neither logs nor records metrics.
func Classify(rawURL string) Classification {
	return defaultClassifier.Classify(rawURL)
}

// Classify maps rawURL to a source type and player family. It never fails:
// empty or unrecognised input yields TypeUnknown routed to the webview.
func (c *Classifier) Classify(rawURL string) Classification {
	result := c.classify(strings.TrimSpace(rawURL))

	if c != nil {
		if c.logger != nil {
			c.logger.Debug("classified url",
				slog.String("url", rawURL),
				slog.String("type", result.Type.String()),
				slog.String("platform", result.Platform),
				slog.String("player", result.UsePlayer.String()),
			)
		}
		c.metrics.RecordClassification(result.Type.String(), result.UsePlayer.String())
	}
	return result
}

func (c *Classifier) classify(rawURL string) Classification {
	if rawURL == "" {
		return unknown()
	}
	lower := strings.ToLower(rawURL)

	for _, marker := range youtubeMarkers {
		if strings.Contains(lower, marker) {
			id, _ := youtube.ExtractVideoID(rawURL)
			return Classification{
				Type:      TypeYouTube,
				Platform:  "YouTube",
				VideoID:   id,
				UsePlayer: player.FamilyYouTube,
			}
		}
	}

	for _, p := range adultPlatforms {
		m := p.pattern.FindStringSubmatch(rawURL)
		if m == nil {
			continue
		}
		var id string
		if p.idGroup > 0 && p.idGroup < len(m) {
			id = m[p.idGroup]
		}
		return Classification{
			Type:      TypeAdult,
			Platform:  p.name,
			VideoID:   id,
			UsePlayer: player.FamilyWebView,
		}
	}

	domain := urlutil.RegistrableDomain(rawURL)
	for _, p := range socialPlatforms {
		for _, d := range p.domains {
			if domain == d {
				return Classification{
					Type:      TypeSocial,
					Platform:  p.name,
					UsePlayer: player.FamilySocial,
				}
			}
		}
	}

	for _, p := range cloudPlatforms {
		for _, h := range p.hosts {
			if urlutil.HostMatches(rawURL, h) {
				return Classification{
					Type:      TypeCloud,
					Platform:  p.name,
					UsePlayer: player.FamilyWebView,
				}
			}
		}
	}

	ext := urlutil.Extension(rawURL)
	switch {
	case ext == ".m3u8":
		return Classification{Type: TypeHLS, Platform: "HLS", UsePlayer: player.FamilyMP4}
	case ext == ".mpd":
		return Classification{Type: TypeDASH, Platform: "DASH", UsePlayer: player.FamilyMP4}
	}

	for _, d := range directExtensions {
		if ext == d {
			return Classification{
				Type:      TypeDirect,
				Platform:  strings.ToUpper(strings.TrimPrefix(d, ".")),
				UsePlayer: player.FamilyMP4,
			}
		}
	}

	return unknown()
}

func unknown() Classification {
	return Classification{Type: TypeUnknown, UsePlayer: player.FamilyWebView}
}
