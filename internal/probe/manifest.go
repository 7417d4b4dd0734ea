package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/bluenviron/gohlslib/v2/pkg/playlist"

	"github.com/jmylchreest/vidroute/internal/codec"
	"github.com/jmylchreest/vidroute/internal/urlutil"
	"github.com/jmylchreest/vidroute/pkg/httpclient"
)

// ManifestKind identifies the parsed playlist type.
type ManifestKind string

const (
	ManifestMultivariant ManifestKind = "multivariant"
	ManifestMedia        ManifestKind = "media"
	ManifestDASH         ManifestKind = "dash"
	ManifestUnknown      ManifestKind = "unknown"
)

// ErrManifestTooLarge is reported when a playlist exceeds the size cap.
var ErrManifestTooLarge = errors.New("manifest exceeds size limit")

// ManifestInfo summarises an HLS playlist.
type ManifestInfo struct {
	URL          string       `json:"url"`
	Kind         ManifestKind `json:"kind"`
	Inspected    bool         `json:"inspected"`
	VariantCount int          `json:"variant_count"`
	SegmentCount int          `json:"segment_count"`
	// Codecs are canonical names ("h264", "aac") in first-seen order.
	Codecs []string `json:"codecs,omitempty"`
	// UnsupportedCodecs are the codecs the target surface cannot decode.
	UnsupportedCodecs []string `json:"unsupported_codecs,omitempty"`
	// PlayableVariants counts variants whose codecs are all playable.
	PlayableVariants int    `json:"playable_variants"`
	Encrypted        bool   `json:"encrypted"`
	FMP4             bool   `json:"fmp4"`
	Live             bool   `json:"live"`
	Error            string `json:"error,omitempty"`
}

// Playable reports whether at least one rendition can be decoded. Playlists
// that do not declare codecs are assumed playable.
func (m ManifestInfo) Playable() bool {
	if !m.Inspected {
		return true
	}
	if m.Kind == ManifestMultivariant && m.VariantCount > 0 {
		return m.PlayableVariants > 0
	}
	return len(m.UnsupportedCodecs) == 0
}

// InspectManifest fetches and parses an HLS playlist. DASH manifests are
// recognised but not inspected. Failures are reported in Error.
func (p *Prober) InspectManifest(ctx context.Context, rawURL string) ManifestInfo {
	info := ManifestInfo{URL: rawURL, Kind: ManifestUnknown}

	if urlutil.Extension(rawURL) == ".mpd" {
		info.Kind = ManifestDASH
		info.Error = "DASH manifests are not inspected"
		return info
	}

	data, err := p.fetchManifest(ctx, rawURL)
	if err != nil {
		info.Error = fmt.Sprintf("Failed to fetch manifest: %v", httpclient.LastError(err))
		p.logger.Info("manifest fetch failed", slog.String("url", rawURL), slog.String("error", info.Error))
		return info
	}

	info = ParseManifest(rawURL, data)
	p.logger.Debug("manifest inspected",
		slog.String("url", rawURL),
		slog.String("kind", string(info.Kind)),
		slog.Int("variants", info.VariantCount),
		slog.Any("codecs", info.Codecs),
		slog.Bool("encrypted", info.Encrypted),
		slog.Bool("fmp4", info.FMP4),
	)
	return info
}

// ParseManifest parses playlist bytes with gohlslib.
func ParseManifest(rawURL string, data []byte) ManifestInfo {
	info := ManifestInfo{URL: rawURL, Kind: ManifestUnknown}

	pl, err := playlist.Unmarshal(data)
	if err != nil {
		info.Error = fmt.Sprintf("Failed to parse playlist: %v", err)
		return info
	}
	info.Inspected = true

	switch pl := pl.(type) {
	case *playlist.Multivariant:
		inspectMultivariant(pl, &info)
	case *playlist.Media:
		inspectMedia(pl, &info)
	default:
		info.Inspected = false
		info.Error = "Unknown playlist type"
	}
	return info
}

func inspectMultivariant(mv *playlist.Multivariant, info *ManifestInfo) {
	info.Kind = ManifestMultivariant
	// Live vs VOD is only known from the media playlists, which are not fetched.
	info.VariantCount = len(mv.Variants)

	for _, v := range mv.Variants {
		if v == nil {
			continue
		}
		playable := true
		for _, c := range v.Codecs {
			canonical := codec.NormalizeHLSCodec(c)
			addUnique(&info.Codecs, canonical)
			if !codec.IsPlayableCodec(c) {
				playable = false
				addUnique(&info.UnsupportedCodecs, canonical)
			}
		}
		if playable {
			info.PlayableVariants++
		}
	}
}

func inspectMedia(media *playlist.Media, info *ManifestInfo) {
	info.Kind = ManifestMedia
	info.VariantCount = 1
	info.SegmentCount = len(media.Segments)
	info.Live = !media.Endlist
	info.FMP4 = media.Map != nil
	info.PlayableVariants = 1

	for _, seg := range media.Segments {
		if seg != nil && seg.Key != nil {
			info.Encrypted = true
			break
		}
	}
}

func addUnique(list *[]string, v string) {
	if v == "" || slices.Contains(*list, v) {
		return
	}
	*list = append(*list, v)
}

func (p *Prober) fetchManifest(ctx context.Context, rawURL string) ([]byte, error) {
	if err := urlutil.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(httpclient.HeaderUserAgent, p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxManifestBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > p.maxManifestBytes {
		return nil, ErrManifestTooLarge
	}
	if !strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")), "#EXTM3U") {
		return nil, errors.New("response is not an HLS playlist")
	}
	return data, nil
}
