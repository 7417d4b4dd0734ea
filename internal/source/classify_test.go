package source

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/vidroute/internal/observability"
	"github.com/jmylchreest/vidroute/internal/player"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		typ      Type
		platform string
		videoID  string
		family   player.Family
	}{
		{"youtube watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", TypeYouTube, "YouTube", "dQw4w9WgXcQ", player.FamilyYouTube},
		{"youtube short link", "https://youtu.be/dQw4w9WgXcQ?t=42", TypeYouTube, "YouTube", "dQw4w9WgXcQ", player.FamilyYouTube},
		{"youtube channel has no id", "https://www.youtube.com/@somechannel", TypeYouTube, "YouTube", "", player.FamilyYouTube},
		{"youtube nocookie embed", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", TypeYouTube, "YouTube", "dQw4w9WgXcQ", player.FamilyYouTube},
		{"pornhub viewkey", "https://www.pornhub.com/view_video.php?viewkey=ph5f1a2b3c", TypeAdult, "Pornhub", "ph5f1a2b3c", player.FamilyWebView},
		{"xvideos", "https://www.xvideos.com/video12345/some_title", TypeAdult, "XVideos", "12345", player.FamilyWebView},
		{"redtube", "https://www.redtube.com/4242", TypeAdult, "RedTube", "4242", player.FamilyWebView},
		{"twitter", "https://twitter.com/user/status/1", TypeSocial, "Twitter", "", player.FamilySocial},
		{"x.com", "https://x.com/user/status/1", TypeSocial, "Twitter", "", player.FamilySocial},
		{"instagram subdomain", "https://www.instagram.com/reel/abc/", TypeSocial, "Instagram", "", player.FamilySocial},
		{"tiktok", "https://www.tiktok.com/@u/video/1", TypeSocial, "TikTok", "", player.FamilySocial},
		{"google drive", "https://drive.google.com/file/d/abc/view", TypeCloud, "Google Drive", "", player.FamilyWebView},
		{"dropbox mp4", "https://www.dropbox.com/s/abc/clip.mp4?dl=0", TypeCloud, "Dropbox", "", player.FamilyWebView},
		{"onedrive short", "https://1drv.ms/v/s!abc", TypeCloud, "OneDrive", "", player.FamilyWebView},
		{"hls", "https://cdn.example.com/live/master.m3u8?token=x", TypeHLS, "HLS", "", player.FamilyMP4},
		{"dash", "https://cdn.example.com/vod/manifest.mpd", TypeDASH, "DASH", "", player.FamilyMP4},
		{"mp4", "https://cdn.example.com/movie.mp4", TypeDirect, "MP4", "", player.FamilyMP4},
		{"webm upper case", "https://cdn.example.com/CLIP.WEBM", TypeDirect, "WEBM", "", player.FamilyMP4},
		{"mkv still routed native", "https://cdn.example.com/show.mkv", TypeDirect, "MKV", "", player.FamilyMP4},
		{"plain page", "https://example.com/some/page", TypeUnknown, "", "", player.FamilyWebView},
		{"google search is not drive", "https://www.google.com/search?q=video.mp4", TypeUnknown, "", "", player.FamilyWebView},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.url)
			assert.Equal(t, tt.typ, got.Type)
			assert.Equal(t, tt.platform, got.Platform)
			assert.Equal(t, tt.videoID, got.VideoID)
			assert.Equal(t, tt.family, got.UsePlayer)
		})
	}
}

func TestClassify_Precedence(t *testing.T) {
	t.Run("adult platform wins over mp4 extension", func(t *testing.T) {
		got := Classify("https://www.pornhub.com/embed/abc123/clip.mp4")
		assert.Equal(t, TypeAdult, got.Type)
		assert.Equal(t, player.FamilyWebView, got.UsePlayer)
	})

	t.Run("youtube wins over everything", func(t *testing.T) {
		got := Classify("https://www.youtube.com/redirect?q=https://twitter.com/x/video.mp4")
		assert.Equal(t, TypeYouTube, got.Type)
	})

	t.Run("hls checked before direct", func(t *testing.T) {
		assert.Equal(t, TypeHLS, Classify("https://cdn.example.com/a.mp4/index.m3u8").Type)
	})
}

func TestClassify_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		got := Classify(in)
		assert.Equal(t, TypeUnknown, got.Type)
		assert.Equal(t, player.FamilyWebView, got.UsePlayer)
	}
}

func TestClassify_Invariants(t *testing.T) {
	urls := []string{
		"", "https://youtu.be/dQw4w9WgXcQ", "https://www.youtube.com/",
		"https://cdn.example.com/a.m3u8", "https://cdn.example.com/a.mpd",
		"https://cdn.example.com/a.mov", "https://x.com/a", "https://mega.nz/file/a",
		"https://xhamster.com/videos/a", "ftp://weird", "::::",
	}
	for _, u := range urls {
		got := Classify(u)
		assert.True(t, got.UsePlayer.Valid(), u)

		switch got.Type {
		case TypeYouTube:
			assert.Equal(t, player.FamilyYouTube, got.UsePlayer, u)
		case TypeHLS, TypeDASH, TypeDirect:
			assert.Equal(t, player.FamilyMP4, got.UsePlayer, u)
			assert.True(t, got.NeedsProbe(), u)
		case TypeSocial:
			assert.Equal(t, player.FamilySocial, got.UsePlayer, u)
		default:
			assert.Equal(t, player.FamilyWebView, got.UsePlayer, u)
		}
		assert.Equal(t, got.Type == TypeHLS || got.Type == TypeDASH, got.IsStreaming(), u)
		assert.Equal(t, got, Classify(u), "classification must be deterministic")
	}
}

func TestClassifier_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	c := NewClassifier(nil, metrics)

	c.Classify("https://youtu.be/dQw4w9WgXcQ")
	c.Classify("https://cdn.example.com/a.mp4")
	c.Classify("https://cdn.example.com/b.mp4")

	count, err := testutil.GatherAndCount(reg, "vidroute_classifications_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count, "one series per type/player pair")
}
