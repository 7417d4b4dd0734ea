package youtube

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/vidroute/internal/config"
)

const testID = "dQw4w9WgXcQ"

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"watch", "https://www.youtube.com/watch?v=" + testID, testID, true},
		{"watch with timestamp", "https://www.youtube.com/watch?v=" + testID + "&t=30s", testID, true},
		{"watch with leading params", "https://www.youtube.com/watch?feature=share&v=" + testID, testID, true},
		{"mobile watch", "https://m.youtube.com/watch?v=" + testID, testID, true},
		{"short link", "https://youtu.be/" + testID, testID, true},
		{"short link with timestamp", "https://youtu.be/" + testID + "?t=30s", testID, true},
		{"embed", "https://www.youtube.com/embed/" + testID, testID, true},
		{"embed with params", "https://www.youtube.com/embed/" + testID + "?autoplay=1&t=30s", testID, true},
		{"nocookie embed", "https://www.youtube-nocookie.com/embed/" + testID, testID, true},
		{"v path", "https://www.youtube.com/v/" + testID, testID, true},
		{"shorts", "https://www.youtube.com/shorts/" + testID, testID, true},
		{"shorts with timestamp", "https://youtube.com/shorts/" + testID + "?t=30s", testID, true},
		{"live", "https://www.youtube.com/live/" + testID + "?feature=share", testID, true},
		{"music", "https://music.youtube.com/watch?v=" + testID + "&list=RD", testID, true},
		{"attribution link", "https://www.youtube.com/attribution_link?a=x&u=/watch%3Fv%3D&v=" + testID, testID, true},
		{"surrounding whitespace", "  https://youtu.be/" + testID + "  ", testID, true},
		{"id too long", "https://youtu.be/" + testID + "X", "", false},
		{"id too short", "https://youtu.be/abc", "", false},
		{"channel page", "https://www.youtube.com/@someone", "", false},
		{"vimeo", "https://vimeo.com/123456789", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVideoID(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.Len(t, got, VideoIDLength)
			}
		})
	}
}

func TestDetectPlaybackMode(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		mode   Mode
		reason string
	}{
		{"embed is native", "https://www.youtube.com/embed/" + testID, ModeNative, ReasonEmbed},
		{"short link is webview", "https://youtu.be/" + testID, ModeWebView, ReasonWatch},
		{"watch is webview", "https://www.youtube.com/watch?v=" + testID, ModeWebView, ReasonWatch},
		{"shorts is webview", "https://www.youtube.com/shorts/" + testID, ModeWebView, ReasonWatch},
		{"vimeo", "https://vimeo.com/123", ModeNotYouTube, ReasonNotYouTube},
		{"empty", "", ModeNotYouTube, ReasonEmpty},
		{"blank", "   ", ModeNotYouTube, ReasonEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := DetectPlaybackMode(tt.input)
			assert.Equal(t, tt.mode, info.Mode)
			assert.Equal(t, tt.reason, info.Reason)
			assert.Equal(t, tt.input, info.OriginalURL)
			if tt.mode == ModeNotYouTube {
				assert.Empty(t, info.VideoID)
				assert.Empty(t, info.EmbedURL)
				assert.False(t, info.IsYouTube())
			} else {
				assert.Equal(t, testID, info.VideoID)
			}
		})
	}
}

func TestDetectPlaybackMode_WebViewEmbedURL(t *testing.T) {
	info := DetectPlaybackMode("https://youtu.be/" + testID)
	assert.Equal(t,
		"https://www.youtube.com/embed/"+testID+"?enablejsapi=1&autoplay=0&controls=1&rel=0&modestbranding=1&playsinline=1",
		info.EmbedURL)
}

func TestEmbedURL_Defaults(t *testing.T) {
	got := EmbedURL(testID, DefaultEmbedOptions())
	assert.Equal(t,
		"https://www.youtube.com/embed/"+testID+"?autoplay=0&controls=1&loop=0&mute=0&modestbranding=1&playsinline=1&rel=0&enablejsapi=1",
		got)
}

func TestEmbedURL_Options(t *testing.T) {
	opts := DefaultEmbedOptions()
	opts.Autoplay = true
	opts.Muted = true
	opts.Loop = true
	opts.Origin = "https://app.example.com"
	opts.WidgetReferrer = "https://app.example.com/watch"
	opts.Start = 90*time.Second + 500*time.Millisecond

	got := EmbedURL(testID, opts)
	assert.True(t, strings.HasPrefix(got, "https://www.youtube.com/embed/"+testID+"?autoplay=1&controls=1&loop=1&mute=1"))
	assert.Contains(t, got, "&playlist="+testID)
	assert.Contains(t, got, "&origin=https%3A%2F%2Fapp.example.com")
	assert.Contains(t, got, "&widget_referrer=https%3A%2F%2Fapp.example.com%2Fwatch")
	assert.True(t, strings.HasSuffix(got, "&start=90"))
}

func TestEmbedURL_InvalidID(t *testing.T) {
	assert.Empty(t, EmbedURL("short", DefaultEmbedOptions()))
	assert.Nil(t, FallbackURLs("not/an/id!", DefaultEmbedOptions()))
}

func TestFallbackURLs(t *testing.T) {
	opts := DefaultEmbedOptions()
	urls := FallbackURLs(testID, opts)

	require.GreaterOrEqual(t, len(urls), 4)
	for _, u := range urls {
		assert.Contains(t, u, testID)
	}
	assert.True(t, strings.HasPrefix(urls[0], "https://www.youtube.com/"))

	var nocookie int
	for _, u := range urls {
		if strings.Contains(u, "youtube-nocookie.com") {
			nocookie++
		}
	}
	assert.Positive(t, nocookie)

	assert.Equal(t, []string{
		"https://www.youtube.com/embed/" + testID + "?autoplay=0&controls=1&loop=0&mute=0&modestbranding=1&playsinline=1&rel=0&enablejsapi=1",
		"https://www.youtube-nocookie.com/embed/" + testID + "?autoplay=0&controls=1&loop=0&mute=0&modestbranding=1&playsinline=1&rel=0&enablejsapi=1",
		"https://www.youtube.com/embed/" + testID + "?autoplay=0&playsinline=1",
		"https://www.youtube-nocookie.com/embed/" + testID + "?autoplay=0&playsinline=1",
		"https://www.youtube.com/embed/" + testID,
	}, urls)

	// Deterministic across calls.
	assert.Equal(t, urls, FallbackURLs(testID, opts))
}

func TestFallbackURLs_ProgressivelyFewerParams(t *testing.T) {
	urls := FallbackURLs(testID, DefaultEmbedOptions())
	count := func(u string) int {
		_, q, found := strings.Cut(u, "?")
		if !found {
			return 0
		}
		return strings.Count(q, "=")
	}
	for i := 2; i < len(urls); i++ {
		assert.LessOrEqual(t, count(urls[i]), count(urls[i-2]), urls[i])
	}
}

func TestEmbedOptionsFromConfig(t *testing.T) {
	cfg := config.Default().YouTube
	assert.Equal(t, DefaultEmbedOptions(), EmbedOptionsFromConfig(cfg))

	cfg.Origin = "https://o.example"
	assert.Equal(t, "https://o.example", EmbedOptionsFromConfig(cfg).Origin)
}

func TestResolver(t *testing.T) {
	r := NewResolver(DefaultEmbedOptions())

	t.Run("watch url", func(t *testing.T) {
		res, ok := r.Resolve("https://www.youtube.com/watch?v=" + testID)
		require.True(t, ok)
		assert.Equal(t, ModeWebView, res.Info.Mode)
		assert.Equal(t, EmbedURL(testID, r.Defaults()), res.Primary)

		candidates := res.Candidates()
		assert.Len(t, candidates, 5, "primary duplicates the first fallback")
		assert.Equal(t, res.Primary, candidates[0])
	})

	t.Run("embed url keeps caller parameters", func(t *testing.T) {
		in := "https://www.youtube.com/embed/" + testID + "?start=10"
		res, ok := r.Resolve(in)
		require.True(t, ok)
		assert.Equal(t, ModeNative, res.Info.Mode)
		assert.Equal(t, in, res.Primary)
		assert.Len(t, res.Candidates(), 6)
	})

	t.Run("not youtube", func(t *testing.T) {
		res, ok := r.Resolve("https://vimeo.com/1")
		assert.False(t, ok)
		assert.Equal(t, ReasonNotYouTube, res.Info.Reason)
		assert.Empty(t, res.Candidates())
	})
}
