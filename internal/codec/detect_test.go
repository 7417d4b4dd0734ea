package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		url       string
		container Container
		streaming bool
		supported bool
	}{
		{"https://cdn.example.com/clip.mp4", ContainerMP4, false, true},
		{"https://cdn.example.com/clip.MP4?token=abc", ContainerMP4, false, true},
		{"https://cdn.example.com/clip.webm", ContainerWebM, false, true},
		{"https://cdn.example.com/live/index.m3u8", ContainerHLS, true, true},
		{"https://cdn.example.com/vod/manifest.mpd", ContainerDASH, true, true},
		{"https://cdn.example.com/movie.mkv", ContainerMatroska, false, false},
		{"https://cdn.example.com/old.avi", ContainerAVI, false, false},
		{"https://cdn.example.com/seg/000001.ts", ContainerMPEGTS, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := DetectFormat(tt.url)
			assert.Equal(t, tt.container, got.Container)
			assert.Equal(t, tt.streaming, got.Streaming)
			assert.Equal(t, tt.supported, got.Supported)
			assert.True(t, got.Known())
		})
	}
}

func TestDetectFormat_Unknown(t *testing.T) {
	got := DetectFormat("https://example.com/watch")
	assert.False(t, got.Known())
	assert.True(t, got.Supported)
	assert.Equal(t, UnknownCodec, got.Name)

	// "ts" must never match inside the scheme or host.
	got = DetectFormat("https://tsplayer.example.com/video")
	assert.False(t, got.Known())
}

func TestDetectCodec_HEVCBeatsContainer(t *testing.T) {
	got := DetectCodec("https://cdn.example.com/movie.hevc.mp4")

	assert.False(t, got.Supported)
	assert.Contains(t, got.VideoCodec, "HEVC")
	assert.Equal(t, "MP4", got.Container)
	assert.Equal(t, "H.265/HEVC video codec is not supported on this device", got.ErrorMessage)
	assert.Equal(t, RecommendReencodeVideo, got.Recommendation)
}

func TestDetectCodec(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		supported      bool
		videoCodec     string
		audioCodec     string
		recommendation string
		remuxable      bool
	}{
		{
			name:       "plain mp4",
			url:        "https://cdn.example.com/clip.mp4",
			supported:  true,
			videoCodec: UnknownCodec,
		},
		{
			name:       "h264 tagged mp4",
			url:        "https://cdn.example.com/Show.S01E01.1080p.x264.AAC.mp4",
			supported:  true,
			videoCodec: "H.264/AVC",
			audioCodec: "AAC",
		},
		{
			name:           "dotted h.265",
			url:            "https://cdn.example.com/Film.2023.H.265.mp4",
			supported:      false,
			videoCodec:     "H.265/HEVC",
			recommendation: RecommendReencodeVideo,
		},
		{
			name:           "x265 mkv reports codec first",
			url:            "https://cdn.example.com/Film-x265.mkv",
			supported:      false,
			videoCodec:     "H.265/HEVC",
			recommendation: RecommendReencodeVideo,
		},
		{
			name:           "unsupported audio",
			url:            "https://cdn.example.com/concert.h264.dts.mp4",
			supported:      false,
			videoCodec:     "H.264/AVC",
			audioCodec:     "DTS",
			recommendation: RecommendReencodeAudio,
		},
		{
			name:           "bare mkv",
			url:            "https://cdn.example.com/movie.mkv",
			supported:      false,
			videoCodec:     UnknownCodec,
			recommendation: RecommendConvert,
		},
		{
			name:           "h264 aac in mpeg-ts is remuxable",
			url:            "https://cdn.example.com/rec_h264_aac.ts",
			supported:      false,
			videoCodec:     "H.264/AVC",
			audioCodec:     "AAC",
			recommendation: RecommendRemux,
			remuxable:      true,
		},
		{
			name:           "mkv before mp4 extension",
			url:            "https://cdn.example.com/movie.mkv.mp4",
			supported:      false,
			videoCodec:     UnknownCodec,
			recommendation: RecommendConvert,
		},
		{
			name:           "avi before mp4 extension",
			url:            "https://cdn.example.com/movie.avi.mp4",
			supported:      false,
			videoCodec:     UnknownCodec,
			recommendation: RecommendConvert,
		},
		{
			name:           "codec in directory",
			url:            "https://cdn.example.com/hevc/movie.mp4",
			supported:      false,
			videoCodec:     "H.265/HEVC",
			recommendation: RecommendReencodeVideo,
		},
		{
			name:           "codec in query",
			url:            "https://cdn.example.com/movie.mp4?codec=h265",
			supported:      false,
			videoCodec:     "H.265/HEVC",
			recommendation: RecommendReencodeVideo,
		},
		{
			name:           "hyphenated e-ac-3 alias",
			url:            "https://cdn.example.com/movie.EC-3.mp4",
			supported:      false,
			videoCodec:     UnknownCodec,
			audioCodec:     "Dolby Digital Plus (E-AC-3)",
			recommendation: RecommendReencodeAudio,
		},
		{
			name:           "e-ac-3 is not read as ac-3",
			url:            "https://cdn.example.com/Movie.E-AC-3.mp4",
			supported:      false,
			videoCodec:     UnknownCodec,
			audioCodec:     "Dolby Digital Plus (E-AC-3)",
			recommendation: RecommendReencodeAudio,
		},
		{
			name:           "hyphenated ac-3 alias",
			url:            "https://cdn.example.com/Film_1080p_x264_AC-3.mp4",
			supported:      false,
			videoCodec:     "H.264/AVC",
			audioCodec:     "Dolby Digital (AC-3)",
			recommendation: RecommendReencodeAudio,
		},
		{
			name:           "hyphenated dts-hd alias",
			url:            "https://cdn.example.com/concert.dts-hd.mp4",
			supported:      false,
			videoCodec:     UnknownCodec,
			audioCodec:     "DTS",
			recommendation: RecommendReencodeAudio,
		},
		{
			name:           "encoder name with dash",
			url:            "https://cdn.example.com/clip.libaom-av1.mp4",
			supported:      false,
			videoCodec:     "AV1",
			recommendation: RecommendReencodeVideo,
		},
		{
			name:       "alias must be a whole word",
			url:        "https://cdn.example.com/spec-3.mp4",
			supported:  true,
			videoCodec: UnknownCodec,
		},
		{
			name:       "file name codec wins over directory",
			url:        "https://cdn.example.com/hevc/movie.h264.mp4",
			supported:  true,
			videoCodec: "H.264/AVC",
		},
		{
			name:       "https scheme is not mpeg-ts",
			url:        "https://cdn.example.com/watch",
			supported:  true,
			videoCodec: UnknownCodec,
		},
		{
			name:       "empty input",
			url:        "",
			supported:  true,
			videoCodec: UnknownCodec,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectCodec(tt.url)
			assert.Equal(t, tt.supported, got.Supported)
			assert.Equal(t, tt.videoCodec, got.VideoCodec)
			assert.Equal(t, tt.audioCodec, got.AudioCodec)
			assert.Equal(t, tt.recommendation, got.Recommendation)
			assert.Equal(t, tt.remuxable, got.Remuxable)
			if !tt.supported {
				assert.Contains(t, got.ErrorMessage, "not supported on this device")
			} else {
				assert.Empty(t, got.ErrorMessage)
			}
		})
	}
}

func TestDetectCodec_Container(t *testing.T) {
	tests := []struct {
		url       string
		container string
		supported bool
	}{
		{"https://cdn.example.com/movie.mkv.mp4", "Matroska (MKV)", false},
		{"https://cdn.example.com/old.wmv.mp4", "Windows Media (WMV)", false},
		{"https://cdn.example.com/clip.mp4", "MP4", true},
		// Directories and query values never name the container.
		{"https://cdn.example.com/ts/clip.mp4", "MP4", true},
		{"https://cdn.example.com/clip.mp4?format=flv", "MP4", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := DetectCodec(tt.url)
			assert.Equal(t, tt.container, got.Container)
			assert.Equal(t, tt.supported, got.Supported)
		})
	}
}
