package codec

import (
	"testing"
)

func TestMediacommonCodecDetection(t *testing.T) {
	tests := []struct {
		name     string
		codec    string
		expected bool
	}{
		// Video codecs
		{"H264", "h264", true},
		{"H265", "h265", true},
		{"MPEG1", "mpeg1", true},
		{"MPEG4", "mpeg4", true},
		{"H264 sample entry", "avc1.64001f", true},

		// Audio codecs
		{"AAC", "aac", true},
		{"AC3", "ac3", true},
		{"EAC3", "eac3", true},
		{"MP3", "mp3", true},
		{"Opus", "opus", true},

		// No MPEG-TS demuxer
		{"VP9", "vp9", false},
		{"DTS", "dts", false},
		{"TrueHD", "truehd", false},
		{"Vorbis", "vorbis", false},
		{"Unknown", "nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsMediacommonCodecSupported(tt.codec)
			if got != tt.expected {
				t.Errorf("IsMediacommonCodecSupported(%q) = %v, want %v", tt.codec, got, tt.expected)
			}
		})
	}
}

func TestRegistryDemuxableMatchesDetection(t *testing.T) {
	for v := range videoDemuxProbes {
		if videoRegistry[v].Demuxable != IsMediacommonCodecSupported(string(v)) {
			t.Errorf("video %s: registry and detection disagree", v)
		}
	}
	for a := range audioDemuxProbes {
		if audioRegistry[a].Demuxable != IsMediacommonCodecSupported(string(a)) {
			t.Errorf("audio %s: registry and detection disagree", a)
		}
	}
}

func TestRemuxable(t *testing.T) {
	tests := []struct {
		name     string
		video    Video
		audio    Audio
		expected bool
	}{
		{"h264 aac", VideoH264, AudioAAC, true},
		{"h264 only", VideoH264, "", true},
		{"aac only", "", AudioAAC, true},
		{"nothing known", "", "", false},
		{"hevc is demuxable but not playable", VideoH265, AudioAAC, false},
		{"vp9 has no ts demuxer", VideoVP9, AudioOpus, false},
		{"ac3 audio", VideoH264, AudioAC3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remuxable(tt.video, tt.audio); got != tt.expected {
				t.Errorf("Remuxable(%q, %q) = %v, want %v", tt.video, tt.audio, got, tt.expected)
			}
		})
	}
}
