// Package codec provides the codec and container registry used to judge
// whether a source is likely to play on the target surfaces (Android/iOS
// native players and system webviews), plus the URL heuristics built on it.
package codec

import "strings"

// Video represents a video codec.
type Video string

// Video codec constants.
const (
	VideoH264   Video = "h264"
	VideoH265   Video = "h265"
	VideoVP8    Video = "vp8"
	VideoVP9    Video = "vp9"
	VideoAV1    Video = "av1"
	VideoMPEG1  Video = "mpeg1"
	VideoMPEG2  Video = "mpeg2"
	VideoMPEG4  Video = "mpeg4"
	VideoVC1    Video = "vc1"
	VideoProRes Video = "prores"
	VideoTheora Video = "theora"
)

// Audio represents an audio codec.
type Audio string

// Audio codec constants.
const (
	AudioAAC    Audio = "aac"
	AudioMP3    Audio = "mp3"
	AudioAC3    Audio = "ac3"
	AudioEAC3   Audio = "eac3"
	AudioOpus   Audio = "opus"
	AudioVorbis Audio = "vorbis"
	AudioFLAC   Audio = "flac"
	AudioDTS    Audio = "dts"
	AudioTrueHD Audio = "truehd"
	AudioPCM    Audio = "pcm"
)

// String returns the string representation of the video codec.
func (v Video) String() string {
	return string(v)
}

// String returns the string representation of the audio codec.
func (a Audio) String() string {
	return string(a)
}

// videoInfo contains metadata about a video codec.
type videoInfo struct {
	Name        Video
	DisplayName string
	// Aliases are codec names, HLS sample entries and encoder names seen in
	// manifests and file names.
	Aliases []string
	// Playable reports whether the target surfaces decode it natively.
	Playable bool
	// Demuxable reports whether the mediacommon MPEG-TS demuxer handles it.
	// Overwritten at init by mediacommon_detect.go.
	Demuxable bool
}

// audioInfo contains metadata about an audio codec.
type audioInfo struct {
	Name        Audio
	DisplayName string
	Aliases     []string
	Playable    bool
	Demuxable   bool
}

// videoRegistry contains all video codec definitions.
var videoRegistry = map[Video]*videoInfo{
	VideoH264: {
		Name:        VideoH264,
		DisplayName: "H.264/AVC",
		Aliases:     []string{"h264", "avc", "avc1", "avc3", "h.264", "x264", "libx264", "h264_nvenc", "h264_qsv", "h264_vaapi"},
		Playable:    true,
	},
	VideoH265: {
		Name:        VideoH265,
		DisplayName: "H.265/HEVC",
		Aliases:     []string{"h265", "hevc", "hev1", "hvc1", "h.265", "x265", "libx265", "hevc_nvenc", "hevc_qsv", "hevc_vaapi"},
		Playable:    false,
	},
	VideoVP8: {
		Name:        VideoVP8,
		DisplayName: "VP8",
		Aliases:     []string{"vp8", "libvpx"},
		Playable:    true,
	},
	VideoVP9: {
		Name:        VideoVP9,
		DisplayName: "VP9",
		Aliases:     []string{"vp9", "vp09", "libvpx-vp9"},
		Playable:    true,
	},
	VideoAV1: {
		Name:        VideoAV1,
		DisplayName: "AV1",
		Aliases:     []string{"av1", "av01", "libaom-av1", "libsvtav1"},
		Playable:    false,
	},
	VideoMPEG1: {
		Name:        VideoMPEG1,
		DisplayName: "MPEG-1",
		Aliases:     []string{"mpeg1", "mpeg1video"},
		Playable:    false,
	},
	VideoMPEG2: {
		Name:        VideoMPEG2,
		DisplayName: "MPEG-2",
		Aliases:     []string{"mpeg2", "mpeg2video"},
		Playable:    false,
	},
	VideoMPEG4: {
		Name:        VideoMPEG4,
		DisplayName: "MPEG-4 Part 2",
		Aliases:     []string{"mpeg4", "mp4v", "xvid", "divx"},
		Playable:    true,
	},
	VideoVC1: {
		Name:        VideoVC1,
		DisplayName: "VC-1",
		Aliases:     []string{"vc1", "wmv3"},
		Playable:    false,
	},
	VideoProRes: {
		Name:        VideoProRes,
		DisplayName: "Apple ProRes",
		Aliases:     []string{"prores", "prores_ks"},
		Playable:    false,
	},
	VideoTheora: {
		Name:        VideoTheora,
		DisplayName: "Theora",
		Aliases:     []string{"theora", "libtheora"},
		Playable:    false,
	},
}

// audioRegistry contains all audio codec definitions.
var audioRegistry = map[Audio]*audioInfo{
	AudioAAC: {
		Name:        AudioAAC,
		DisplayName: "AAC",
		Aliases:     []string{"aac", "mp4a", "libfdk_aac"},
		Playable:    true,
	},
	AudioMP3: {
		Name:        AudioMP3,
		DisplayName: "MP3",
		Aliases:     []string{"mp3", "libmp3lame"},
		Playable:    true,
	},
	AudioAC3: {
		Name:        AudioAC3,
		DisplayName: "Dolby Digital (AC-3)",
		Aliases:     []string{"ac3", "ac-3", "a52"},
		Playable:    false,
	},
	AudioEAC3: {
		Name:        AudioEAC3,
		DisplayName: "Dolby Digital Plus (E-AC-3)",
		Aliases:     []string{"eac3", "ec-3", "e-ac-3", "ddp", "ddp5"},
		Playable:    false,
	},
	AudioOpus: {
		Name:        AudioOpus,
		DisplayName: "Opus",
		Aliases:     []string{"opus", "libopus"},
		Playable:    true,
	},
	AudioVorbis: {
		Name:        AudioVorbis,
		DisplayName: "Vorbis",
		Aliases:     []string{"vorbis", "libvorbis"},
		Playable:    true,
	},
	AudioFLAC: {
		Name:        AudioFLAC,
		DisplayName: "FLAC",
		Aliases:     []string{"flac"},
		Playable:    true,
	},
	AudioDTS: {
		Name:        AudioDTS,
		DisplayName: "DTS",
		Aliases:     []string{"dts", "dca", "dts-hd"},
		Playable:    false,
	},
	AudioTrueHD: {
		Name:        AudioTrueHD,
		DisplayName: "Dolby TrueHD",
		Aliases:     []string{"truehd", "mlp"},
		Playable:    false,
	},
	AudioPCM: {
		Name:        AudioPCM,
		DisplayName: "PCM",
		Aliases:     []string{"pcm", "lpcm", "pcm_s16le"},
		Playable:    true,
	},
}

// videoAliasIndex maps all aliases to their canonical codec.
var videoAliasIndex map[string]Video

// audioAliasIndex maps all aliases to their canonical codec.
var audioAliasIndex map[string]Audio

func init() {
	videoAliasIndex = make(map[string]Video)
	for codec, info := range videoRegistry {
		for _, alias := range info.Aliases {
			videoAliasIndex[strings.ToLower(alias)] = codec
		}
	}

	audioAliasIndex = make(map[string]Audio)
	for codec, info := range audioRegistry {
		for _, alias := range info.Aliases {
			audioAliasIndex[strings.ToLower(alias)] = codec
		}
	}
}

// ParseVideo parses a codec name, alias, or encoder name to a Video codec.
func ParseVideo(s string) (Video, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	codec, ok := videoAliasIndex[s]
	return codec, ok
}

// ParseAudio parses a codec name, alias, or encoder name to an Audio codec.
func ParseAudio(s string) (Audio, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	codec, ok := audioAliasIndex[s]
	return codec, ok
}

// NormalizeHLSCodec normalizes codec strings from HLS/DASH manifests to canonical form.
// HLS codec strings include version/profile info (e.g., "avc1.64001f", "mp4a.40.2").
// Returns the input unchanged if not recognized.
func NormalizeHLSCodec(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}

	lower := strings.ToLower(name)
	if codec, ok := videoAliasIndex[lower]; ok {
		return string(codec)
	}
	if codec, ok := audioAliasIndex[lower]; ok {
		return string(codec)
	}

	// Sample entry prefix before the profile suffix.
	if len(lower) >= 4 {
		switch lower[:4] {
		case "avc1", "avc3":
			return string(VideoH264)
		case "hev1", "hvc1", "dvh1", "dvhe":
			return string(VideoH265)
		case "mp4a":
			return string(AudioAAC)
		case "vp09":
			return string(VideoVP9)
		case "av01":
			return string(VideoAV1)
		case "ac-3":
			return string(AudioAC3)
		case "ec-3":
			return string(AudioEAC3)
		}
	}

	return name
}

// DisplayName returns the human-readable codec name.
func (v Video) DisplayName() string {
	if info, ok := videoRegistry[v]; ok {
		return info.DisplayName
	}
	return strings.ToUpper(string(v))
}

// DisplayName returns the human-readable codec name.
func (a Audio) DisplayName() string {
	if info, ok := audioRegistry[a]; ok {
		return info.DisplayName
	}
	return strings.ToUpper(string(a))
}

// IsPlayable reports whether the target surfaces decode the codec.
// Unknown codecs are assumed playable.
func (v Video) IsPlayable() bool {
	info, ok := videoRegistry[v]
	if !ok {
		return true
	}
	return info.Playable
}

// IsPlayable reports whether the target surfaces decode the codec.
// Unknown codecs are assumed playable.
func (a Audio) IsPlayable() bool {
	info, ok := audioRegistry[a]
	if !ok {
		return true
	}
	return info.Playable
}

// IsDemuxable reports whether the mediacommon MPEG-TS demuxer handles the codec.
func (v Video) IsDemuxable() bool {
	info, ok := videoRegistry[v]
	return ok && info.Demuxable
}

// IsDemuxable reports whether the mediacommon MPEG-TS demuxer handles the codec.
func (a Audio) IsDemuxable() bool {
	info, ok := audioRegistry[a]
	return ok && info.Demuxable
}

// IsPlayableCodec reports whether a manifest or alias codec string is
// playable. Unrecognized strings are assumed playable.
func IsPlayableCodec(name string) bool {
	canonical := NormalizeHLSCodec(name)
	if v, ok := ParseVideo(canonical); ok {
		return v.IsPlayable()
	}
	if a, ok := ParseAudio(canonical); ok {
		return a.IsPlayable()
	}
	return true
}

// CodecDisplayName returns a display name for any codec string, or the input
// unchanged when unrecognized.
func CodecDisplayName(name string) string {
	canonical := NormalizeHLSCodec(name)
	if v, ok := ParseVideo(canonical); ok {
		return v.DisplayName()
	}
	if a, ok := ParseAudio(canonical); ok {
		return a.DisplayName()
	}
	return name
}
