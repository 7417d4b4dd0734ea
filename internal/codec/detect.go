package codec

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jmylchreest/vidroute/internal/urlutil"
)

// Container represents a file container or streaming manifest format.
type Container string

// Container constants.
const (
	ContainerMP4      Container = "mp4"
	ContainerM4V      Container = "m4v"
	ContainerMOV      Container = "mov"
	ContainerWebM     Container = "webm"
	ContainerOgg      Container = "ogg"
	ContainerHLS      Container = "hls"
	ContainerDASH     Container = "dash"
	ContainerMatroska Container = "mkv"
	ContainerAVI      Container = "avi"
	ContainerWMV      Container = "wmv"
	ContainerFLV      Container = "flv"
	Container3GP      Container = "3gp"
	ContainerMPEGTS   Container = "ts"
)

// UnknownCodec is reported when no codec token is present in the URL.
const UnknownCodec = "Unknown"

// Recommendation texts. UIs display these verbatim.
const (
	RecommendReencodeVideo = "Re-encode the video to H.264 (AVC) in an MP4 container"
	RecommendReencodeAudio = "Re-encode the audio track to AAC"
	RecommendConvert       = "Convert the file to MP4 (H.264 video, AAC audio)"
	RecommendRemux         = "Remux the streams into an MP4 container; re-encoding is not required"
)

type containerInfo struct {
	Name      Container
	Display   string
	MimeType  string
	Streaming bool
	Supported bool
}

// containerRegistry is keyed by lowercase file extension including the dot.
var containerRegistry = map[string]*containerInfo{
	".mp4":  {ContainerMP4, "MP4", "video/mp4", false, true},
	".m4v":  {ContainerM4V, "M4V", "video/x-m4v", false, true},
	".mov":  {ContainerMOV, "QuickTime (MOV)", "video/quicktime", false, true},
	".webm": {ContainerWebM, "WebM", "video/webm", false, true},
	".ogv":  {ContainerOgg, "Ogg", "video/ogg", false, true},
	".m3u8": {ContainerHLS, "HLS", "application/vnd.apple.mpegurl", true, true},
	".mpd":  {ContainerDASH, "DASH", "application/dash+xml", true, true},
	".mkv":  {ContainerMatroska, "Matroska (MKV)", "video/x-matroska", false, false},
	".avi":  {ContainerAVI, "AVI", "video/x-msvideo", false, false},
	".wmv":  {ContainerWMV, "Windows Media (WMV)", "video/x-ms-wmv", false, false},
	".flv":  {ContainerFLV, "Flash Video (FLV)", "video/x-flv", false, false},
	".3gp":  {Container3GP, "3GP", "video/3gpp", false, false},
	".ts":   {ContainerMPEGTS, "MPEG-TS", "video/mp2t", false, false},
}

// FormatInfo describes the container inferred from a URL's extension.
type FormatInfo struct {
	Extension string    `json:"extension,omitempty"`
	Container Container `json:"container,omitempty"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type,omitempty"`
	Streaming bool      `json:"streaming"`
	Supported bool      `json:"supported"`
}

// Known reports whether the extension matched a registered container.
func (f FormatInfo) Known() bool {
	return f.Container != ""
}

// Info is the codec verdict for a URL. It is a heuristic over the URL text
// and never inspects the media itself.
type Info struct {
	Supported      bool   `json:"supported"`
	VideoCodec     string `json:"video_codec,omitempty"`
	AudioCodec     string `json:"audio_codec,omitempty"`
	Container      string `json:"container,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	// Remuxable is set when an unsupported container holds codecs that
	// could be repackaged without re-encoding.
	Remuxable bool `json:"remuxable,omitempty"`
}

// DetectFormat infers the container from the URL path extension.
// Unknown extensions are reported as supported.
func DetectFormat(rawURL string) FormatInfo {
	ext := urlutil.Extension(rawURL)
	info, ok := containerRegistry[ext]
	if !ok {
		return FormatInfo{Extension: ext, Name: UnknownCodec, Supported: true}
	}
	return newFormatInfo(ext, info)
}

func newFormatInfo(ext string, info *containerInfo) FormatInfo {
	return FormatInfo{
		Extension: ext,
		Container: info.Name,
		Name:      info.Display,
		MimeType:  info.MimeType,
		Streaming: info.Streaming,
		Supported: info.Supported,
	}
}

// DetectCodec flags codecs and containers the target surfaces cannot play.
//
// Checks run in order: codec names anywhere in the path or query, then
// unsupported container names anywhere in the file name, then the file
// extension. "movie.hevc.mp4" is reported as unsupported HEVC and
// "movie.mkv.mp4" as an unsupported Matroska file rather than a playable MP4.
// Without any signal the result is optimistic: supported with an unknown codec.
func DetectCodec(rawURL string) Info {
	if strings.TrimSpace(rawURL) == "" {
		return Info{Supported: true, VideoCodec: UnknownCodec}
	}

	video, audio := scanCodecs(rawURL)
	format, ok := scanUnsupportedContainer(rawURL)
	if !ok {
		format = DetectFormat(rawURL)
	}

	result := Info{
		Supported:  true,
		VideoCodec: UnknownCodec,
	}
	if video != "" {
		result.VideoCodec = video.DisplayName()
	}
	if audio != "" {
		result.AudioCodec = audio.DisplayName()
	}
	if format.Known() {
		result.Container = format.Name
	}

	switch {
	case video != "" && !video.IsPlayable():
		result.Supported = false
		result.ErrorMessage = fmt.Sprintf("%s video codec is not supported on this device", video.DisplayName())
		result.Recommendation = RecommendReencodeVideo

	case audio != "" && !audio.IsPlayable():
		result.Supported = false
		result.ErrorMessage = fmt.Sprintf("%s audio codec is not supported on this device", audio.DisplayName())
		result.Recommendation = RecommendReencodeAudio

	case format.Known() && !format.Supported:
		result.Supported = false
		result.ErrorMessage = fmt.Sprintf("%s container is not supported on this device", format.Name)
		result.Recommendation = RecommendConvert
		if Remuxable(video, audio) {
			result.Remuxable = true
			result.Recommendation = RecommendRemux
		}
	}

	return result
}

// scanCodecs returns the first video and audio codec named in rawURL. The
// file name is searched first, then the directories from the right, then
// query values.
func scanCodecs(rawURL string) (Video, Audio) {
	var video Video
	var audio Audio

	for _, segment := range urlutil.Segments(rawURL) {
		// Aliases such as "h.265" and "ec-3" are split by the tokenizer.
		for _, alias := range compoundAliases {
			if !containsWord(segment, alias) {
				continue
			}
			if v, ok := ParseVideo(alias); ok && video == "" {
				video = v
			}
			if a, ok := ParseAudio(alias); ok && audio == "" {
				audio = a
			}
		}

		for _, tok := range urlutil.Tokenize(segment) {
			if video == "" {
				if v, ok := ParseVideo(tok); ok {
					video = v
					continue
				}
			}
			if audio == "" {
				if a, ok := ParseAudio(tok); ok {
					audio = a
				}
			}
		}

		if video != "" && audio != "" {
			break
		}
	}
	return video, audio
}

// scanUnsupportedContainer reports the first unsupported container named in
// the file name, such as the "mkv" in "movie.mkv.mp4". Directories and query
// values are not searched: "/ts/clip.mp4" is an MP4.
func scanUnsupportedContainer(rawURL string) (FormatInfo, bool) {
	for _, tok := range urlutil.PathTokens(rawURL) {
		ext := "." + tok
		if info, ok := containerRegistry[ext]; ok && !info.Supported {
			return newFormatInfo(ext, info), true
		}
	}
	return FormatInfo{}, false
}

// compoundAliases holds the codec aliases containing separators, longest
// first so "dts-hd" is tried before any shorter overlap.
var compoundAliases = func() []string {
	var aliases []string
	for _, info := range videoRegistry {
		aliases = appendCompound(aliases, info.Aliases)
	}
	for _, info := range audioRegistry {
		aliases = appendCompound(aliases, info.Aliases)
	}
	slices.SortFunc(aliases, func(a, b string) int {
		if d := len(b) - len(a); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return aliases
}()

func appendCompound(dst, aliases []string) []string {
	for _, alias := range aliases {
		if strings.ContainsAny(alias, ".-") {
			dst = append(dst, strings.ToLower(alias))
		}
	}
	return dst
}

// containsWord reports whether word occurs in s bounded by non-alphanumeric
// characters or the ends of s.
func containsWord(s, word string) bool {
	for offset := 0; ; {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if (start == 0 || !isAlnum(s[start-1])) && (end == len(s) || !isAlnum(s[end])) {
			return true
		}
		offset = start + 1
	}
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
