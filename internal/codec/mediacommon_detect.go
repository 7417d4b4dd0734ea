package codec

import (
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"
)

// demuxProbes maps each registry codec to the mediacommon MPEG-TS codec type
// that would carry it. A codec absent from this map has no demuxer.
var (
	videoDemuxProbes = map[Video]mpegts.Codec{
		VideoH264:  &mpegts.CodecH264{},
		VideoH265:  &mpegts.CodecH265{},
		VideoMPEG1: &mpegts.CodecMPEG1Video{},
		VideoMPEG2: &mpegts.CodecMPEG1Video{},
		VideoMPEG4: &mpegts.CodecMPEG4Video{},
	}

	audioDemuxProbes = map[Audio]mpegts.Codec{
		AudioAAC:  &mpegts.CodecMPEG4Audio{},
		AudioAC3:  &mpegts.CodecAC3{},
		AudioEAC3: &mpegts.CodecEAC3{},
		AudioMP3:  &mpegts.CodecMPEG1Audio{},
		AudioOpus: &mpegts.CodecOpus{},
	}
)

func init() {
	for v, probe := range videoDemuxProbes {
		if info, ok := videoRegistry[v]; ok {
			info.Demuxable = !isUnsupportedCodec(probe)
		}
	}
	for a, probe := range audioDemuxProbes {
		if info, ok := audioRegistry[a]; ok {
			info.Demuxable = !isUnsupportedCodec(probe)
		}
	}
}

func isUnsupportedCodec(c mpegts.Codec) bool {
	_, unsupported := c.(*mpegts.CodecUnsupported)
	return unsupported
}

// IsMediacommonCodecSupported reports whether mediacommon can demux the
// named codec out of an MPEG-TS stream. Accepts any alias or HLS codec string.
func IsMediacommonCodecSupported(codecName string) bool {
	canonical := NormalizeHLSCodec(codecName)
	if v, ok := ParseVideo(canonical); ok {
		return v.IsDemuxable()
	}
	if a, ok := ParseAudio(canonical); ok {
		return a.IsDemuxable()
	}
	return false
}

// Remuxable reports whether a source carrying the given codecs could be
// repackaged into a playable container without re-encoding. Both codecs must
// be playable on the target surface and demuxable; an empty codec is ignored.
func Remuxable(video Video, audio Audio) bool {
	if video == "" && audio == "" {
		return false
	}
	if video != "" && (!video.IsPlayable() || !video.IsDemuxable()) {
		return false
	}
	if audio != "" && (!audio.IsPlayable() || !audio.IsDemuxable()) {
		return false
	}
	return true
}
