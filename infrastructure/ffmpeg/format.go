package ffmpeg

import "strconv"

const (
	formatS16LE = "s16le"
	formatF32LE = "f32le"
	formatMP3   = "mp3"

	codecPCMF32LE = "pcm_f32le"
	codecMP3      = "libmp3lame"

	pipeIn  = "pipe:0"
	pipeOut = "pipe:1"
)

// StreamFormat describes one side of an ffmpeg conversion
type StreamFormat struct {
	Format      string // demuxer/muxer name passed to -f
	Codec       string // codec passed to -c:a (output only)
	SampleRate  int
	Channels    int
	BitrateKbps int // output only
}

// PCM16Input is the raw interleaved signed 16-bit little-endian stream fed to the encoder
func PCM16Input(sampleRate, channels int) StreamFormat {
	return StreamFormat{Format: formatS16LE, SampleRate: sampleRate, Channels: channels}
}

// MP3Output is the compressed stream produced by the encoder
func MP3Output(bitrateKbps int) StreamFormat {
	return StreamFormat{Format: formatMP3, Codec: codecMP3, BitrateKbps: bitrateKbps}
}

// Float32Output is the raw interleaved float stream produced by the decoder
func Float32Output(sampleRate, channels int) StreamFormat {
	return StreamFormat{Format: formatF32LE, Codec: codecPCMF32LE, SampleRate: sampleRate, Channels: channels}
}

// BuildArgs converts the format to ffmpeg arguments placed before -i (input)
// or before the output target
func (f StreamFormat) BuildArgs(isInput bool) []string {
	var args []string

	if f.Format != "" {
		args = append(args, "-f", f.Format)
	}
	if f.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(f.SampleRate))
	}
	if f.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(f.Channels))
	}
	if !isInput && f.Codec != "" {
		args = append(args, "-c:a", f.Codec)
	}
	if !isInput && f.BitrateKbps > 0 {
		args = append(args, "-b:a", strconv.Itoa(f.BitrateKbps)+"k")
	}

	return args
}

// globalArgs keeps ffmpeg quiet on stderr unless something fails
func globalArgs() []string {
	return []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
}
