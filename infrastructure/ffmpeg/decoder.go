package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"audio-trimmer/domain/audio"
)

// Decoder implements audio.Decoder using ffprobe for stream layout and
// ffmpeg for float sample extraction
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
	runner      CommandRunner
}

// DecoderOption is a functional option for configuring Decoder
type DecoderOption func(*Decoder)

// WithDecoderFFmpegPath sets a custom ffmpeg executable path
func WithDecoderFFmpegPath(path string) DecoderOption {
	return func(d *Decoder) {
		if path != "" {
			d.ffmpegPath = path
		}
	}
}

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) DecoderOption {
	return func(d *Decoder) {
		if path != "" {
			d.ffprobePath = path
		}
	}
}

// WithDecoderCommandRunner sets a custom command runner (for testing)
func WithDecoderCommandRunner(runner CommandRunner) DecoderOption {
	return func(d *Decoder) {
		d.runner = runner
	}
}

// NewDecoder creates a new FFmpeg-based decoder
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// probeResult mirrors the subset of ffprobe's JSON output we read
type probeResult struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Decode implements audio.Decoder
func (d *Decoder) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: input is empty", audio.ErrDecodeFailure)
	}

	sampleRate, channels, err := d.probe(ctx, data)
	if err != nil {
		return nil, err
	}

	args := append(globalArgs(), "-i", pipeIn, "-vn")
	args = append(args, Float32Output(sampleRate, channels).BuildArgs(false)...)
	args = append(args, pipeOut)

	raw, err := d.runner.Output(ctx, bytes.NewReader(data), d.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg decode failed: %v", audio.ErrDecodeFailure, err)
	}

	buf, err := audio.NewBuffer(sampleRate, deinterleaveFloat32(raw, channels))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDecodeFailure, err)
	}
	return buf, nil
}

// probe reads the sample rate and channel count of the first audio stream
func (d *Decoder) probe(ctx context.Context, data []byte) (int, int, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_type,sample_rate,channels",
		"-of", "json",
		"-i", pipeIn,
	}

	out, err := d.runner.Output(ctx, bytes.NewReader(data), d.ffprobePath, args...)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: ffprobe failed: %v", audio.ErrDecodeFailure, err)
	}

	var result probeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return 0, 0, fmt.Errorf("%w: unreadable ffprobe output: %v", audio.ErrDecodeFailure, err)
	}
	if len(result.Streams) == 0 {
		return 0, 0, fmt.Errorf("%w: no audio stream found", audio.ErrDecodeFailure)
	}

	stream := result.Streams[0]
	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid sample rate %q", audio.ErrDecodeFailure, stream.SampleRate)
	}

	channels := stream.Channels
	if channels <= 0 {
		return 0, 0, fmt.Errorf("%w: invalid channel count %d", audio.ErrDecodeFailure, channels)
	}
	if channels > audio.MaxChannels {
		// ffmpeg downmixes to stereo via -ac
		channels = audio.MaxChannels
	}

	return sampleRate, channels, nil
}

// deinterleaveFloat32 splits interleaved little-endian float32 frames into
// one slice per channel. A trailing partial frame is dropped.
func deinterleaveFloat32(raw []byte, channels int) [][]float32 {
	frameBytes := 4 * channels
	frames := len(raw) / frameBytes

	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		base := i * frameBytes
		for c := 0; c < channels; c++ {
			bits := binary.LittleEndian.Uint32(raw[base+4*c:])
			out[c][i] = math.Float32frombits(bits)
		}
	}
	return out
}

// VerifyInstalled checks that ffmpeg and ffprobe are available
func (d *Decoder) VerifyInstalled(ctx context.Context) error {
	if err := verifyInstalled(ctx, d.runner, d.ffmpegPath); err != nil {
		return err
	}
	return verifyInstalled(ctx, d.runner, d.ffprobePath)
}

// Ensure Decoder implements audio.Decoder
var _ audio.Decoder = (*Decoder)(nil)
