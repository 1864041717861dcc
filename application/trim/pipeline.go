package trim

import (
	"context"
	"errors"
	"fmt"

	"audio-trimmer/domain/audio"

	"go.uber.org/zap"
)

// Processor turns the bytes of one input file into trimmed output bytes
type Processor interface {
	Process(ctx context.Context, data []byte, spec audio.TrimSpec) (*Result, error)
}

// Result describes a successfully processed file
type Result struct {
	Output         []byte
	SampleRate     int
	Channels       int
	StartOffset    int
	TrimmedSamples int
}

// Pipeline runs decode -> trim -> convert -> block encode -> flush for a single file
type Pipeline struct {
	decoder     audio.Decoder
	encoders    audio.EncoderFactory
	bitrateKbps int
	logger      *zap.Logger
}

// PipelineOption is a functional option for configuring Pipeline
type PipelineOption func(*Pipeline)

// WithBitrate sets the encoder bitrate in kbps
func WithBitrate(kbps int) PipelineOption {
	return func(p *Pipeline) {
		p.bitrateKbps = kbps
	}
}

// WithPipelineLogger sets the logger used for per-step debug output
func WithPipelineLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a new Pipeline
func NewPipeline(decoder audio.Decoder, encoders audio.EncoderFactory, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		decoder:     decoder,
		encoders:    encoders,
		bitrateKbps: audio.DefaultBitrateKbps,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Process implements Processor
func (p *Pipeline) Process(ctx context.Context, data []byte, spec audio.TrimSpec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	buf, err := p.decoder.Decode(ctx, data)
	if err != nil {
		if errors.Is(err, audio.ErrDecodeFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", audio.ErrDecodeFailure, err)
	}

	offset := spec.StartOffset(buf.SampleRate)
	trimmed, err := audio.Trim(buf, offset)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("trimmed audio",
		zap.Int("sample_rate", buf.SampleRate),
		zap.Int("channels", buf.NumChannels()),
		zap.Int("start_offset", offset),
		zap.Int("samples", trimmed.Len()),
	)

	left := audio.ToPCM16(trimmed.Channel(0))
	var right []int16
	if trimmed.NumChannels() == 2 {
		right = audio.ToPCM16(trimmed.Channel(1))
	}

	enc, err := p.encoders.Open(ctx, audio.EncoderConfig{
		Channels:    trimmed.NumChannels(),
		SampleRate:  trimmed.SampleRate,
		BitrateKbps: p.bitrateKbps,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open encoder: %v", audio.ErrEncodeFailure, err)
	}

	seg, err := audio.EncodeBlocks(enc, left, right)
	if err != nil {
		if d, ok := enc.(audio.Discarder); ok {
			if derr := d.Discard(); derr != nil {
				p.logger.Warn("failed to discard encoder session", zap.Error(derr))
			}
		}
		return nil, err
	}

	return &Result{
		Output:         seg.Bytes(),
		SampleRate:     trimmed.SampleRate,
		Channels:       trimmed.NumChannels(),
		StartOffset:    offset,
		TrimmedSamples: trimmed.Len(),
	}, nil
}

// Ensure Pipeline implements Processor
var _ Processor = (*Pipeline)(nil)
