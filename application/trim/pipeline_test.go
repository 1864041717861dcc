package trim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"audio-trimmer/domain/audio"
)

// stubDecoder returns a fixed buffer or error
type stubDecoder struct {
	buf *audio.Buffer
	err error
}

func (d *stubDecoder) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.buf, nil
}

// stubEncoders hands out one stubEncoder per Open call
type stubEncoders struct {
	openErr  error
	blockErr error
	opened   []audio.EncoderConfig
	encoders []*stubEncoder
}

func (f *stubEncoders) Open(ctx context.Context, cfg audio.EncoderConfig) (audio.FrameEncoder, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, cfg)
	e := &stubEncoder{blockErr: f.blockErr}
	f.encoders = append(f.encoders, e)
	return e, nil
}

type stubEncoder struct {
	blockErr  error
	left      []int16
	right     []int16
	blocks    int
	flushed   bool
	discarded bool
}

func (e *stubEncoder) EncodeBlock(left, right []int16) ([]byte, error) {
	if e.blockErr != nil {
		return nil, e.blockErr
	}
	e.blocks++
	e.left = append(e.left, left...)
	e.right = append(e.right, right...)
	return []byte{byte(len(left) % 251)}, nil
}

func (e *stubEncoder) Flush() ([]byte, error) {
	e.flushed = true
	return []byte("EOF"), nil
}

func (e *stubEncoder) Discard() error {
	e.discarded = true
	return nil
}

func constantBuffer(t *testing.T, sampleRate, channels, n int, value float32) *audio.Buffer {
	t.Helper()
	chans := make([][]float32, channels)
	for c := range chans {
		chans[c] = make([]float32, n)
		for i := range chans[c] {
			chans[c][i] = value
		}
	}
	buf, err := audio.NewBuffer(sampleRate, chans)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	return buf
}

func TestPipeline_Process_Stereo(t *testing.T) {
	buf := constantBuffer(t, 44100, 2, 441000, 0.5)
	encoders := &stubEncoders{}
	p := NewPipeline(&stubDecoder{buf: buf}, encoders)

	result, err := p.Process(context.Background(), []byte("mp3"), audio.TrimSpec{Seconds: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.StartOffset != 220500 {
		t.Errorf("expected start offset 220500, got %d", result.StartOffset)
	}
	if result.TrimmedSamples != 220500 {
		t.Errorf("expected 220500 trimmed samples, got %d", result.TrimmedSamples)
	}
	if result.Channels != 2 || result.SampleRate != 44100 {
		t.Errorf("unexpected layout %d ch @ %d Hz", result.Channels, result.SampleRate)
	}

	want := audio.EncoderConfig{Channels: 2, SampleRate: 44100, BitrateKbps: audio.DefaultBitrateKbps}
	if len(encoders.opened) != 1 || encoders.opened[0] != want {
		t.Fatalf("expected encoder opened with %+v, got %+v", want, encoders.opened)
	}

	enc := encoders.encoders[0]
	if len(enc.left) != 220500 || len(enc.right) != 220500 {
		t.Errorf("expected 220500 samples per channel, got %d/%d", len(enc.left), len(enc.right))
	}
	if enc.left[0] != 16383 {
		t.Errorf("expected converted sample 16383, got %d", enc.left[0])
	}
	if enc.blocks != 192 {
		t.Errorf("expected 192 blocks, got %d", enc.blocks)
	}
	if !enc.flushed {
		t.Error("expected encoder to be flushed")
	}
	if !strings.HasSuffix(string(result.Output), "EOF") {
		t.Errorf("expected output to end with flush bytes, got %q", result.Output)
	}
}

func TestPipeline_Process_Mono(t *testing.T) {
	buf := constantBuffer(t, 8000, 1, 48000, -1)
	encoders := &stubEncoders{}
	p := NewPipeline(&stubDecoder{buf: buf}, encoders)

	if _, err := p.Process(context.Background(), nil, audio.TrimSpec{Seconds: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	enc := encoders.encoders[0]
	if enc.right != nil {
		t.Errorf("expected no right channel for mono, got %d samples", len(enc.right))
	}
	if len(enc.left) != 8000 {
		t.Errorf("expected 8000 samples, got %d", len(enc.left))
	}
	if encoders.opened[0].Channels != 1 {
		t.Errorf("expected mono encoder, got %d channels", encoders.opened[0].Channels)
	}
}

func TestPipeline_Process_Errors(t *testing.T) {
	short := constantBuffer(t, 8000, 1, 16000, 0)
	long := constantBuffer(t, 8000, 1, 80000, 0)

	tests := []struct {
		name        string
		decoder     *stubDecoder
		encoders    *stubEncoders
		spec        audio.TrimSpec
		wantErr     error
		wantDiscard bool
	}{
		{
			name:     "invalid trim duration",
			decoder:  &stubDecoder{buf: long},
			encoders: &stubEncoders{},
			spec:     audio.TrimSpec{Seconds: 0},
			wantErr:  audio.ErrInvalidConfiguration,
		},
		{
			name:     "decoder error without kind",
			decoder:  &stubDecoder{err: errors.New("bad header")},
			encoders: &stubEncoders{},
			spec:     audio.TrimSpec{Seconds: 5},
			wantErr:  audio.ErrDecodeFailure,
		},
		{
			name:     "decoder error with kind",
			decoder:  &stubDecoder{err: fmt.Errorf("%w: truncated", audio.ErrDecodeFailure)},
			encoders: &stubEncoders{},
			spec:     audio.TrimSpec{Seconds: 5},
			wantErr:  audio.ErrDecodeFailure,
		},
		{
			name:     "audio shorter than trim",
			decoder:  &stubDecoder{buf: short},
			encoders: &stubEncoders{},
			spec:     audio.TrimSpec{Seconds: 5},
			wantErr:  audio.ErrTrimRangeExceeded,
		},
		{
			name:     "trim duration beyond the int range",
			decoder:  &stubDecoder{buf: long},
			encoders: &stubEncoders{},
			spec:     audio.TrimSpec{Seconds: 1e300},
			wantErr:  audio.ErrTrimRangeExceeded,
		},
		{
			name:     "encoder cannot open",
			decoder:  &stubDecoder{buf: long},
			encoders: &stubEncoders{openErr: errors.New("no lame")},
			spec:     audio.TrimSpec{Seconds: 5},
			wantErr:  audio.ErrEncodeFailure,
		},
		{
			name:        "encoder rejects block",
			decoder:     &stubDecoder{buf: long},
			encoders:    &stubEncoders{blockErr: errors.New("pipe closed")},
			spec:        audio.TrimSpec{Seconds: 5},
			wantErr:     audio.ErrEncodeFailure,
			wantDiscard: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(tt.decoder, tt.encoders)
			_, err := p.Process(context.Background(), nil, tt.spec)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantDiscard {
				if len(tt.encoders.encoders) != 1 || !tt.encoders.encoders[0].discarded {
					t.Error("expected encoder session to be discarded")
				}
			}
		})
	}
}

func TestPipeline_WithBitrate(t *testing.T) {
	encoders := &stubEncoders{}
	p := NewPipeline(&stubDecoder{buf: constantBuffer(t, 8000, 1, 80000, 0)}, encoders, WithBitrate(128))

	if _, err := p.Process(context.Background(), nil, audio.TrimSpec{Seconds: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encoders.opened[0].BitrateKbps != 128 {
		t.Errorf("expected 128 kbps, got %d", encoders.opened[0].BitrateKbps)
	}
}
