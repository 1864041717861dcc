package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"audio-trimmer/domain/audio"
)

var (
	// ErrSessionFlushed is returned when a session is used after Flush
	ErrSessionFlushed = errors.New("encoder session already flushed")

	// ErrSessionDiscarded is returned when a session is used after Discard
	ErrSessionDiscarded = errors.New("encoder session discarded")
)

const defaultReadBufferSize = 32 * 1024

// Encoder implements audio.EncoderFactory by opening one ffmpeg/libmp3lame
// process per session
type Encoder struct {
	ffmpegPath     string
	runner         CommandRunner
	readBufferSize int
}

// EncoderOption is a functional option for configuring Encoder
type EncoderOption func(*Encoder)

// WithEncoderFFmpegPath sets a custom ffmpeg executable path
func WithEncoderFFmpegPath(path string) EncoderOption {
	return func(e *Encoder) {
		if path != "" {
			e.ffmpegPath = path
		}
	}
}

// WithEncoderCommandRunner sets a custom command runner (for testing)
func WithEncoderCommandRunner(runner CommandRunner) EncoderOption {
	return func(e *Encoder) {
		e.runner = runner
	}
}

// NewEncoder creates a new FFmpeg-based MP3 encoder factory
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{
		ffmpegPath:     "ffmpeg",
		runner:         &ExecCommandRunner{},
		readBufferSize: defaultReadBufferSize,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Open implements audio.EncoderFactory
func (e *Encoder) Open(ctx context.Context, cfg audio.EncoderConfig) (audio.FrameEncoder, error) {
	if cfg.Channels < 1 || cfg.Channels > audio.MaxChannels {
		return nil, fmt.Errorf("unsupported channel count %d", cfg.Channels)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("unsupported sample rate %d", cfg.SampleRate)
	}
	if cfg.BitrateKbps <= 0 {
		cfg.BitrateKbps = audio.DefaultBitrateKbps
	}

	proc, err := e.runner.Start(ctx, e.ffmpegPath, e.buildArgs(cfg)...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		proc:     proc,
		readDone: make(chan error, 1),
	}
	go s.readOutput(e.readBufferSize)
	return s, nil
}

// buildArgs constructs the ffmpeg arguments for a streaming encode session
func (e *Encoder) buildArgs(cfg audio.EncoderConfig) []string {
	args := globalArgs()
	args = append(args, PCM16Input(cfg.SampleRate, cfg.Channels).BuildArgs(true)...)
	args = append(args, "-i", pipeIn, "-map_metadata", "-1")
	args = append(args, MP3Output(cfg.BitrateKbps).BuildArgs(false)...)
	args = append(args, pipeOut)
	return args
}

// VerifyInstalled checks that ffmpeg is available
func (e *Encoder) VerifyInstalled(ctx context.Context) error {
	return verifyInstalled(ctx, e.runner, e.ffmpegPath)
}

// Session is one streaming encode: PCM blocks go to ffmpeg's stdin and the
// compressed frames it has produced so far are handed back on every call
type Session struct {
	cfg  audio.EncoderConfig
	proc Process

	buffer     bytes.Buffer
	bufferLock sync.Mutex

	readDone  chan error
	flushed   bool
	discarded bool
}

// EncodeBlock implements audio.FrameEncoder
func (s *Session) EncodeBlock(left, right []int16) ([]byte, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	if len(left) > audio.BlockSize {
		return nil, fmt.Errorf("block has %d samples, maximum is %d", len(left), audio.BlockSize)
	}
	if s.cfg.Channels == 2 {
		if len(right) != len(left) {
			return nil, fmt.Errorf("stereo block needs equal channels: left %d, right %d", len(left), len(right))
		}
	} else if right != nil {
		return nil, fmt.Errorf("mono session given a right channel")
	}

	if _, err := s.proc.Stdin().Write(interleavePCM16(left, right)); err != nil {
		return nil, fmt.Errorf("failed to write samples to encoder: %w", err)
	}

	return s.drain(), nil
}

// Flush implements audio.FrameEncoder. It closes the input, waits for the
// encoder to finish and returns every byte not yet handed out.
func (s *Session) Flush() ([]byte, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	s.flushed = true

	if err := s.proc.Stdin().Close(); err != nil {
		_ = s.stop()
		return nil, fmt.Errorf("failed to close encoder input: %w", err)
	}

	readErr := <-s.readDone

	if err := s.proc.Wait(); err != nil {
		return nil, fmt.Errorf("encoder process failed: %w", err)
	}
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return nil, fmt.Errorf("error reading encoder output: %w", readErr)
	}

	return s.drain(), nil
}

// Discard implements audio.Discarder. It stops the process without
// producing output; it is a no-op after Flush.
func (s *Session) Discard() error {
	if s.flushed || s.discarded {
		return nil
	}
	s.discarded = true

	_ = s.proc.Stdin().Close()
	if err := s.stop(); err != nil {
		return fmt.Errorf("failed to stop encoder: %w", err)
	}
	return nil
}

// stop kills the process and reaps it even when Kill fails
func (s *Session) stop() error {
	killErr := s.proc.Kill()
	<-s.readDone
	_ = s.proc.Wait()
	return killErr
}

func (s *Session) usable() error {
	if s.discarded {
		return ErrSessionDiscarded
	}
	if s.flushed {
		return ErrSessionFlushed
	}
	return nil
}

// drain takes every buffered output byte
func (s *Session) drain() []byte {
	s.bufferLock.Lock()
	defer s.bufferLock.Unlock()

	if s.buffer.Len() == 0 {
		return nil
	}
	out := make([]byte, s.buffer.Len())
	copy(out, s.buffer.Bytes())
	s.buffer.Reset()
	return out
}

// readOutput continuously reads from stdout and buffers it
func (s *Session) readOutput(size int) {
	buf := make([]byte, size)
	for {
		n, err := s.proc.Stdout().Read(buf)
		if n > 0 {
			s.bufferLock.Lock()
			s.buffer.Write(buf[:n])
			s.bufferLock.Unlock()
		}
		if err != nil {
			s.readDone <- err
			return
		}
	}
}

// interleavePCM16 packs one block as little-endian L,R,L,R... (or L,L,... for mono)
func interleavePCM16(left, right []int16) []byte {
	channels := 1
	if right != nil {
		channels = 2
	}
	out := make([]byte, 2*channels*len(left))
	for i, l := range left {
		base := 2 * channels * i
		binary.LittleEndian.PutUint16(out[base:], uint16(l))
		if right != nil {
			binary.LittleEndian.PutUint16(out[base+2:], uint16(right[i]))
		}
	}
	return out
}

// Ensure Encoder implements audio.EncoderFactory and Session implements audio.FrameEncoder
var (
	_ audio.EncoderFactory = (*Encoder)(nil)
	_ audio.FrameEncoder   = (*Session)(nil)
	_ audio.Discarder      = (*Session)(nil)
)
