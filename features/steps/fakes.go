//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"audio-trimmer/domain/audio"
	"audio-trimmer/domain/batch"
)

// syntheticSample is the value of sample i in every synthetic channel
func syntheticSample(i int) float32 {
	return float32(i%2000)/1000 - 1
}

// syntheticData describes a generated recording as "synthetic:<rate>:<channels>:<seconds>"
func syntheticData(sampleRate, channels int, seconds float64) []byte {
	return []byte(fmt.Sprintf("synthetic:%d:%d:%s", sampleRate, channels, strconv.FormatFloat(seconds, 'f', -1, 64)))
}

// syntheticDecoder generates buffers from syntheticData descriptions
type syntheticDecoder struct {
	mu        sync.Mutex
	failOnce  map[string]bool
	decodeLog []string
}

func newSyntheticDecoder() *syntheticDecoder {
	return &syntheticDecoder{failOnce: make(map[string]bool)}
}

func (d *syntheticDecoder) Decode(ctx context.Context, data []byte) (*audio.Buffer, error) {
	desc := string(data)

	d.mu.Lock()
	d.decodeLog = append(d.decodeLog, desc)
	if d.failOnce[desc] {
		delete(d.failOnce, desc)
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: transient read error", audio.ErrDecodeFailure)
	}
	d.mu.Unlock()

	parts := strings.Split(desc, ":")
	if len(parts) != 4 || parts[0] != "synthetic" {
		return nil, fmt.Errorf("%w: not an mp3 stream", audio.ErrDecodeFailure)
	}
	rate, err1 := strconv.Atoi(parts[1])
	channels, err2 := strconv.Atoi(parts[2])
	seconds, err3 := strconv.ParseFloat(parts[3], 64)
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, fmt.Errorf("%w: %v", audio.ErrDecodeFailure, err)
	}

	n := int(float64(rate) * seconds)
	chans := make([][]float32, channels)
	for c := range chans {
		chans[c] = make([]float32, n)
		for i := range n {
			chans[c][i] = syntheticSample(i)
		}
	}
	return audio.NewBuffer(rate, chans)
}

// encodeSession records what one file's encoder received
type encodeSession struct {
	config    audio.EncoderConfig
	blocks    []int
	firstLeft *int16
	flushed   bool
}

// recordingEncoders opens encoders that emit a readable frame per block
type recordingEncoders struct {
	mu       sync.Mutex
	sessions []*encodeSession
}

func (r *recordingEncoders) Open(ctx context.Context, cfg audio.EncoderConfig) (audio.FrameEncoder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &encodeSession{config: cfg}
	r.sessions = append(r.sessions, s)
	return &recordingEncoder{owner: r, session: s}, nil
}

func (r *recordingEncoders) all() []*encodeSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*encodeSession(nil), r.sessions...)
}

type recordingEncoder struct {
	owner   *recordingEncoders
	session *encodeSession
}

func (e *recordingEncoder) EncodeBlock(left, right []int16) ([]byte, error) {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()

	if e.session.firstLeft == nil && len(left) > 0 {
		v := left[0]
		e.session.firstLeft = &v
	}
	e.session.blocks = append(e.session.blocks, len(left))

	var sum int64
	for _, v := range left {
		sum += int64(v)
	}
	for _, v := range right {
		sum += int64(v)
	}
	return []byte(fmt.Sprintf("F%d:%d|", len(left), sum)), nil
}

func (e *recordingEncoder) Flush() ([]byte, error) {
	e.owner.mu.Lock()
	defer e.owner.mu.Unlock()
	e.session.flushed = true
	return []byte("END"), nil
}

// memoryScanner returns prepared inputs in the order the paths name them
type memoryScanner struct {
	files map[string]batch.Input
}

func (s *memoryScanner) Scan(paths []string) ([]batch.Input, error) {
	inputs := make([]batch.Input, 0, len(paths))
	for _, p := range paths {
		in, ok := s.files[p]
		if !ok {
			return nil, fmt.Errorf("source file does not exist: %s", p)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// memoryExporter keeps exported buffers by name
type memoryExporter struct {
	mu    sync.Mutex
	files map[string][]byte
	order []string
}

func newMemoryExporter() *memoryExporter {
	return &memoryExporter{files: make(map[string][]byte)}
}

func (e *memoryExporter) Export(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.files[name]; !ok {
		e.order = append(e.order, name)
	}
	e.files[name] = append([]byte(nil), data...)
	return "memory://" + name, nil
}

func (e *memoryExporter) get(name string) ([]byte, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, ok := e.files[name]
	return data, ok
}
