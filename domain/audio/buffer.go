package audio

import "fmt"

// MaxChannels is the largest channel count the encoder accepts (stereo)
const MaxChannels = 2

// Buffer holds decoded audio as one float sample slice per channel.
// Samples are nominally in [-1.0, 1.0]. A Buffer is not modified after
// construction; Trim returns a new one.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewBuffer validates the sample rate and channel layout and returns a Buffer
func NewBuffer(sampleRate int, channels [][]float32) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidBuffer, sampleRate)
	}
	if len(channels) < 1 || len(channels) > MaxChannels {
		return nil, fmt.Errorf("%w: expected 1 or 2 channels, got %d", ErrInvalidBuffer, len(channels))
	}
	length := len(channels[0])
	for i, ch := range channels[1:] {
		if len(ch) != length {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrInvalidBuffer, i+1, len(ch), length)
		}
	}
	return &Buffer{SampleRate: sampleRate, Channels: channels}, nil
}

// NumChannels returns the channel count
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Len returns the number of samples per channel
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Channel returns the samples of channel i, or nil when the channel does not exist
func (b *Buffer) Channel(i int) []float32 {
	if i < 0 || i >= len(b.Channels) {
		return nil
	}
	return b.Channels[i]
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Len()) / float64(b.SampleRate)
}
