package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampBuffer(t *testing.T, sampleRate, channels, n int) *Buffer {
	t.Helper()
	chans := make([][]float32, channels)
	for c := range chans {
		chans[c] = make([]float32, n)
		for i := range n {
			chans[c][i] = float32(i+c*n) / float32(2*n)
		}
	}
	buf, err := NewBuffer(sampleRate, chans)
	require.NoError(t, err)
	return buf
}

func TestParseTrimSpec(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr string
	}{
		{name: "whole seconds", input: "5", want: 5},
		{name: "fractional seconds", input: "2.5", want: 2.5},
		{name: "surrounding whitespace", input: "  7 ", want: 7},
		{name: "clock format", input: "00:01:30", want: 90},
		{name: "clock with fraction", input: "01:00:00.25", want: 3600.25},
		{name: "negative parses", input: "-1", want: -1},
		{name: "empty", input: "", wantErr: "value is empty"},
		{name: "words", input: "five", wantErr: "expected seconds or HH:MM:SS"},
		{name: "infinity", input: "Inf", wantErr: "expected seconds or HH:MM:SS"},
		{name: "minutes too high", input: "00:60:00", wantErr: "minutes must be 0-59"},
		{name: "seconds too high", input: "00:00:60", wantErr: "seconds must be 0-59"},
		{name: "short clock", input: "1:30", wantErr: "expected seconds or HH:MM:SS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseTrimSpec(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Seconds)
		})
	}
}

func TestTrimSpec_Validate(t *testing.T) {
	assert.NoError(t, TrimSpec{Seconds: 0.001}.Validate())
	assert.NoError(t, TrimSpec{Seconds: 5}.Validate())

	for _, s := range []float64{0, -1} {
		err := TrimSpec{Seconds: s}.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfiguration, "seconds=%v", s)
	}
}

func TestTrimSpec_StartOffset(t *testing.T) {
	assert.Equal(t, 220500, TrimSpec{Seconds: 5}.StartOffset(44100))
	assert.Equal(t, 40000, TrimSpec{Seconds: 5}.StartOffset(8000))
	assert.Equal(t, 11025, TrimSpec{Seconds: 0.25}.StartOffset(44100))
	// floor, not round
	assert.Equal(t, 0, TrimSpec{Seconds: 0.00001}.StartOffset(44100))
}

func TestTrimSpec_HugeDurationExceedsRange(t *testing.T) {
	spec, err := ParseTrimSpec("1e300")
	require.NoError(t, err)
	require.NoError(t, spec.Validate())

	offset := spec.StartOffset(44100)
	assert.Equal(t, math.MaxInt, offset)

	_, err = Trim(rampBuffer(t, 44100, 2, 44100), offset)
	assert.ErrorIs(t, err, ErrTrimRangeExceeded)
}

func TestTrim(t *testing.T) {
	buf := rampBuffer(t, 100, 2, 10)

	out, err := Trim(buf, 3)
	require.NoError(t, err)

	assert.Equal(t, 100, out.SampleRate)
	assert.Equal(t, 2, out.NumChannels())
	assert.Equal(t, 7, out.Len())
	for c := range 2 {
		assert.Equal(t, buf.Channel(c)[3:], out.Channel(c))
	}

	// The result does not alias the source
	out.Channels[0][0] = 99
	assert.NotEqual(t, float32(99), buf.Channels[0][3])
}

func TestTrim_LengthLaw(t *testing.T) {
	for _, n := range []int{1, 2, 1151, 1152, 1153, 5000} {
		buf := rampBuffer(t, 8000, 1, n)
		for _, offset := range []int{0, 1, n / 2, n - 1} {
			out, err := Trim(buf, offset)
			require.NoError(t, err, "n=%d offset=%d", n, offset)
			assert.Equal(t, n-offset, out.Len(), "n=%d offset=%d", n, offset)
		}
	}
}

func TestTrim_OffsetAtOrPastEnd(t *testing.T) {
	buf := rampBuffer(t, 8000, 1, 16000)

	_, err := Trim(buf, 16000)
	assert.ErrorIs(t, err, ErrTrimRangeExceeded)

	_, err = Trim(buf, TrimSpec{Seconds: 5}.StartOffset(8000))
	assert.ErrorIs(t, err, ErrTrimRangeExceeded)
	assert.Contains(t, err.Error(), "start offset 40000, length 16000 samples")
}

func TestTrim_InvalidInput(t *testing.T) {
	_, err := Trim(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidBuffer)

	_, err = Trim(rampBuffer(t, 8000, 1, 10), -1)
	assert.Error(t, err)
}

func TestNewBuffer(t *testing.T) {
	_, err := NewBuffer(0, [][]float32{{0}})
	assert.ErrorIs(t, err, ErrInvalidBuffer)

	_, err = NewBuffer(8000, nil)
	assert.ErrorIs(t, err, ErrInvalidBuffer)

	_, err = NewBuffer(8000, [][]float32{{0}, {0}, {0}})
	assert.ErrorIs(t, err, ErrInvalidBuffer)

	_, err = NewBuffer(8000, [][]float32{{0, 1}, {0}})
	assert.ErrorIs(t, err, ErrInvalidBuffer)

	buf, err := NewBuffer(8000, [][]float32{make([]float32, 4000)})
	require.NoError(t, err)
	assert.Equal(t, 0.5, buf.Duration())
	assert.Nil(t, buf.Channel(1))
}
