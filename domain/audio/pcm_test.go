package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPCM16(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want int16
	}{
		{name: "full scale positive", in: 1.0, want: 32767},
		{name: "full scale negative", in: -1.0, want: -32768},
		{name: "zero truncates toward zero", in: 0, want: 0},
		{name: "half positive", in: 0.5, want: 16383},
		{name: "half negative", in: -0.5, want: -16384},
		{name: "tiny negative", in: -0.00001, want: 0},
		{name: "over range wraps", in: 1.5, want: -16386},
		{name: "under range wraps", in: -1.5, want: 16385},
		{name: "double range wraps", in: 2.0, want: -2},
		{name: "NaN becomes zero", in: float32(math.NaN()), want: 0},
		{name: "positive infinity becomes zero", in: float32(math.Inf(1)), want: 0},
		{name: "negative infinity becomes zero", in: float32(math.Inf(-1)), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPCM16([]float32{tt.in})
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestToPCM16_LengthAndDeterminism(t *testing.T) {
	samples := make([]float32, 5000)
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) / 10))
	}

	first := ToPCM16(samples)
	second := ToPCM16(samples)

	assert.Len(t, first, len(samples))
	assert.Equal(t, first, second)
	for i, v := range first {
		assert.GreaterOrEqual(t, v, int16(math.MinInt16), "sample %d", i)
		assert.LessOrEqual(t, v, int16(math.MaxInt16), "sample %d", i)
	}
}

func TestToPCM16_Empty(t *testing.T) {
	assert.Empty(t, ToPCM16(nil))
}
