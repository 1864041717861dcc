package audio

import "math"

// pcm16Scale and pcm16Offset map [-1, 1] onto [-32768, 32767]
const (
	pcm16Scale  = 32767.5
	pcm16Offset = 0.5
)

// ToPCM16 converts normalized float samples to signed 16-bit samples.
//
// Each sample becomes x*32767.5 - 0.5, truncated toward zero and wrapped
// into int16 the way a typed-array store does (NaN and infinities become 0).
// No clamping is applied. Output bytes downstream depend on this exact
// formula, so do not swap it for round-to-nearest.
func ToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = toInt16(float64(s)*pcm16Scale - pcm16Offset)
	}
	return out
}

// toInt16 applies truncate-then-wrap conversion of a float64 into int16
func toInt16(v float64) int16 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = math.Trunc(v)
	if v >= math.MinInt16 && v <= math.MaxInt16 {
		return int16(v)
	}
	// Values outside the int16 range wrap modulo 2^16
	m := math.Mod(v, 65536)
	if m < 0 {
		m += 65536
	}
	return int16(uint16(m))
}
