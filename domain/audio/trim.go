package audio

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// TrimSpec describes how much audio to remove from the start of every file
type TrimSpec struct {
	Seconds float64
}

// clockRegex matches HH:MM:SS with optional fractional seconds
var clockRegex = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(\.\d+)?$`)

// ParseTrimSpec parses a trim duration given either as plain seconds ("5", "2.5")
// or as a clock value in HH:MM:SS[.fff] format
func ParseTrimSpec(s string) (TrimSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TrimSpec{}, fmt.Errorf("invalid trim duration: value is empty")
	}

	if matches := clockRegex.FindStringSubmatch(s); matches != nil {
		hours, _ := strconv.Atoi(matches[1])
		minutes, _ := strconv.Atoi(matches[2])
		seconds, _ := strconv.Atoi(matches[3])
		if minutes > 59 {
			return TrimSpec{}, fmt.Errorf("invalid trim duration %q: minutes must be 0-59", s)
		}
		if seconds > 59 {
			return TrimSpec{}, fmt.Errorf("invalid trim duration %q: seconds must be 0-59", s)
		}
		var frac float64
		if matches[4] != "" {
			frac, _ = strconv.ParseFloat("0"+matches[4], 64)
		}
		return TrimSpec{Seconds: float64(hours*3600+minutes*60+seconds) + frac}, nil
	}

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return TrimSpec{}, fmt.Errorf("invalid trim duration %q: expected seconds or HH:MM:SS", s)
	}
	return TrimSpec{Seconds: secs}, nil
}

// Validate checks that the trim duration is positive
func (t TrimSpec) Validate() error {
	if !(t.Seconds > 0) || math.IsInf(t.Seconds, 0) {
		return fmt.Errorf("%w (got %v)", ErrInvalidConfiguration, t.Seconds)
	}
	return nil
}

// StartOffset returns the first sample index kept after trimming: floor(seconds * sampleRate).
// Offsets beyond the int range saturate at math.MaxInt, which is past the end of any buffer.
func (t TrimSpec) StartOffset(sampleRate int) int {
	offset := math.Floor(t.Seconds * float64(sampleRate))
	if offset >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(offset)
}

// String returns the duration in seconds
func (t TrimSpec) String() string {
	return strconv.FormatFloat(t.Seconds, 'f', -1, 64) + "s"
}

// Trim returns a new buffer holding the samples from startOffset to the end.
// An offset at or past the end of the buffer is an error rather than an empty result.
func Trim(buf *Buffer, startOffset int) (*Buffer, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: buffer is nil", ErrInvalidBuffer)
	}
	if startOffset < 0 {
		return nil, fmt.Errorf("start offset must not be negative, got %d", startOffset)
	}
	length := buf.Len()
	if startOffset >= length {
		return nil, fmt.Errorf("%w: start offset %d, length %d samples", ErrTrimRangeExceeded, startOffset, length)
	}

	channels := make([][]float32, buf.NumChannels())
	for i, ch := range buf.Channels {
		trimmed := make([]float32, length-startOffset)
		copy(trimmed, ch[startOffset:])
		channels[i] = trimmed
	}

	return &Buffer{SampleRate: buf.SampleRate, Channels: channels}, nil
}
