package audio

import "errors"

var (
	// ErrInvalidConfiguration is returned when the trim duration is not positive
	ErrInvalidConfiguration = errors.New("trim duration must be greater than zero")

	// ErrDecodeFailure is returned when input bytes cannot be decoded to samples
	ErrDecodeFailure = errors.New("failed to decode audio")

	// ErrTrimRangeExceeded is returned when the start offset is at or past the end of the audio
	ErrTrimRangeExceeded = errors.New("trim duration exceeds audio length")

	// ErrEncodeFailure is returned when the encoder rejects samples or fails to flush
	ErrEncodeFailure = errors.New("failed to encode audio")

	// ErrInvalidBuffer is returned when a decoded buffer has an unsupported shape
	ErrInvalidBuffer = errors.New("invalid audio buffer")
)
