package audio

import "context"

const (
	// BlockSize is the number of samples per channel fed to the encoder per call.
	// It matches the MPEG-1 Layer III frame granularity.
	BlockSize = 1152

	// DefaultBitrateKbps is the output bitrate used for every encoded file
	DefaultBitrateKbps = 128

	// MimeTypeMP3 is the only accepted input and produced output content type
	MimeTypeMP3 = "audio/mpeg"

	// Extension is the file extension of inputs and outputs
	Extension = ".mp3"
)

// Decoder converts compressed audio bytes into a sample buffer
// This is a port that can be implemented by different infrastructure adapters
type Decoder interface {
	// Decode returns the decoded samples or an error wrapping ErrDecodeFailure
	Decode(ctx context.Context, data []byte) (*Buffer, error)
}

// FrameEncoder is a stateful compression session owned by a single file.
// EncodeBlock may buffer internally and return no bytes; Flush must be called
// exactly once after the last block to emit the remaining frames.
type FrameEncoder interface {
	// EncodeBlock encodes up to BlockSize samples per channel. right is nil for mono.
	EncodeBlock(left, right []int16) ([]byte, error)

	// Flush finalizes the session and returns any remaining compressed bytes
	Flush() ([]byte, error)
}

// EncoderConfig binds an encoder session to a stream layout
type EncoderConfig struct {
	Channels    int
	SampleRate  int
	BitrateKbps int
}

// EncoderFactory opens new encoder sessions
type EncoderFactory interface {
	Open(ctx context.Context, cfg EncoderConfig) (FrameEncoder, error)
}

// Discarder is implemented by encoders that hold resources which must be
// released when a session is abandoned before Flush
type Discarder interface {
	Discard() error
}
