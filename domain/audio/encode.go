package audio

import (
	"bytes"
	"fmt"
)

// Segment is the ordered list of compressed chunks produced by one session
type Segment struct {
	chunks [][]byte
}

// Append adds a chunk; empty chunks are ignored
func (s *Segment) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.chunks = append(s.chunks, chunk)
}

// Chunks returns the recorded chunks in order
func (s *Segment) Chunks() [][]byte {
	return s.chunks
}

// Len returns the total number of bytes across all chunks
func (s *Segment) Len() int {
	n := 0
	for _, c := range s.chunks {
		n += len(c)
	}
	return n
}

// Bytes concatenates all chunks into the final output
func (s *Segment) Bytes() []byte {
	return bytes.Join(s.chunks, nil)
}

// EncodeBlocks feeds left (and right, for stereo) through enc in BlockSize
// blocks and then flushes it. Every block except the last is full. An encoder
// given zero samples is still flushed.
func EncodeBlocks(enc FrameEncoder, left, right []int16) (*Segment, error) {
	if right != nil && len(right) != len(left) {
		return nil, fmt.Errorf("%w: left has %d samples, right has %d", ErrEncodeFailure, len(left), len(right))
	}

	seg := &Segment{}
	for i := 0; i < len(left); i += BlockSize {
		end := min(i+BlockSize, len(left))

		var rightBlock []int16
		if right != nil {
			rightBlock = right[i:end]
		}

		out, err := enc.EncodeBlock(left[i:end], rightBlock)
		if err != nil {
			return nil, fmt.Errorf("%w: block at sample %d: %v", ErrEncodeFailure, i, err)
		}
		seg.Append(out)
	}

	out, err := enc.Flush()
	if err != nil {
		return nil, fmt.Errorf("%w: flush: %v", ErrEncodeFailure, err)
	}
	seg.Append(out)

	return seg, nil
}
