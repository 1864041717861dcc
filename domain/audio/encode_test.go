package audio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEncoder records block sizes and emits one marker chunk per block
type recordingEncoder struct {
	blocks     [][2]int
	flushes    int
	failAt     int
	flushErr   error
	silentEach bool
}

func (e *recordingEncoder) EncodeBlock(left, right []int16) ([]byte, error) {
	if e.failAt > 0 && len(e.blocks)+1 == e.failAt {
		return nil, errors.New("encoder rejected block")
	}
	e.blocks = append(e.blocks, [2]int{len(left), len(right)})
	if e.silentEach {
		return nil, nil
	}
	return []byte(fmt.Sprintf("[%d]", len(left))), nil
}

func (e *recordingEncoder) Flush() ([]byte, error) {
	e.flushes++
	if e.flushErr != nil {
		return nil, e.flushErr
	}
	return []byte("<end>"), nil
}

func TestEncodeBlocks_BlockLaw(t *testing.T) {
	for _, n := range []int{1, 1151, 1152, 1153, 2304, 220500} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			enc := &recordingEncoder{}
			left := make([]int16, n)

			_, err := EncodeBlocks(enc, left, nil)
			require.NoError(t, err)

			wantBlocks := (n + BlockSize - 1) / BlockSize
			require.Len(t, enc.blocks, wantBlocks)
			total := 0
			for i, b := range enc.blocks {
				if i < len(enc.blocks)-1 {
					assert.Equal(t, BlockSize, b[0], "block %d", i)
				} else {
					assert.GreaterOrEqual(t, b[0], 1)
					assert.LessOrEqual(t, b[0], BlockSize)
				}
				assert.Zero(t, b[1], "mono blocks carry no right channel")
				total += b[0]
			}
			assert.Equal(t, n, total)
			assert.Equal(t, 1, enc.flushes)
		})
	}
}

func TestEncodeBlocks_Stereo(t *testing.T) {
	enc := &recordingEncoder{}
	left := make([]int16, 3000)
	right := make([]int16, 3000)

	seg, err := EncodeBlocks(enc, left, right)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1152, 1152}, {1152, 1152}, {696, 696}}, enc.blocks)
	assert.Equal(t, "[1152][1152][696]<end>", string(seg.Bytes()))
	assert.Len(t, seg.Chunks(), 4)
	assert.Equal(t, len(seg.Bytes()), seg.Len())
}

func TestEncodeBlocks_EmptyInputStillFlushes(t *testing.T) {
	enc := &recordingEncoder{}

	seg, err := EncodeBlocks(enc, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, enc.blocks)
	assert.Equal(t, 1, enc.flushes)
	assert.Equal(t, "<end>", string(seg.Bytes()))
}

func TestEncodeBlocks_EmptyChunksSkipped(t *testing.T) {
	enc := &recordingEncoder{silentEach: true}

	seg, err := EncodeBlocks(enc, make([]int16, 2500), nil)
	require.NoError(t, err)

	assert.Len(t, seg.Chunks(), 1)
	assert.Equal(t, "<end>", string(seg.Bytes()))
}

func TestEncodeBlocks_Errors(t *testing.T) {
	t.Run("mismatched channels", func(t *testing.T) {
		_, err := EncodeBlocks(&recordingEncoder{}, make([]int16, 10), make([]int16, 9))
		assert.ErrorIs(t, err, ErrEncodeFailure)
	})

	t.Run("block rejected", func(t *testing.T) {
		enc := &recordingEncoder{failAt: 2}
		_, err := EncodeBlocks(enc, make([]int16, 3000), nil)
		require.ErrorIs(t, err, ErrEncodeFailure)
		assert.Contains(t, err.Error(), "block at sample 1152")
		assert.Zero(t, enc.flushes)
	})

	t.Run("flush fails", func(t *testing.T) {
		enc := &recordingEncoder{flushErr: errors.New("disk full")}
		_, err := EncodeBlocks(enc, make([]int16, 10), nil)
		require.ErrorIs(t, err, ErrEncodeFailure)
		assert.Contains(t, err.Error(), "flush: disk full")
	})
}
