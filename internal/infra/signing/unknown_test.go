package signing

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenByteChecksum = "17a22251b60af87cbbac74ca96e59f4dcde75b2c8735978b35d4d12620fe005c"

func tenBytes() []byte {
	b := make([]byte, 10)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func feedChunks(t *testing.T, sizes []int) (*UnknownReader, []byte, error) {
	t.Helper()
	digest := sha256.New()
	r := NewUnknownReader(digest, 10)

	payload := tenBytes()
	payload = append(payload, 0xff)
	offset := 0
	for _, n := range sizes {
		if err := r.Feed(payload[offset : offset+n]); err != nil {
			return r, digest.Sum(nil), err
		}
		offset += n
	}
	return r, digest.Sum(nil), nil
}

func TestUnknownReaderChunkBoundaryIndependence(t *testing.T) {
	whole, wholeDigest, err := feedChunks(t, []int{10})
	require.NoError(t, err)
	split, splitDigest, err := feedChunks(t, []int{3, 3, 4})
	require.NoError(t, err)

	assert.True(t, whole.Done())
	assert.True(t, split.Done())
	assert.Equal(t, tenByteChecksum, hex.EncodeToString(whole.Checksum()))
	assert.Equal(t, whole.Checksum(), split.Checksum())
	assert.Equal(t, wholeDigest, splitDigest)
	// 摘要流与校验和写入相同字节
	assert.Equal(t, whole.Checksum(), wholeDigest)
}

func TestUnknownReaderRemaining(t *testing.T) {
	r := NewUnknownReader(sha256.New(), 10)
	assert.Equal(t, uint32(10), r.Remaining())

	require.NoError(t, r.Feed([]byte{0, 1, 2}))
	assert.Equal(t, uint32(7), r.Remaining())
	assert.False(t, r.Done())

	require.NoError(t, r.Feed(nil))
	assert.Equal(t, uint32(7), r.Remaining())
}

func TestUnknownReaderOverflow(t *testing.T) {
	r, _, err := feedChunks(t, []int{3, 3, 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOverflow)
	assert.False(t, r.Done())
	assert.Equal(t, uint64(11), r.Received())
}

func TestUnknownReaderOverflowIsNotHashed(t *testing.T) {
	digest := sha256.New()
	r := NewUnknownReader(digest, 2)
	before := digest.Sum(nil)

	err := r.Feed([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrUnknownOverflow)
	assert.Equal(t, before, digest.Sum(nil))
}

func TestUnknownReaderZeroSize(t *testing.T) {
	r := NewUnknownReader(sha256.New(), 0)
	require.NoError(t, r.Feed(nil))
	assert.True(t, r.Done())

	want := sha256.Sum256([]byte{0})
	assert.Equal(t, want[:], r.Checksum())
}
