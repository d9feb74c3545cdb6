package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	box, err := newSealer("secret")
	require.NoError(t, err)

	sealed, err := box.seal([]byte("plain words"), []byte("d"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "plain words")

	again, err := box.seal([]byte("plain words"), []byte("d"))
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per record")

	plaintext, err := box.open(sealed, []byte("d"))
	require.NoError(t, err)
	assert.Equal(t, "plain words", string(plaintext))
}

func TestSealerRejectsTampering(t *testing.T) {
	box, err := newSealer("secret")
	require.NoError(t, err)

	sealed, err := box.seal([]byte("plain words"), []byte("d"))
	require.NoError(t, err)

	flipped := append([]byte(nil), sealed...)
	flipped[len(flipped)-1] ^= 0x01
	_, err = box.open(flipped, []byte("d"))
	assert.Error(t, err)

	_, err = box.open(sealed, []byte("other"))
	assert.Error(t, err)

	_, err = box.open(sealed[:4], []byte("d"))
	assert.ErrorContains(t, err, "too short")

	_, err = newSealer("")
	assert.Error(t, err)
}

func TestFileSystemStoreBindsRecordToDevice(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileSystemStore(dir, "secret")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.SaveDevice(ctx, "a", &DeviceState{Initialized: true, Mnemonic: "plain words"}))

	raw, err := os.ReadFile(filepath.Join(dir, "a.enc"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.enc"), raw, 0600))

	_, err = store.LoadDevice(ctx, "b")
	assert.Error(t, err)

	state, err := store.LoadDevice(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "plain words", state.Mnemonic)
}
