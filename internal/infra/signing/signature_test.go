package signing

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivKeyHex = "9f6cd81ace4dab5124f589852aec0933b6d44cf612d03040d084ccae9391ac80"

	transferDigestHex = "2eb83d1617cff84fbe5296017c34a530ee1f7e82b204fe35cc1fdccb168ef7f2"
	transferSigHex    = "1f7fc0788d0d258db5ad5ea092cabf64d6db7352aae90b8f813ae3cc7f9dcfe6cd1ff216ea3cdca3480960b34080c2f52f00eef8f14b6765ab51ad29442b07cc41"

	// 第一个 nonce 不满足 canonical 条件
	mixedDigestHex = "8e57a2fc1acd2100ba7b7bdadfc17cee5c3dae0a05fc9bbb7e63407220576676"
	mixedSigHex    = "1f36d207ee41753d8cc37f6566d4c4c642e8e43942e1eed022c619a136461e4d8b18f7e6808bc6ab6391d2d0f21d1d74a0c373c3ae860228af67a0472f44500a26"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestSignCanonical(t *testing.T) {
	tests := []struct {
		name   string
		digest string
		want   string
	}{
		{name: "first nonce", digest: transferDigestHex, want: transferSigHex},
		{name: "second nonce", digest: mixedDigestHex, want: mixedSigHex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := SignCanonical(mustHex(t, testPrivKeyHex), mustHex(t, tt.digest))
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(sig.Bytes()))
			assert.True(t, isCanonical(&sig.R))
			assert.True(t, isCanonical(&sig.S))
		})
	}
}

func TestSignCanonicalIsDeterministic(t *testing.T) {
	priv := mustHex(t, testPrivKeyHex)
	digest := mustHex(t, transferDigestHex)

	first, err := SignCanonical(priv, digest)
	require.NoError(t, err)
	second, err := SignCanonical(priv, digest)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSignCanonicalRejectsBadInput(t *testing.T) {
	digest := mustHex(t, transferDigestHex)

	_, err := SignCanonical(mustHex(t, testPrivKeyHex), digest[:31])
	assert.ErrorIs(t, err, ErrInvalidDigest)

	_, err = SignCanonical(make([]byte, 32), digest)
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)

	_, err = SignCanonical([]byte{1, 2, 3}, digest)
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestSignatureString(t *testing.T) {
	sig, err := SignCanonical(mustHex(t, testPrivKeyHex), mustHex(t, transferDigestHex))
	require.NoError(t, err)
	assert.Equal(t,
		"SIG_K1_KByATfSnJAqm2mvWCWUP5TjBbEi75WcLt9mmFJQxa2982HjTQLBVKds2P3ps1iGNdb74gboGRnC3qxh6j2vLT4hMghMHJJ",
		sig.String())
}
