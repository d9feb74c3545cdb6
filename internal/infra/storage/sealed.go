package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

var sealerSalt = []byte("eos-signer-device-salt")

// sealer 以口令派生的 AES-GCM 密钥封装落盘数据
// 输出格式为 nonce || ciphertext，aad 绑定记录所属的设备
type sealer struct {
	aead cipher.AEAD
}

func newSealer(passphrase string) (*sealer, error) {
	if passphrase == "" {
		return nil, errors.New("encryption key is required")
	}
	key, err := scrypt.Key([]byte(passphrase), sealerSalt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive encryption key")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(plaintext, aad []byte) ([]byte, error) {
	out := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}
	return s.aead.Seal(out, out, plaintext, aad), nil
}

func (s *sealer) open(sealed, aad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, errors.New("sealed record too short")
	}
	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], aad)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt")
	}
	return plaintext, nil
}
