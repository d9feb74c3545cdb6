package codec

import (
	"bytes"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // 公钥校验和基于 RIPEMD-160
)

const (
	// PublicKeyPrefix 旧格式公钥前缀
	PublicKeyPrefix = "EOS"
	// SignaturePrefix 可恢复 secp256k1 签名前缀
	SignaturePrefix = "SIG_K1_"

	signatureSize = 65
)

// PublicKeyToString 将 33 字节压缩或 65 字节非压缩公钥编码为
// "EOS" + base58(compressed || ripemd160(compressed)[:4])
func PublicKeyToString(pubKey []byte) (string, error) {
	var compressed []byte
	switch len(pubKey) {
	case 33:
		compressed = pubKey
	case 65:
		key, err := btcec.ParsePubKey(pubKey)
		if err != nil {
			return "", errors.Wrap(err, "failed to parse uncompressed public key")
		}
		compressed = key.SerializeCompressed()
	default:
		return "", errors.Errorf("invalid public key length: %d", len(pubKey))
	}

	h := ripemd160.New()
	h.Write(compressed)
	checksum := h.Sum(nil)[:4]

	payload := make([]byte, 0, len(compressed)+len(checksum))
	payload = append(payload, compressed...)
	payload = append(payload, checksum...)
	return PublicKeyPrefix + base58.Encode(payload), nil
}

// StringToPublicKey 解析 "EOS..." 或 "PUB_K1_..." 为 33 字节压缩公钥并校验校验和
func StringToPublicKey(s string) ([]byte, error) {
	var body []byte
	var suffix []byte
	switch {
	case strings.HasPrefix(s, "PUB_K1_"):
		body = base58.Decode(strings.TrimPrefix(s, "PUB_K1_"))
		suffix = []byte("K1")
	case strings.HasPrefix(s, PublicKeyPrefix):
		body = base58.Decode(strings.TrimPrefix(s, PublicKeyPrefix))
	default:
		return nil, errors.Errorf("public key %q has no known prefix", s)
	}
	if len(body) != 33+4 {
		return nil, errors.Errorf("public key %q has invalid length", s)
	}

	key, checksum := body[:33], body[33:]
	h := ripemd160.New()
	h.Write(key)
	h.Write(suffix)
	if !bytes.Equal(h.Sum(nil)[:4], checksum) {
		return nil, errors.Errorf("public key %q has a bad checksum", s)
	}
	if _, err := btcec.ParsePubKey(key); err != nil {
		return nil, errors.Wrapf(err, "public key %q is not on the curve", s)
	}
	return key, nil
}

// SignatureToString 将 65 字节签名 (header, r, s) 编码为
// "SIG_K1_" + base58(sig || ripemd160(sig || "K1")[:4])
func SignatureToString(sig []byte) (string, error) {
	if len(sig) != signatureSize {
		return "", errors.Errorf("invalid signature length: %d", len(sig))
	}

	h := ripemd160.New()
	h.Write(sig)
	h.Write([]byte("K1"))
	checksum := h.Sum(nil)[:4]

	payload := make([]byte, 0, len(sig)+len(checksum))
	payload = append(payload, sig...)
	payload = append(payload, checksum...)
	return SignaturePrefix + base58.Encode(payload), nil
}
