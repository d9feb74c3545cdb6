package signing

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

const (
	// 压缩公钥的可恢复签名头
	compactHeaderBase  = 27 + 4
	maxNonceIterations = 1 << 16
)

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidDigest     = errors.New("digest must be 32 bytes")
	ErrNoCanonicalNonce  = errors.New("no canonical signature found")
)

// SignCanonical 对 32 字节摘要做确定性签名 (RFC 6979)
// 依次尝试 nonce 流，low-S 归一化后 r、s 都必须满足 EOS canonical 条件
func SignCanonical(privKey []byte, digest []byte) (Signature, error) {
	if len(digest) != 32 {
		return Signature{}, ErrInvalidDigest
	}

	if len(privKey) != 32 {
		return Signature{}, ErrInvalidPrivateKey
	}

	var d secp256k1.ModNScalar
	if overflow := d.SetByteSlice(privKey); overflow || d.IsZero() {
		d.Zero()
		return Signature{}, ErrInvalidPrivateKey
	}
	defer d.Zero()

	keyBytes := d.Bytes()
	defer func() {
		for i := range keyBytes {
			keyBytes[i] = 0
		}
	}()

	var e secp256k1.ModNScalar
	e.SetByteSlice(digest)

	for iteration := uint32(0); iteration < maxNonceIterations; iteration++ {
		k := secp256k1.NonceRFC6979(keyBytes[:], digest, nil, nil, iteration)
		sig, ok := signWithNonce(&d, &e, k)
		k.Zero()
		if ok {
			return sig, nil
		}
	}

	return Signature{}, ErrNoCanonicalNonce
}

func signWithNonce(d, e, k *secp256k1.ModNScalar) (Signature, bool) {
	var R secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &R)
	R.ToAffine()

	// r = R.x mod n
	var r secp256k1.ModNScalar
	overflow := r.SetBytes(R.X.Bytes())
	if r.IsZero() {
		return Signature{}, false
	}

	recID := byte(0)
	if R.Y.IsOdd() {
		recID |= 1
	}
	if overflow == 1 {
		recID |= 2
	}

	// s = k^-1 * (e + r*d)
	var kInv secp256k1.ModNScalar
	kInv.Set(k).InverseNonConst()
	var s secp256k1.ModNScalar
	s.Mul2(&r, d).Add(e).Mul(&kInv)
	kInv.Zero()
	if s.IsZero() {
		return Signature{}, false
	}

	if s.IsOverHalfOrder() {
		s.Negate()
		recID ^= 1
	}

	rb, sb := r.Bytes(), s.Bytes()
	if !isCanonical(&rb) || !isCanonical(&sb) {
		return Signature{}, false
	}

	return Signature{V: compactHeaderBase + recID, R: rb, S: sb}, true
}

// isCanonical DER 编码时不需要前导零字节且不能省略前导零
func isCanonical(b *[32]byte) bool {
	return b[0]&0x80 == 0 && !(b[0] == 0 && b[1]&0x80 == 0)
}
