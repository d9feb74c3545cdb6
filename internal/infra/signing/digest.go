package signing

import (
	"crypto/sha256"
	"hash"

	"github.com/kashguard/go-eos-signer/internal/eos/codec"
)

// HashWriter 只追加的 sha256 上下文，按协议顺序写入且不回退
type HashWriter struct {
	*codec.Writer
	h hash.Hash
}

// NewHashWriter 创建摘要写入器
func NewHashWriter() *HashWriter {
	h := sha256.New()
	return &HashWriter{Writer: codec.NewWriter(h), h: h}
}

// Digest 返回当前摘要，不影响后续写入
func (w *HashWriter) Digest() []byte {
	return w.h.Sum(nil)
}
