package signing

import (
	"crypto/sha256"
	"hash"
	"io"

	"github.com/kashguard/go-eos-signer/internal/eos/codec"
	"github.com/pkg/errors"
)

// ErrUnknownOverflow 收到的字节数超过声明长度
var ErrUnknownOverflow = errors.New("unknown action payload exceeds declared size")

// UnknownReader 多轮接收未声明结构的动作数据
// 每个分片同时写入交易摘要与单独的校验和，校验和与分片边界无关
type UnknownReader struct {
	declared uint32
	received uint64
	checksum hash.Hash
	out      *codec.Writer
}

// NewUnknownReader 写入 varint32(declared) 后开始接收；digest 为交易摘要
func NewUnknownReader(digest io.Writer, declared uint32) *UnknownReader {
	checksum := sha256.New()
	r := &UnknownReader{
		declared: declared,
		checksum: checksum,
		out:      codec.NewWriter(io.MultiWriter(digest, checksum)),
	}
	r.out.WriteVarint32(declared)
	return r
}

// Feed 接收一个分片
func (r *UnknownReader) Feed(chunk []byte) error {
	if r.received+uint64(len(chunk)) > uint64(r.declared) {
		r.received += uint64(len(chunk))
		return errors.Wrapf(ErrUnknownOverflow, "received %d of %d bytes", r.received, r.declared)
	}

	r.received += uint64(len(chunk))
	r.out.WriteBytes(chunk)
	return r.out.Err()
}

// Remaining 尚未收到的字节数
func (r *UnknownReader) Remaining() uint32 {
	if r.received >= uint64(r.declared) {
		return 0
	}
	return r.declared - uint32(r.received)
}

// Done 是否已收齐
func (r *UnknownReader) Done() bool {
	return r.received == uint64(r.declared)
}

func (r *UnknownReader) Declared() uint32 {
	return r.declared
}

func (r *UnknownReader) Received() uint64 {
	return r.received
}

// Checksum sha256(varint32(declared) || data)
func (r *UnknownReader) Checksum() []byte {
	return r.checksum.Sum(nil)
}
