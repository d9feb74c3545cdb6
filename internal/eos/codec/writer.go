package codec

import (
	"encoding/binary"
	"io"
)

// Writer 按链上规范小端布局序列化基本类型
// 保留第一个写错误，之后的写入全部忽略
type Writer struct {
	w   io.Writer
	n   int
	err error
	buf [8]byte
}

// NewWriter 包装 w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Len 已写入字节数
func (w *Writer) Len() int { return w.n }

// Err 底层写入遇到的第一个错误
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(b)
	w.n += n
	w.err = err
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
		return
	}
	w.WriteUint8(0)
}

func (w *Writer) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.write(w.buf[:2])
}

func (w *Writer) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

func (w *Writer) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteName 写入 64 位名称
func (w *Writer) WriteName(v uint64) {
	w.WriteUint64(v)
}

// WriteAsset 先写数量再写符号
func (w *Writer) WriteAsset(amount int64, symbol uint64) {
	w.WriteInt64(amount)
	w.WriteUint64(symbol)
}

func (w *Writer) WriteVarint32(v uint32) {
	w.write(PackVarint32(v))
}

// WriteBytes 原样写入，不带长度前缀
func (w *Writer) WriteBytes(b []byte) {
	w.write(b)
}

// WriteString 写入 varint32(len(s)) 与内容
func (w *Writer) WriteString(s string) {
	w.WriteVarint32(uint32(len(s)))
	w.write([]byte(s))
}
