package codec

// PackVarint32 base-128 小端 varint，除最后一个字节外都带 0x80 续位
func PackVarint32(value uint32) []byte {
	out := make([]byte, 0, 5)
	v := value
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v > 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

// Varint32Size 编码后的长度
func Varint32Size(value uint32) int {
	n := 1
	for value >= 0x80 {
		value >>= 7
		n++
	}
	return n
}
