package codec

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"
	nameMaxLen  = 13
)

// ErrInvalidName 名称无法打包为 64 位
var ErrInvalidName = errors.New("invalid name")

// NameToString 解包 64 位名称：首个解出的字符占低 4 位，其余每个占 5 位，去掉末尾的点
func NameToString(value uint64) string {
	var buf [nameMaxLen]byte
	tmp := value
	for i := 0; i < nameMaxLen; i++ {
		if i == 0 {
			buf[nameMaxLen-1-i] = nameCharmap[tmp&0x0f]
			tmp >>= 4
		} else {
			buf[nameMaxLen-1-i] = nameCharmap[tmp&0x1f]
			tmp >>= 5
		}
	}

	return strings.TrimRight(string(buf[:]), ".")
}

// StringToName 打包最多 13 个字符的名称，第 13 个字符只能取字母表前 16 个 ('.' 到 'j')
func StringToName(s string) (uint64, error) {
	if len(s) > nameMaxLen {
		return 0, errors.Wrapf(ErrInvalidName, "%q is longer than %d characters", s, nameMaxLen)
	}

	var value uint64
	for i := 0; i < len(s); i++ {
		c, ok := charToSymbol(s[i])
		if !ok {
			return 0, errors.Wrapf(ErrInvalidName, "%q contains illegal character %q", s, s[i])
		}

		if i < nameMaxLen-1 {
			value |= (c & 0x1f) << (64 - 5*uint(i+1))
			continue
		}
		if c > 0x0f {
			return 0, errors.Wrapf(ErrInvalidName, "%q: 13th character must be in [.1-5a-j]", s)
		}
		value |= c & 0x0f
	}

	return value, nil
}

// MustName 用于常量，失败时 panic
func MustName(s string) uint64 {
	v, err := StringToName(s)
	if err != nil {
		panic(err)
	}
	return v
}

func charToSymbol(c byte) (uint64, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, true
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, true
	case c == '.':
		return 0, true
	default:
		return 0, false
	}
}
