package codec

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	maxSymbolLen = 7
	// MaxPrecision 链上符号允许的最大精度
	MaxPrecision = 18
)

// ErrInvalidAsset 资产字符串无法解析
var ErrInvalidAsset = errors.New("invalid asset")

// SymbolPrecision 符号最低字节保存的小数位数
func SymbolPrecision(symbol uint64) uint8 {
	return uint8(symbol & 0xff)
}

// SymbolToString 精度字节之上的最多 7 个 ASCII 字符，遇到零字节停止
func SymbolToString(symbol uint64) string {
	sym := symbol >> 8
	var sb strings.Builder
	for i := 0; i < maxSymbolLen; i++ {
		c := byte(sym & 0xff)
		if c == 0 {
			break
		}
		sb.WriteByte(c)
		sym >>= 8
	}
	return strings.TrimRight(sb.String(), "\x00")
}

// AssetToString 输出 "<整数>.<小数> <符号>"，小数位数等于精度并补零
func AssetToString(amount int64, symbol uint64) string {
	p := int(SymbolPrecision(symbol))

	var abs uint64
	negative := amount < 0
	if negative {
		abs = uint64(-(amount + 1)) + 1
	} else {
		abs = uint64(amount)
	}

	fraction := make([]byte, p)
	for i := p - 1; i >= 0; i-- {
		fraction[i] = byte('0' + abs%10)
		abs /= 10
	}

	var sb strings.Builder
	if negative {
		sb.WriteByte('-')
	}
	sb.WriteString(strconv.FormatUint(abs, 10))
	sb.WriteByte('.')
	sb.Write(fraction)
	sb.WriteByte(' ')
	sb.WriteString(SymbolToString(symbol))
	return sb.String()
}

// NewSymbol 打包精度与最多 7 个大写字母的符号
func NewSymbol(precision uint8, code string) (uint64, error) {
	if precision > MaxPrecision {
		return 0, errors.Wrapf(ErrInvalidAsset, "precision %d exceeds %d", precision, MaxPrecision)
	}
	if len(code) == 0 || len(code) > maxSymbolLen {
		return 0, errors.Wrapf(ErrInvalidAsset, "symbol %q must be 1-%d characters", code, maxSymbolLen)
	}

	symbol := uint64(precision)
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < 'A' || c > 'Z' {
			return 0, errors.Wrapf(ErrInvalidAsset, "symbol %q must be upper-case letters", code)
		}
		symbol |= uint64(c) << (8 * uint(i+1))
	}
	return symbol, nil
}

// ParseAsset AssetToString 的逆操作 (e.g. "1.0000 EOS")，精度取自小数位数
func ParseAsset(s string) (int64, uint64, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, 0, errors.Wrapf(ErrInvalidAsset, "%q: expected \"<amount> <symbol>\"", s)
	}

	precision := 0
	if dot := strings.IndexByte(parts[0], '.'); dot >= 0 {
		precision = len(parts[0]) - dot - 1
	}
	if precision > MaxPrecision {
		return 0, 0, errors.Wrapf(ErrInvalidAsset, "%q: precision %d exceeds %d", s, precision, MaxPrecision)
	}

	amount, err := decimal.NewFromString(parts[0])
	if err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidAsset, "%q: %v", s, err)
	}

	units := amount.Shift(int32(precision))
	if !units.IsInteger() || !units.BigInt().IsInt64() {
		return 0, 0, errors.Wrapf(ErrInvalidAsset, "%q: amount out of range", s)
	}

	symbol, err := NewSymbol(uint8(precision), parts[1])
	if err != nil {
		return 0, 0, err
	}
	return units.IntPart(), symbol, nil
}
