package key

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/status-im/keycard-go/derivationpath"
)

const (
	// HardenedOffset 强化派生起点
	HardenedOffset uint32 = 0x80000000

	eosPurpose      = 44
	eosCoinType     = 194
	eosMaxAccount   = 1000000
	eosPathLength   = 5
	eosChangeIndex  = 0
	eosAddressIndex = 0
)

// DerivationService 负责派生路径的解析、格式化与校验
type DerivationService struct{}

// NewDerivationService 创建派生路径服务
func NewDerivationService() *DerivationService {
	return &DerivationService{}
}

// ParseDerivationPath 解析派生路径 (e.g. "m/44'/194'/0'/0/0")
// 支持 ' 或 h 表示 hardened
func (s *DerivationService) ParseDerivationPath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" || path == "/" {
		return []uint32{}, nil
	}

	// derivationpath 会丢弃以 ' 结尾的最后一段，补一个哑段解析后再去掉
	normalized := strings.ReplaceAll(path, "h", "'")
	padded := strings.HasSuffix(normalized, "'")
	if padded {
		normalized += "/0"
	}

	start, indices, err := derivationpath.Decode(normalized)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid derivation path %q", path)
	}
	if start == derivationpath.StartingPointParent {
		return nil, errors.Errorf("relative derivation path %q is not supported", path)
	}

	if padded {
		indices = indices[:len(indices)-1]
	}
	return indices, nil
}

// FormatDerivationPath 将索引序列格式化为 m/... 形式
func FormatDerivationPath(path []uint32) string {
	return derivationpath.Encode(path)
}

// ValidateEOSPath 检查路径是否为 m/44'/194'/a'/0/0 且 a <= 1000000
func (s *DerivationService) ValidateEOSPath(path []uint32) bool {
	if len(path) != eosPathLength {
		return false
	}
	if path[0] != eosPurpose|HardenedOffset {
		return false
	}
	if path[1] != eosCoinType|HardenedOffset {
		return false
	}
	if path[2] < HardenedOffset || path[2] > eosMaxAccount|HardenedOffset {
		return false
	}
	if path[3] != eosChangeIndex {
		return false
	}
	return path[4] == eosAddressIndex
}

// EOSPath 返回账户 account 的标准 EOS 路径
func EOSPath(account uint32) []uint32 {
	return []uint32{
		eosPurpose | HardenedOffset,
		eosCoinType | HardenedOffset,
		account | HardenedOffset,
		eosChangeIndex,
		eosAddressIndex,
	}
}
