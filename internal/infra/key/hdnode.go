package key

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
)

// Curve 标识派生所用的曲线
type Curve string

const (
	CurveSecp256k1 Curve = "secp256k1"
)

// ErrUnsupportedCurve 不支持的曲线
var ErrUnsupportedCurve = errors.New("unsupported curve")

// Node HD 节点
type Node interface {
	// DerivePath 在当前节点上原地派生 path
	DerivePath(path []uint32) error
	Clone() (Node, error)
	PrivateKey() ([]byte, error)
	// PublicKey 返回 33 字节压缩公钥
	PublicKey() ([]byte, error)
	Zero()
}

// Deriver 从种子创建根节点
type Deriver interface {
	FromSeed(seed []byte, curve Curve) (Node, error)
}

// HDKeychainDeriver 基于 BIP-32 (hdkeychain) 的节点派生器
type HDKeychainDeriver struct {
	params *chaincfg.Params
}

// NewHDKeychainDeriver 创建派生器
func NewHDKeychainDeriver() *HDKeychainDeriver {
	return &HDKeychainDeriver{params: &chaincfg.MainNetParams}
}

// FromSeed 计算主节点 I = HMAC-SHA512("Bitcoin seed", seed)
func (d *HDKeychainDeriver) FromSeed(seed []byte, curve Curve) (Node, error) {
	if curve != CurveSecp256k1 {
		return nil, errors.Wrapf(ErrUnsupportedCurve, "%s", curve)
	}

	master, err := hdkeychain.NewMaster(seed, d.params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master node")
	}
	return &hdNode{key: master}, nil
}

type hdNode struct {
	key *hdkeychain.ExtendedKey
}

func (n *hdNode) DerivePath(path []uint32) error {
	for i, index := range path {
		child, err := n.key.Derive(index)
		if err != nil {
			return errors.Wrapf(err, "failed to derive at index %d (%d)", i, index)
		}
		n.key.Zero()
		n.key = child
	}
	return nil
}

// Clone 深拷贝节点，hdkeychain.NewExtendedKey 不复制传入的切片
func (n *hdNode) Clone() (Node, error) {
	priv, err := n.key.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to clone node")
	}
	keyBytes := priv.Serialize()
	priv.Zero()

	parentFP := make([]byte, 4)
	binary.BigEndian.PutUint32(parentFP, n.key.ParentFingerprint())
	version := append([]byte(nil), n.key.Version()...)

	clone := hdkeychain.NewExtendedKey(version, keyBytes, n.key.ChainCode(), parentFP,
		n.key.Depth(), n.key.ChildIndex(), true)
	return &hdNode{key: clone}, nil
}

func (n *hdNode) PrivateKey() ([]byte, error) {
	priv, err := n.key.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get private key")
	}
	defer priv.Zero()
	return priv.Serialize(), nil
}

func (n *hdNode) PublicKey() ([]byte, error) {
	pub, err := n.key.ECPubKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get public key")
	}
	return pub.SerializeCompressed(), nil
}

func (n *hdNode) Zero() {
	n.key.Zero()
}
