package key

import (
	"github.com/pkg/errors"
)

var (
	// ErrForbiddenPath 路径不属于任何已声明的命名空间
	ErrForbiddenPath = errors.New("forbidden key path")
	// ErrKeychainClosed 密钥链已销毁
	ErrKeychainClosed = errors.New("keychain is closed")
)

// Namespace 允许派生的 (曲线, 路径前缀)
type Namespace struct {
	Curve  Curve
	Prefix []uint32
}

// EOSNamespaces EOS 应用可用的命名空间 m/44'/194'
func EOSNamespaces() []Namespace {
	return []Namespace{
		{Curve: CurveSecp256k1, Prefix: []uint32{eosPurpose | HardenedOffset, eosCoinType | HardenedOffset}},
	}
}

func (ns Namespace) matches(path []uint32, curve Curve) bool {
	if ns.Curve != curve || len(path) < len(ns.Prefix) {
		return false
	}
	for i, index := range ns.Prefix {
		if path[i] != index {
			return false
		}
	}
	return true
}

// Keychain 受命名空间约束的密钥链，生命周期等同一次签名会话
type Keychain struct {
	deriver    Deriver
	seed       []byte
	namespaces []Namespace
	roots      []Node
	closed     bool
}

// NewKeychain 创建密钥链，seed 被复制且在 Close 时清零
func NewKeychain(deriver Deriver, seed []byte, namespaces []Namespace) *Keychain {
	return &Keychain{
		deriver:    deriver,
		seed:       append([]byte(nil), seed...),
		namespaces: namespaces,
		roots:      make([]Node, len(namespaces)),
	}
}

// Derive 按声明顺序匹配第一个命名空间，克隆其缓存根节点后派生剩余路径
func (k *Keychain) Derive(path []uint32, curve Curve) (Node, error) {
	if k.closed {
		return nil, ErrKeychainClosed
	}

	for i, ns := range k.namespaces {
		if !ns.matches(path, curve) {
			continue
		}

		root, err := k.root(i)
		if err != nil {
			return nil, err
		}

		node, err := root.Clone()
		if err != nil {
			return nil, err
		}
		if err := node.DerivePath(path[len(ns.Prefix):]); err != nil {
			node.Zero()
			return nil, err
		}
		return node, nil
	}

	return nil, errors.Wrapf(ErrForbiddenPath, "%s", FormatDerivationPath(path))
}

func (k *Keychain) root(i int) (Node, error) {
	if k.roots[i] != nil {
		return k.roots[i], nil
	}

	ns := k.namespaces[i]
	root, err := k.deriver.FromSeed(k.seed, ns.Curve)
	if err != nil {
		return nil, err
	}
	if err := root.DerivePath(ns.Prefix); err != nil {
		root.Zero()
		return nil, errors.Wrapf(err, "failed to derive namespace root %s", FormatDerivationPath(ns.Prefix))
	}

	k.roots[i] = root
	return root, nil
}

// Close 清零所有缓存根节点与种子，可重复调用
func (k *Keychain) Close() {
	if k.closed {
		return
	}
	k.closed = true

	for i, root := range k.roots {
		if root != nil {
			root.Zero()
			k.roots[i] = nil
		}
	}
	for i := range k.seed {
		k.seed[i] = 0
	}
	k.seed = nil
}
