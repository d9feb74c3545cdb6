package actions

import (
	"reflect"

	"github.com/kashguard/go-eos-signer/internal/eos/codec"
	"github.com/pkg/errors"
)

var (
	// ErrMissingPayload 动作没有填充任何变体
	ErrMissingPayload = errors.New("action has no payload")
	// ErrContractMismatch 已知变体出现在不属于它的 (account, name) 下
	ErrContractMismatch = errors.New("action payload does not match its contract")
	// ErrMalformedPayload 变体数据结构非法
	ErrMalformedPayload = errors.New("malformed action payload")
)

type checker interface {
	check() error
}

// Validate 防伪检查，任何内容写入摘要前执行
// 未知数据接受任意 (account, name)；已知变体只接受其自身对应的组合
func Validate(a *Action) error {
	if a == nil || a.Payload == nil || reflect.ValueOf(a.Payload).IsNil() {
		return ErrMissingPayload
	}

	switch p := a.Payload.(type) {
	case *Unknown:
		return nil
	case KnownPayload:
		c, ok := knownContracts[p.Kind()]
		if !ok || !c.matches(a.Common) {
			return errors.Wrapf(ErrContractMismatch, "%s payload sent as %s::%s",
				p.Kind(), codec.NameToString(a.Common.Account), codec.NameToString(a.Common.Name))
		}
		if ck, ok := p.(checker); ok {
			return ck.check()
		}
		return nil
	default:
		return errors.Wrapf(ErrMissingPayload, "unsupported payload %T", p)
	}
}
