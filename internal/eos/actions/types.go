package actions

import (
	"github.com/kashguard/go-eos-signer/internal/eos/codec"
	"github.com/pkg/errors"
)

// PermissionLevel (actor, permission)，例如 alice@active
type PermissionLevel struct {
	Actor      uint64
	Permission uint64
}

func (p PermissionLevel) String() string {
	return codec.NameToString(p.Actor) + "@" + codec.NameToString(p.Permission)
}

// Common 所有动作共有的部分
type Common struct {
	Account       uint64
	Name          uint64
	Authorization []PermissionLevel
}

// Encode 写入 account、name 与授权列表
func (c Common) Encode(w *codec.Writer) {
	w.WriteName(c.Account)
	w.WriteName(c.Name)
	w.WriteVarint32(uint32(len(c.Authorization)))
	for _, p := range c.Authorization {
		w.WriteName(p.Actor)
		w.WriteName(p.Permission)
	}
}

type Asset struct {
	Amount int64
	Symbol uint64
}

func (a Asset) String() string {
	return codec.AssetToString(a.Amount, a.Symbol)
}

// KeyWeight 33 字节压缩 secp256k1 公钥，Type 0 表示 K1
type KeyWeight struct {
	Type   uint32
	Key    []byte
	Weight uint16
}

type PermissionLevelWeight struct {
	Account PermissionLevel
	Weight  uint16
}

type WaitWeight struct {
	WaitSec uint32
	Weight  uint16
}

type Authority struct {
	Threshold uint32
	Keys      []KeyWeight
	Accounts  []PermissionLevelWeight
	Waits     []WaitWeight
}

const compressedKeySize = 33

func (a Authority) encode(w *codec.Writer) {
	w.WriteUint32(a.Threshold)

	w.WriteVarint32(uint32(len(a.Keys)))
	for _, k := range a.Keys {
		w.WriteVarint32(k.Type)
		w.WriteBytes(k.Key)
		w.WriteUint16(k.Weight)
	}

	w.WriteVarint32(uint32(len(a.Accounts)))
	for _, acc := range a.Accounts {
		w.WriteName(acc.Account.Actor)
		w.WriteName(acc.Account.Permission)
		w.WriteUint16(acc.Weight)
	}

	w.WriteVarint32(uint32(len(a.Waits)))
	for _, wait := range a.Waits {
		w.WriteUint32(wait.WaitSec)
		w.WriteUint16(wait.Weight)
	}
}

func (a Authority) check() error {
	for i, k := range a.Keys {
		if len(k.Key) != compressedKeySize {
			return errors.Wrapf(ErrMalformedPayload, "authority key #%d has %d bytes, want %d", i+1, len(k.Key), compressedKeySize)
		}
	}
	return nil
}

// Action 宿主发送的一个交易动作
type Action struct {
	Common  Common
	Payload Payload
}
