package actions

import (
	"bytes"
	"strconv"

	"github.com/kashguard/go-eos-signer/internal/eos/codec"
)

// Payload 动作的变体部分，实现仅限本文件中的类型
type Payload interface {
	Kind() Kind
	sealed()
}

// KnownPayload 结构已知的变体：完整序列化，逐字段确认，作为一个字节串写入摘要
type KnownPayload interface {
	Payload
	Encode(w *codec.Writer)
	Review(common Common) (Review, error)
}

// EncodeData 序列化 p 的变体数据
func EncodeData(p KnownPayload) ([]byte, error) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	p.Encode(w)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type Transfer struct {
	Sender   uint64
	Receiver uint64
	Quantity Asset
	Memo     string
}

type BuyRAM struct {
	Payer    uint64
	Receiver uint64
	Quantity Asset
}

type BuyRAMBytes struct {
	Payer    uint64
	Receiver uint64
	Bytes    uint32
}

type SellRAM struct {
	Account uint64
	Bytes   uint64
}

type Delegate struct {
	Sender      uint64
	Receiver    uint64
	NetQuantity Asset
	CPUQuantity Asset
	Transfer    bool
}

type Undelegate struct {
	Sender      uint64
	Receiver    uint64
	NetQuantity Asset
	CPUQuantity Asset
}

type Refund struct {
	Owner uint64
}

type VoteProducer struct {
	Voter     uint64
	Proxy     uint64
	Producers []uint64
}

type UpdateAuth struct {
	Account    uint64
	Permission uint64
	Parent     uint64
	Auth       Authority
}

type DeleteAuth struct {
	Account    uint64
	Permission uint64
}

type LinkAuth struct {
	Account     uint64
	Code        uint64
	Type        uint64
	Requirement uint64
}

type UnlinkAuth struct {
	Account uint64
	Code    uint64
	Type    uint64
}

type NewAccount struct {
	Creator uint64
	Name    uint64
	Owner   Authority
	Active  Authority
}

// Unknown 长度为 DataSize 的不透明数据
// 首轮携带第一个 DataChunk，其余分片通过后续 Unknown 动作发送
type Unknown struct {
	DataSize  uint32
	DataChunk []byte
}

func (*Transfer) Kind() Kind     { return KindTransfer }
func (*BuyRAM) Kind() Kind       { return KindBuyRAM }
func (*BuyRAMBytes) Kind() Kind  { return KindBuyRAMBytes }
func (*SellRAM) Kind() Kind      { return KindSellRAM }
func (*Delegate) Kind() Kind     { return KindDelegate }
func (*Undelegate) Kind() Kind   { return KindUndelegate }
func (*Refund) Kind() Kind       { return KindRefund }
func (*VoteProducer) Kind() Kind { return KindVoteProducer }
func (*UpdateAuth) Kind() Kind   { return KindUpdateAuth }
func (*DeleteAuth) Kind() Kind   { return KindDeleteAuth }
func (*LinkAuth) Kind() Kind     { return KindLinkAuth }
func (*UnlinkAuth) Kind() Kind   { return KindUnlinkAuth }
func (*NewAccount) Kind() Kind   { return KindNewAccount }
func (*Unknown) Kind() Kind      { return KindUnknown }

func (*Transfer) sealed()     {}
func (*BuyRAM) sealed()       {}
func (*BuyRAMBytes) sealed()  {}
func (*SellRAM) sealed()      {}
func (*Delegate) sealed()     {}
func (*Undelegate) sealed()   {}
func (*Refund) sealed()       {}
func (*VoteProducer) sealed() {}
func (*UpdateAuth) sealed()   {}
func (*DeleteAuth) sealed()   {}
func (*LinkAuth) sealed()     {}
func (*UnlinkAuth) sealed()   {}
func (*NewAccount) sealed()   {}
func (*Unknown) sealed()      {}

func (a *Transfer) Encode(w *codec.Writer) {
	w.WriteName(a.Sender)
	w.WriteName(a.Receiver)
	w.WriteAsset(a.Quantity.Amount, a.Quantity.Symbol)
	w.WriteString(a.Memo)
}

func (a *BuyRAM) Encode(w *codec.Writer) {
	w.WriteName(a.Payer)
	w.WriteName(a.Receiver)
	w.WriteAsset(a.Quantity.Amount, a.Quantity.Symbol)
}

func (a *BuyRAMBytes) Encode(w *codec.Writer) {
	w.WriteName(a.Payer)
	w.WriteName(a.Receiver)
	w.WriteUint32(a.Bytes)
}

func (a *SellRAM) Encode(w *codec.Writer) {
	w.WriteName(a.Account)
	w.WriteUint64(a.Bytes)
}

func (a *Delegate) Encode(w *codec.Writer) {
	w.WriteName(a.Sender)
	w.WriteName(a.Receiver)
	w.WriteAsset(a.NetQuantity.Amount, a.NetQuantity.Symbol)
	w.WriteAsset(a.CPUQuantity.Amount, a.CPUQuantity.Symbol)
	w.WriteBool(a.Transfer)
}

func (a *Undelegate) Encode(w *codec.Writer) {
	w.WriteName(a.Sender)
	w.WriteName(a.Receiver)
	w.WriteAsset(a.NetQuantity.Amount, a.NetQuantity.Symbol)
	w.WriteAsset(a.CPUQuantity.Amount, a.CPUQuantity.Symbol)
}

func (a *Refund) Encode(w *codec.Writer) {
	w.WriteName(a.Owner)
}

func (a *VoteProducer) Encode(w *codec.Writer) {
	w.WriteName(a.Voter)
	w.WriteName(a.Proxy)
	w.WriteVarint32(uint32(len(a.Producers)))
	for _, p := range a.Producers {
		w.WriteName(p)
	}
}

func (a *UpdateAuth) Encode(w *codec.Writer) {
	w.WriteName(a.Account)
	w.WriteName(a.Permission)
	w.WriteName(a.Parent)
	a.Auth.encode(w)
}

func (a *DeleteAuth) Encode(w *codec.Writer) {
	w.WriteName(a.Account)
	w.WriteName(a.Permission)
}

func (a *LinkAuth) Encode(w *codec.Writer) {
	w.WriteName(a.Account)
	w.WriteName(a.Code)
	w.WriteName(a.Type)
	w.WriteName(a.Requirement)
}

func (a *UnlinkAuth) Encode(w *codec.Writer) {
	w.WriteName(a.Account)
	w.WriteName(a.Code)
	w.WriteName(a.Type)
}

func (a *NewAccount) Encode(w *codec.Writer) {
	w.WriteName(a.Creator)
	w.WriteName(a.Name)
	a.Owner.encode(w)
	a.Active.encode(w)
}

func (a *UpdateAuth) check() error { return a.Auth.check() }

func (a *NewAccount) check() error {
	if err := a.Owner.check(); err != nil {
		return err
	}
	return a.Active.check()
}

func uintString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
