package signing

import (
	"github.com/kashguard/go-eos-signer/internal/eos/actions"
	"github.com/kashguard/go-eos-signer/internal/eos/codec"
)

// Header 交易头（引用区块与资源限制）
type Header struct {
	Expiration       uint32
	RefBlockNum      uint16
	RefBlockPrefix   uint32
	MaxNetUsageWords uint32
	MaxCPUUsageMs    uint8
	DelaySec         uint32
}

func (h *Header) encode(w *codec.Writer) {
	w.WriteUint32(h.Expiration)
	w.WriteUint16(h.RefBlockNum)
	w.WriteUint32(h.RefBlockPrefix)
	w.WriteVarint32(h.MaxNetUsageWords)
	w.WriteUint8(h.MaxCPUUsageMs)
	w.WriteVarint32(h.DelaySec)
}

// SignRequest 签名请求
type SignRequest struct {
	ChainID    []byte   `validate:"required,len=32"`
	Header     *Header  `validate:"required"`
	NumActions uint32   `validate:"gt=0"`
	AddressN   []uint32 `validate:"required"`
}

// Signature 可恢复签名 header(27+4+recid) || r || s
type Signature struct {
	V byte
	R [32]byte
	S [32]byte
}

// Bytes 返回 65 字节编码
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, 65)
	out = append(out, s.V)
	out = append(out, s.R[:]...)
	out = append(out, s.S[:]...)
	return out
}

// String 返回 SIG_K1_ 格式
func (s Signature) String() string {
	str, err := codec.SignatureToString(s.Bytes())
	if err != nil {
		return ""
	}
	return str
}

// Effect 状态机挂起时要求宿主执行的动作
type Effect interface {
	effect()
}

// RequestAction 请求下一个动作；续传未知动作时携带剩余字节数
type RequestAction struct {
	RemainingBytesHint uint32
}

// RequestConfirm 请求用户确认
type RequestConfirm struct {
	Review actions.Review
}

// Completed 签名完成
type Completed struct {
	Signature Signature
}

func (RequestAction) effect()  {}
func (RequestConfirm) effect() {}
func (Completed) effect()      {}

// State 会话状态
type State int

const (
	StateInit State = iota
	StateValidatingRequest
	StateDeriving
	StateAwaitingAction
	StateFinalizing
	StateSigning
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateValidatingRequest:
		return "validating_request"
	case StateDeriving:
		return "deriving"
	case StateAwaitingAction:
		return "awaiting_action"
	case StateFinalizing:
		return "finalizing"
	case StateSigning:
		return "signing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
