package signing

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kashguard/go-eos-signer/internal/eos/actions"
	"github.com/kashguard/go-eos-signer/internal/eos/codec"
	"github.com/kashguard/go-eos-signer/internal/infra/key"
	"github.com/kashguard/go-eos-signer/internal/infra/protocol"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// pending 会话挂起时等待的宿主响应
type pending int

const (
	pendingNone pending = iota
	pendingPathConfirm
	pendingTxConfirm
	pendingActionConfirm
	pendingUnknownConfirm
	pendingAction
	pendingChunk
)

func (p pending) isConfirm() bool {
	return p == pendingPathConfirm || p == pendingTxConfirm || p == pendingActionConfirm || p == pendingUnknownConfirm
}

// Options 会话参数
type Options struct {
	Curve      key.Curve
	Derivation *key.DerivationService
	// LockTTL 设备锁超时，仅 Service 使用
	LockTTL time.Duration
}

// DefaultOptions secp256k1 与标准 EOS 路径校验
func DefaultOptions() Options {
	return Options{
		Curve:      key.CurveSecp256k1,
		Derivation: key.NewDerivationService(),
	}
}

// Session 单次交易签名的显式状态机
// 每个入口方法推进到下一个挂起点并返回宿主需要执行的 Effect，
// 出错时进入 Aborted 并且只销毁一次密钥材料
type Session struct {
	id       string
	keychain *key.Keychain
	opts     Options
	validate *validator.Validate

	state   State
	pending pending

	req       *SignRequest
	digest    *HashWriter
	privKey   []byte
	processed uint32

	current     *actions.Action
	currentData []byte
	unknown     *UnknownReader

	tornDown bool
}

// NewSession 创建会话，keychain 归会话所有并在结束时关闭
func NewSession(id string, keychain *key.Keychain, opts Options) *Session {
	if opts.Derivation == nil {
		opts.Derivation = key.NewDerivationService()
	}
	return &Session{
		id:       id,
		keychain: keychain,
		opts:     opts,
		validate: validator.New(),
		state:    StateInit,
	}
}

// ID 会话标识
func (s *Session) ID() string {
	return s.id
}

// State 当前状态
func (s *Session) State() State {
	return s.state
}

// Start 校验请求，派生签名密钥并写入交易头
func (s *Session) Start(req *SignRequest) (Effect, error) {
	if s.state != StateInit {
		return nil, s.fail(protocol.NewProtocolViolation(s.id, "session already started", nil))
	}

	s.transition(StateValidatingRequest)
	if err := s.validateRequest(req); err != nil {
		return nil, s.fail(err)
	}
	s.req = req

	if !s.opts.Derivation.ValidateEOSPath(req.AddressN) {
		log.Warn().
			Str("session_id", s.id).
			Str("path", key.FormatDerivationPath(req.AddressN)).
			Msg("Non-standard derivation path requested")

		s.pending = pendingPathConfirm
		review := actions.Review{
			Title:  "Wrong address path",
			Fields: []actions.Field{{Label: "Path", Value: key.FormatDerivationPath(req.AddressN)}},
		}
		return RequestConfirm{Review: review}, nil
	}

	return s.derive()
}

// OnConfirm 处理用户确认结果
func (s *Session) OnConfirm(accepted bool) (Effect, error) {
	if s.state.Terminal() || !s.pending.isConfirm() {
		return nil, s.fail(protocol.NewProtocolViolation(s.id, "unexpected confirmation", nil))
	}

	p := s.pending
	s.pending = pendingNone

	if !accepted {
		return nil, s.fail(protocol.NewUserRejected(s.id, rejectionSubject(p)))
	}

	switch p {
	case pendingPathConfirm:
		return s.derive()
	case pendingTxConfirm:
		s.transition(StateAwaitingAction)
		s.pending = pendingAction
		return RequestAction{}, nil
	case pendingActionConfirm:
		s.digest.WriteVarint32(uint32(len(s.currentData)))
		s.digest.WriteBytes(s.currentData)
		recordAction(s.current.Payload.Kind())
		s.current, s.currentData = nil, nil
		return s.nextAction()
	default:
		recordAction(actions.KindUnknown)
		s.current, s.unknown = nil, nil
		return s.nextAction()
	}
}

// OnAction 处理宿主返回的一个动作或未知动作的后续分片
func (s *Session) OnAction(a *actions.Action) (Effect, error) {
	if s.state != StateAwaitingAction {
		return nil, s.fail(protocol.NewProtocolViolation(s.id, "unexpected action", nil))
	}

	switch s.pending {
	case pendingAction:
		return s.acceptAction(a)
	case pendingChunk:
		return s.acceptChunk(a)
	default:
		return nil, s.fail(protocol.NewProtocolViolation(s.id, "unexpected action", nil))
	}
}

// Close 终止未完成的会话并销毁密钥材料，可重复调用
func (s *Session) Close() {
	if !s.state.Terminal() {
		s.transition(StateAborted)
	}
	s.teardown()
}

func (s *Session) validateRequest(req *SignRequest) error {
	if req == nil {
		return protocol.NewDataError(s.id, "no request", nil)
	}

	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return protocol.NewDataError(s.id, "invalid request", err)
	}

	switch fe := fieldErrs[0]; fe.StructField() {
	case "ChainID":
		if fe.Tag() == "len" {
			return protocol.NewDataError(s.id, "chain id must be 32 bytes", nil)
		}
		return protocol.NewDataError(s.id, "no chain id", nil)
	case "Header":
		return protocol.NewDataError(s.id, "no header", nil)
	case "NumActions":
		return protocol.NewDataError(s.id, "no actions", nil)
	case "AddressN":
		return protocol.NewDataError(s.id, "no address path", nil)
	default:
		return protocol.NewDataError(s.id, "invalid request", err)
	}
}

func (s *Session) derive() (Effect, error) {
	s.transition(StateDeriving)

	node, err := s.keychain.Derive(s.req.AddressN, s.opts.Curve)
	if err != nil {
		if errors.Is(err, key.ErrForbiddenPath) {
			return nil, s.fail(protocol.NewDataError(s.id, "forbidden key path", err))
		}
		return nil, s.fail(errors.Wrap(err, "failed to derive signing key"))
	}
	privKey, err := node.PrivateKey()
	node.Zero()
	if err != nil {
		return nil, s.fail(errors.Wrap(err, "failed to read signing key"))
	}
	s.privKey = privKey

	s.digest = NewHashWriter()
	s.digest.WriteBytes(s.req.ChainID)
	s.req.Header.encode(s.digest.Writer)
	s.digest.WriteVarint32(0)
	s.digest.WriteVarint32(s.req.NumActions)
	if err := s.digest.Err(); err != nil {
		return nil, s.fail(err)
	}

	s.pending = pendingTxConfirm
	review := actions.Review{
		Title:  "Sign transaction",
		Fields: []actions.Field{{Label: "Actions", Value: strconv.FormatUint(uint64(s.req.NumActions), 10)}},
	}
	return RequestConfirm{Review: review}, nil
}

func (s *Session) acceptAction(a *actions.Action) (Effect, error) {
	if err := actions.Validate(a); err != nil {
		if errors.Is(err, actions.ErrMalformedPayload) {
			return nil, s.fail(protocol.NewDataError(s.id, "malformed action", err))
		}
		return nil, s.fail(protocol.NewProtocolViolation(s.id, "action rejected", err))
	}

	log.Debug().
		Str("session_id", s.id).
		Uint32("index", s.processed).
		Str("account", codec.NameToString(a.Common.Account)).
		Str("name", codec.NameToString(a.Common.Name)).
		Str("kind", a.Payload.Kind().String()).
		Msg("Received action")

	a.Common.Encode(s.digest.Writer)
	s.current = a

	switch p := a.Payload.(type) {
	case *actions.Unknown:
		recordUnknownPayload(p.DataSize)
		s.unknown = NewUnknownReader(s.digest.h, p.DataSize)
		return s.feedUnknown(p.DataChunk)
	case actions.KnownPayload:
		data, err := actions.EncodeData(p)
		if err != nil {
			return nil, s.fail(protocol.NewDataError(s.id, "failed to encode action", err))
		}
		review, err := p.Review(a.Common)
		if err != nil {
			return nil, s.fail(protocol.NewDataError(s.id, "failed to render action", err))
		}
		s.currentData = data
		s.pending = pendingActionConfirm
		return RequestConfirm{Review: review}, nil
	default:
		return nil, s.fail(protocol.NewProtocolViolation(s.id, "unsupported action payload", nil))
	}
}

func (s *Session) acceptChunk(a *actions.Action) (Effect, error) {
	if a == nil {
		return nil, s.fail(protocol.NewProtocolViolation(s.id, "expected unknown action chunk", nil))
	}
	chunk, ok := a.Payload.(*actions.Unknown)
	if !ok || chunk == nil {
		return nil, s.fail(protocol.NewProtocolViolation(s.id, "expected unknown action chunk", nil))
	}
	return s.feedUnknown(chunk.DataChunk)
}

func (s *Session) feedUnknown(chunk []byte) (Effect, error) {
	if err := s.unknown.Feed(chunk); err != nil {
		if errors.Is(err, ErrUnknownOverflow) {
			return nil, s.fail(protocol.NewBufferOverflow(s.id, s.unknown.Declared(), s.unknown.Received()))
		}
		return nil, s.fail(err)
	}

	if !s.unknown.Done() {
		s.pending = pendingChunk
		return RequestAction{RemainingBytesHint: s.unknown.Remaining()}, nil
	}

	s.pending = pendingUnknownConfirm
	review := actions.UnknownReview(s.current.Common, s.unknown.Declared(), s.unknown.Checksum())
	return RequestConfirm{Review: review}, nil
}

func (s *Session) nextAction() (Effect, error) {
	s.processed++
	if s.processed < s.req.NumActions {
		s.pending = pendingAction
		return RequestAction{}, nil
	}
	return s.finalize()
}

func (s *Session) finalize() (Effect, error) {
	s.transition(StateFinalizing)
	s.digest.WriteVarint32(0)
	s.digest.WriteBytes(make([]byte, 32))
	if err := s.digest.Err(); err != nil {
		return nil, s.fail(err)
	}

	s.transition(StateSigning)
	sig, err := SignCanonical(s.privKey, s.digest.Digest())
	if err != nil {
		return nil, s.fail(errors.Wrap(err, "failed to sign transaction"))
	}

	s.transition(StateDone)
	s.teardown()
	return Completed{Signature: sig}, nil
}

// Digest 当前累计摘要，仅用于诊断
func (s *Session) Digest() []byte {
	if s.digest == nil {
		return nil
	}
	return s.digest.Digest()
}

func (s *Session) fail(err error) error {
	log.Warn().
		Err(err).
		Str("session_id", s.id).
		Str("state", s.state.String()).
		Msg("Signing session aborted")

	s.transition(StateAborted)
	s.teardown()
	return err
}

func (s *Session) teardown() {
	if s.tornDown {
		return
	}
	s.tornDown = true

	for i := range s.privKey {
		s.privKey[i] = 0
	}
	s.privKey = nil
	s.current, s.currentData, s.unknown = nil, nil, nil
	s.pending = pendingNone
	if s.keychain != nil {
		s.keychain.Close()
	}
}

func (s *Session) transition(next State) {
	log.Debug().
		Str("session_id", s.id).
		Str("from", s.state.String()).
		Str("to", next.String()).
		Msg("Signing session transition")
	s.state = next
}

func rejectionSubject(p pending) string {
	switch p {
	case pendingPathConfirm:
		return "address path"
	case pendingTxConfirm:
		return "transaction"
	default:
		return "action"
	}
}
