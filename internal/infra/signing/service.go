package signing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kashguard/go-eos-signer/internal/eos/actions"
	"github.com/kashguard/go-eos-signer/internal/eos/codec"
	"github.com/kashguard/go-eos-signer/internal/infra/key"
	"github.com/kashguard/go-eos-signer/internal/infra/protocol"
	"github.com/kashguard/go-eos-signer/internal/infra/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	outcomeSigned   = "signed"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"

	defaultLockTTL = 10 * time.Minute
)

// Host 宿主端：按请求返回下一个动作或未知动作分片
type Host interface {
	RequestAction(ctx context.Context, req RequestAction) (*actions.Action, error)
}

// Confirmer 用户确认界面
type Confirmer interface {
	Confirm(ctx context.Context, review actions.Review) (bool, error)
}

// PublicKeyResult GetPublicKey 的结果
type PublicKeyResult struct {
	Path      string
	PublicKey string
	Raw       []byte
}

// Service 签名服务，负责设备锁、密钥链获取并驱动会话状态机
type Service struct {
	seeds    *key.SeedProvider
	store    storage.DeviceStore
	deviceID string
	opts     Options
	lockTTL  time.Duration
}

// NewService 创建签名服务
func NewService(seeds *key.SeedProvider, store storage.DeviceStore, deviceID string, opts Options) *Service {
	if opts.Derivation == nil {
		opts.Derivation = key.NewDerivationService()
	}
	lockTTL := opts.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Service{
		seeds:    seeds,
		store:    store,
		deviceID: deviceID,
		opts:     opts,
		lockTTL:  lockTTL,
	}
}

// SignTx 对交易签名
// host 与 confirmer 的调用严格串行，任一错误都会终止会话
func (s *Service) SignTx(ctx context.Context, req *SignRequest, host Host, confirmer Confirmer) (*Signature, error) {
	started := time.Now()
	sessionID := uuid.New().String()

	sig, err := s.signTx(ctx, sessionID, req, host, confirmer)
	switch {
	case err == nil:
		recordSession(outcomeSigned, started)
		log.Info().
			Str("session_id", sessionID).
			Str("signature", sig.String()).
			Dur("elapsed", time.Since(started)).
			Msg("Transaction signed")
	case protocol.IsType(err, protocol.ErrTypeUserRejected):
		recordSession(outcomeRejected, started)
		log.Info().Str("session_id", sessionID).Msg("Transaction rejected by user")
	default:
		recordSession(outcomeFailed, started)
		log.Error().
			Err(err).
			Str("session_id", sessionID).
			Str("error_type", protocol.TypeOf(err).String()).
			Msg("Transaction signing failed")
	}
	return sig, err
}

func (s *Service) signTx(ctx context.Context, sessionID string, req *SignRequest, host Host, confirmer Confirmer) (*Signature, error) {
	lock, err := s.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	keychain, err := s.seeds.GetKeychain(ctx, key.EOSNamespaces())
	if err != nil {
		return nil, attachSession(err, sessionID)
	}

	session := NewSession(sessionID, keychain, s.opts)
	defer session.Close()

	log.Info().
		Str("session_id", sessionID).
		Str("device_id", s.deviceID).
		Msg("Signing session started")

	effect, err := session.Start(req)
	for err == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(ctxErr, "signing session cancelled")
		}

		switch e := effect.(type) {
		case RequestAction:
			var a *actions.Action
			a, err = host.RequestAction(ctx, e)
			if err != nil {
				return nil, errors.Wrap(err, "failed to receive action from host")
			}
			if err = lock.refresh(ctx); err != nil {
				return nil, err
			}
			effect, err = session.OnAction(a)
		case RequestConfirm:
			var accepted bool
			accepted, err = confirmer.Confirm(ctx, e.Review)
			if err != nil {
				return nil, errors.Wrap(err, "failed to obtain confirmation")
			}
			if err = lock.refresh(ctx); err != nil {
				return nil, err
			}
			effect, err = session.OnConfirm(accepted)
		case Completed:
			sig := e.Signature
			return &sig, nil
		default:
			return nil, errors.Errorf("unexpected effect %T", effect)
		}
	}
	return nil, err
}

// GetPublicKey 派生 path 对应的公钥；show 为 true 时在设备上展示并要求确认
func (s *Service) GetPublicKey(ctx context.Context, path []uint32, show bool, confirmer Confirmer) (*PublicKeyResult, error) {
	formatted := key.FormatDerivationPath(path)

	if !s.opts.Derivation.ValidateEOSPath(path) {
		if confirmer == nil {
			return nil, protocol.NewDataError("", "non-standard derivation path "+formatted, nil)
		}
		accepted, err := confirmer.Confirm(ctx, actions.Review{
			Title:  "Wrong address path",
			Fields: []actions.Field{{Label: "Path", Value: formatted}},
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to obtain confirmation")
		}
		if !accepted {
			return nil, protocol.NewUserRejected("", "address path")
		}
	}

	keychain, err := s.seeds.GetKeychain(ctx, key.EOSNamespaces())
	if err != nil {
		return nil, err
	}
	defer keychain.Close()

	node, err := keychain.Derive(path, s.opts.Curve)
	if err != nil {
		if errors.Is(err, key.ErrForbiddenPath) {
			return nil, protocol.NewDataError("", "forbidden key path", err)
		}
		return nil, errors.Wrap(err, "failed to derive public key")
	}
	raw, err := node.PublicKey()
	node.Zero()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read public key")
	}

	pubKey, err := codec.PublicKeyToString(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode public key")
	}

	if show && confirmer != nil {
		accepted, err := confirmer.Confirm(ctx, actions.Review{
			Title: "Public key",
			Fields: []actions.Field{
				{Label: "Path", Value: formatted},
				{Label: "Key", Value: pubKey},
			},
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to obtain confirmation")
		}
		if !accepted {
			return nil, protocol.NewUserRejected("", "public key")
		}
	}

	log.Debug().Str("path", formatted).Str("public_key", pubKey).Msg("Public key derived")

	return &PublicKeyResult{Path: formatted, PublicKey: pubKey, Raw: raw}, nil
}

// deviceLock 会话持有的设备锁
// 锁不带持有者标识，ttl 限定的是单次挂起（等待宿主或用户）的最长时间，每次恢复时续期
type deviceLock struct {
	store     storage.DeviceStore
	deviceID  string
	sessionID string
	ttl       time.Duration
	held      bool
}

func (s *Service) lock(ctx context.Context, sessionID string) (*deviceLock, error) {
	acquired, err := s.store.AcquireLock(ctx, s.deviceID, s.lockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire device lock")
	}
	if !acquired {
		return nil, protocol.NewDeviceStateError(sessionID, storage.ErrLockHeld.Error())
	}

	return &deviceLock{
		store:     s.store,
		deviceID:  s.deviceID,
		sessionID: sessionID,
		ttl:       s.lockTTL,
		held:      true,
	}, nil
}

// refresh 在挂起返回后续期，锁已过期时会话作废
func (l *deviceLock) refresh(ctx context.Context) error {
	ok, err := l.store.RefreshLock(ctx, l.deviceID, l.ttl)
	if err != nil {
		return errors.Wrap(err, "failed to refresh device lock")
	}
	if !ok {
		// 过期的锁可能已被其他会话取得，不能再释放
		l.held = false
		return protocol.NewDeviceStateError(l.sessionID, "device lock expired")
	}
	return nil
}

func (l *deviceLock) release() {
	if !l.held {
		return
	}
	l.held = false
	if err := l.store.ReleaseLock(context.Background(), l.deviceID); err != nil {
		log.Warn().Err(err).Str("session_id", l.sessionID).Msg("Failed to release device lock")
	}
}

func attachSession(err error, sessionID string) error {
	var pe *protocol.ProtocolError
	if errors.As(err, &pe) && pe.SessionID == "" {
		pe.SessionID = sessionID
	}
	return err
}
