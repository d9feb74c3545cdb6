package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-eos-signer/internal/config"
	"github.com/kashguard/go-eos-signer/internal/infra/key"
	"github.com/kashguard/go-eos-signer/internal/infra/protocol"
	"github.com/kashguard/go-eos-signer/internal/infra/session"
	"github.com/kashguard/go-eos-signer/internal/infra/signing"
	"github.com/kashguard/go-eos-signer/internal/infra/storage"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var validMnemonicLengths = map[int]bool{12: true, 15: true, 18: true, 21: true, 24: true}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` will be skipped and have to be initialized after the InitNewServer* call.
type Server struct {
	// skip wire:
	// -> initialized with StartMetrics
	metricsServer *http.Server `wire:"-"`

	Config     config.Signer
	Clock      time2.Clock
	Redis      *redis.Client // nil unless the redis backend is used
	Store      storage.DeviceStore
	Cache      *session.SecretCache
	Seeds      *key.SeedProvider
	Derivation *key.DerivationService
	Signing    *signing.Service
}

// newServerWithComponents is used by wire to initialize the server components.
func newServerWithComponents(
	cfg config.Signer,
	clock time2.Clock,
	redisClient *redis.Client,
	store storage.DeviceStore,
	cache *session.SecretCache,
	seeds *key.SeedProvider,
	derivation *key.DerivationService,
	signingService *signing.Service,
) *Server {
	return &Server{
		Config:     cfg,
		Clock:      clock,
		Redis:      redisClient,
		Store:      store,
		Cache:      cache,
		Seeds:      seeds,
		Derivation: derivation,
		Signing:    signingService,
	}
}

func (s *Server) Ready() bool {
	if s.Store == nil || s.Cache == nil || s.Seeds == nil || s.Signing == nil || s.Derivation == nil {
		log.Debug().Msg("Server is not fully initialized")
		return false
	}
	return true
}

// StartMetrics 在后台暴露 /metrics
func (s *Server) StartMetrics() {
	if !s.Config.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s.metricsServer = &http.Server{
		Addr:              s.Config.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", s.Config.Metrics.Addr).Msg("Metrics server failed")
		}
	}()
	log.Info().Str("addr", s.Config.Metrics.Addr).Msg("Metrics server started in background")
}

// InitDevice 写入助记词并标记设备已初始化
func (s *Server) InitDevice(ctx context.Context, mnemonic string, label string, passphraseProtection bool) error {
	words := strings.Fields(mnemonic)
	if !validMnemonicLengths[len(words)] {
		return protocol.NewDataError("", "mnemonic must have 12, 15, 18, 21 or 24 words", nil)
	}

	state, err := s.Store.LoadDevice(ctx, s.Config.Device.ID)
	if err != nil {
		return errors.Wrap(err, "failed to load device")
	}
	if state.Initialized {
		return protocol.NewDeviceStateError("", "device is already initialized")
	}

	err = s.Store.SaveDevice(ctx, s.Config.Device.ID, &storage.DeviceState{
		Initialized:          true,
		Label:                label,
		Mnemonic:             strings.Join(words, " "),
		PassphraseProtection: passphraseProtection,
		UpdatedAt:            s.Clock.Now(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to save device")
	}

	log.Info().Str("device_id", s.Config.Device.ID).Str("label", label).Msg("Device initialized")
	return nil
}

// WipeDevice 擦除设备并清空缓存
func (s *Server) WipeDevice(ctx context.Context) error {
	s.Cache.Invalidate(session.InvalidationWipe)
	if err := s.Store.WipeDevice(ctx, s.Config.Device.ID); err != nil {
		return errors.Wrap(err, "failed to wipe device")
	}
	log.Warn().Str("device_id", s.Config.Device.ID).Msg("Device wiped")
	return nil
}

// LockDevice 清空口令与种子缓存并释放会话锁
func (s *Server) LockDevice(ctx context.Context) error {
	s.Cache.Invalidate(session.InvalidationLock)
	if err := s.Store.ReleaseLock(ctx, s.Config.Device.ID); err != nil {
		return errors.Wrap(err, "failed to release device lock")
	}
	log.Info().Str("device_id", s.Config.Device.ID).Msg("Device locked")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Debug().Msg("Shutting down server")

	var errs []error

	s.Cache.Invalidate(session.InvalidationLock)

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown metrics server")
			errs = append(errs, err)
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
			errs = append(errs, err)
		}
	}

	return errs
}
