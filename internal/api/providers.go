package api

import (
	"context"
	"os"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-eos-signer/internal/config"
	"github.com/kashguard/go-eos-signer/internal/host"
	"github.com/kashguard/go-eos-signer/internal/infra/key"
	"github.com/kashguard/go-eos-signer/internal/infra/session"
	"github.com/kashguard/go-eos-signer/internal/infra/signing"
	"github.com/kashguard/go-eos-signer/internal/infra/storage"
	"github.com/kashguard/go-eos-signer/internal/util/cert"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock() time2.Clock {
	return time2.DefaultClock
}

// NewRedisClient 仅在 redis 后端下创建客户端，其余后端返回 nil
func NewRedisClient(cfg config.Signer, clock time2.Clock) (*redis.Client, error) {
	if cfg.Storage.Backend != config.StorageRedis {
		return nil, nil
	}

	opts := &redis.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	}
	if tlsCfg := cfg.Storage.Redis.TLS; tlsCfg.Enabled {
		tlsConfig, err := cert.LoadClientTLSConfig(tlsCfg.CACertFile, tlsCfg.CertFile, tlsCfg.KeyFile, clock.Now())
		if err != nil {
			return nil, errors.Wrap(err, "failed to load redis TLS configuration")
		}
		opts.TLSConfig = tlsConfig
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return client, nil
}

// NewDeviceStore 按配置选择设备存储后端
// memory 后端在配置了助记词时直接写入已初始化的设备
func NewDeviceStore(cfg config.Signer, client *redis.Client, clock time2.Clock) (storage.DeviceStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageRedis:
		if client == nil {
			return nil, errors.New("redis backend selected but no redis client available")
		}
		return storage.NewRedisStore(client, cfg.Storage.Redis.Prefix), nil
	case config.StorageFile:
		store, err := storage.NewFileSystemStore(cfg.Storage.File.BasePath, cfg.Storage.File.EncryptionKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open file store")
		}
		return store, nil
	case config.StorageMemory, "":
		store := storage.NewMemoryStoreWithClock(clock.Now)
		if cfg.Device.Mnemonic == "" {
			return store, nil
		}
		err := store.SaveDevice(context.Background(), cfg.Device.ID, &storage.DeviceState{
			Initialized:          true,
			Label:                cfg.Device.Label,
			Mnemonic:             cfg.Device.Mnemonic,
			PassphraseProtection: cfg.Device.PassphraseProtection,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to seed memory store")
		}
		log.Debug().Str("device_id", cfg.Device.ID).Msg("Memory store seeded from configuration")
		return store, nil
	default:
		return nil, errors.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// NewPassphrasePrompt 配置了口令时使用固定口令，否则从终端读取
func NewPassphrasePrompt(cfg config.Signer) key.PassphrasePrompt {
	if cfg.Device.Passphrase != "" {
		return host.StaticPassphrase(cfg.Device.Passphrase)
	}
	return host.NewTerminalPrompt(os.Stdin, os.Stderr)
}

func NewSeedProvider(
	cfg config.Signer,
	store storage.DeviceStore,
	cache *session.SecretCache,
	prompt key.PassphrasePrompt,
	deriver key.Deriver,
) *key.SeedProvider {
	return key.NewSeedProvider(store, cfg.Device.ID, cache, prompt, deriver)
}

func NewSigningService(
	cfg config.Signer,
	seeds *key.SeedProvider,
	store storage.DeviceStore,
	derivation *key.DerivationService,
) *signing.Service {
	opts := signing.DefaultOptions()
	opts.Derivation = derivation
	opts.LockTTL = time.Duration(cfg.Signing.LockTTLSecond) * time.Second
	return signing.NewService(seeds, store, cfg.Device.ID, opts)
}
