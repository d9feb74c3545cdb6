package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kashguard/go-eos-signer/internal/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageFile   = "file"
)

type LoggerServer struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
}

type RedisTLSConfig struct {
	Enabled    bool
	CACertFile string `validate:"required_if=Enabled true"`
	CertFile   string
	KeyFile    string
}

type RedisConfig struct {
	Addr     string `validate:"required_if=Enabled true"`
	Password string `json:"-"`
	DB       int    `validate:"gte=0"`
	Prefix   string
	Enabled  bool
	TLS      RedisTLSConfig
}

type FileStorageConfig struct {
	BasePath      string `validate:"required_if=Enabled true"`
	EncryptionKey string `json:"-" validate:"required_if=Enabled true"`
	Enabled       bool
}

type StorageConfig struct {
	Backend string `validate:"oneof=memory redis file"`
	Redis   RedisConfig
	File    FileStorageConfig
}

// DeviceConfig 设备标识；Mnemonic 仅在 memory 后端下用于初始化
type DeviceConfig struct {
	ID                   string `validate:"required"`
	Label                string
	Mnemonic             string `json:"-"`
	PassphraseProtection bool
	Passphrase           string `json:"-"`
}

type SigningConfig struct {
	DefaultPath   string `validate:"required"`
	ChunkSize     int    `validate:"gt=0,lte=65536"`
	AutoApprove   bool
	LockTTLSecond int `validate:"gt=0"`
}

type MetricsConfig struct {
	Enabled bool
	Addr    string `validate:"required_if=Enabled true"`
}

// Signer 签名器全部配置
type Signer struct {
	Logger  LoggerServer
	Storage StorageConfig
	Device  DeviceConfig
	Signing SigningConfig
	Metrics MetricsConfig
}

// DefaultSignerConfigFromEnv 从 EOS_SIGNER_* 环境变量构造配置
// 先尝试加载 EOS_SIGNER_ENV_FILE（默认 .env）
func DefaultSignerConfigFromEnv() Signer {
	loadDotEnv()

	backend := util.GetEnvEnum("EOS_SIGNER_STORAGE", StorageMemory, []string{StorageMemory, StorageRedis, StorageFile})

	return Signer{
		Logger: LoggerServer{
			Level:              util.ParseLogLevel(util.GetEnv("EOS_SIGNER_LOGGER_LEVEL", "info"), zerolog.InfoLevel),
			PrettyPrintConsole: util.GetEnvAsBool("EOS_SIGNER_LOGGER_PRETTY_PRINT_CONSOLE", true),
		},
		Storage: StorageConfig{
			Backend: backend,
			Redis: RedisConfig{
				Addr:     util.GetEnv("EOS_SIGNER_REDIS_ADDR", "localhost:6379"),
				Password: util.GetEnv("EOS_SIGNER_REDIS_PASSWORD", ""),
				DB:       util.GetEnvAsInt("EOS_SIGNER_REDIS_DB", 0),
				Prefix:   util.GetEnv("EOS_SIGNER_REDIS_PREFIX", "eos:"),
				Enabled:  backend == StorageRedis,
				TLS: RedisTLSConfig{
					Enabled:    util.GetEnvAsBool("EOS_SIGNER_REDIS_TLS", false),
					CACertFile: util.GetEnv("EOS_SIGNER_REDIS_TLS_CA_CERT", ""),
					CertFile:   util.GetEnv("EOS_SIGNER_REDIS_TLS_CERT", ""),
					KeyFile:    util.GetEnv("EOS_SIGNER_REDIS_TLS_KEY", ""),
				},
			},
			File: FileStorageConfig{
				BasePath:      util.GetEnv("EOS_SIGNER_FILE_PATH", filepath.Join(homeDir(), ".eos-signer")),
				EncryptionKey: util.GetEnv("EOS_SIGNER_FILE_KEY", ""),
				Enabled:       backend == StorageFile,
			},
		},
		Device: DeviceConfig{
			ID:                   util.GetEnv("EOS_SIGNER_DEVICE_ID", "default"),
			Label:                util.GetEnv("EOS_SIGNER_DEVICE_LABEL", ""),
			Mnemonic:             util.GetEnv("EOS_SIGNER_MNEMONIC", ""),
			PassphraseProtection: util.GetEnvAsBool("EOS_SIGNER_PASSPHRASE_PROTECTION", false),
			Passphrase:           util.GetEnv("EOS_SIGNER_PASSPHRASE", ""),
		},
		Signing: SigningConfig{
			DefaultPath:   util.GetEnv("EOS_SIGNER_DEFAULT_PATH", "m/44'/194'/0'/0/0"),
			ChunkSize:     util.GetEnvAsInt("EOS_SIGNER_CHUNK_SIZE", 512),
			AutoApprove:   util.GetEnvAsBool("EOS_SIGNER_AUTO_APPROVE", false),
			LockTTLSecond: util.GetEnvAsInt("EOS_SIGNER_LOCK_TTL_SECONDS", 600),
		},
		Metrics: MetricsConfig{
			Enabled: util.GetEnvAsBool("EOS_SIGNER_METRICS_ENABLED", false),
			Addr:    util.GetEnv("EOS_SIGNER_METRICS_ADDR", ":9464"),
		},
	}
}

// Validate 校验配置
func (c Signer) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid signer configuration")
	}
	return nil
}

func loadDotEnv() {
	path := util.GetEnv("EOS_SIGNER_ENV_FILE", ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to load env file")
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "."
	}
	return home
}
