package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kashguard/go-eos-signer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSignerEnv(t *testing.T) {
	t.Setenv("EOS_SIGNER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg := config.DefaultSignerConfigFromEnv()
	_, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestSignerConfigFromEnv(t *testing.T) {
	t.Setenv("EOS_SIGNER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("EOS_SIGNER_STORAGE", "redis")
	t.Setenv("EOS_SIGNER_REDIS_ADDR", "redis:6379")
	t.Setenv("EOS_SIGNER_CHUNK_SIZE", "128")

	cfg := config.DefaultSignerConfigFromEnv()
	assert.Equal(t, config.StorageRedis, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 128, cfg.Signing.ChunkSize)
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Redis.TLS.Enabled = true
	assert.Error(t, cfg.Validate())

	cfg.Storage.Redis.TLS.CACertFile = "/etc/ssl/redis-ca.crt"
	assert.NoError(t, cfg.Validate())
}

func TestSignerConfigValidation(t *testing.T) {
	t.Setenv("EOS_SIGNER_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("EOS_SIGNER_STORAGE", "file")
	t.Setenv("EOS_SIGNER_FILE_KEY", "")

	cfg := config.DefaultSignerConfigFromEnv()
	assert.Error(t, cfg.Validate())

	cfg.Storage.File.EncryptionKey = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Signing.ChunkSize = 0
	assert.Error(t, cfg.Validate())
}

func TestSignerConfigDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signer.env")
	require.NoError(t, os.WriteFile(path, []byte("EOS_SIGNER_DEVICE_LABEL=from-dotenv\n"), 0o600))
	t.Setenv("EOS_SIGNER_ENV_FILE", path)
	t.Setenv("EOS_SIGNER_DEVICE_LABEL", "")
	os.Unsetenv("EOS_SIGNER_DEVICE_LABEL")

	cfg := config.DefaultSignerConfigFromEnv()
	assert.Equal(t, "from-dotenv", cfg.Device.Label)
}
