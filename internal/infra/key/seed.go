package key

import (
	"context"
	"crypto/sha512"
	"strings"

	"github.com/kashguard/go-eos-signer/internal/infra/protocol"
	"github.com/kashguard/go-eos-signer/internal/infra/session"
	"github.com/kashguard/go-eos-signer/internal/infra/storage"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	bip39Rounds  = 2048
	bip39SeedLen = 64
)

// PassphrasePrompt 口令输入
type PassphrasePrompt interface {
	Passphrase(ctx context.Context) (string, error)
}

// SeedProvider 从设备存储、缓存与口令构造密钥链
type SeedProvider struct {
	store    storage.DeviceStore
	deviceID string
	cache    *session.SecretCache
	prompt   PassphrasePrompt
	deriver  Deriver
}

// NewSeedProvider 创建种子提供者
func NewSeedProvider(store storage.DeviceStore, deviceID string, cache *session.SecretCache, prompt PassphrasePrompt, deriver Deriver) *SeedProvider {
	return &SeedProvider{
		store:    store,
		deviceID: deviceID,
		cache:    cache,
		prompt:   prompt,
		deriver:  deriver,
	}
}

// GetKeychain 检查设备状态后返回受 namespaces 约束的密钥链
func (p *SeedProvider) GetKeychain(ctx context.Context, namespaces []Namespace) (*Keychain, error) {
	seed, err := p.seed(ctx)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(seed)

	return NewKeychain(p.deriver, seed, namespaces), nil
}

func (p *SeedProvider) seed(ctx context.Context) ([]byte, error) {
	state, err := p.store.LoadDevice(ctx, p.deviceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load device")
	}
	if !state.Initialized || state.Mnemonic == "" {
		return nil, protocol.NewDeviceStateError("", "device is not initialized")
	}

	if seed, ok := p.cache.Seed(); ok {
		return seed, nil
	}

	passphrase := ""
	if state.PassphraseProtection {
		cached, ok := p.cache.Passphrase()
		if ok {
			passphrase = cached
		} else {
			if p.prompt == nil {
				return nil, protocol.NewDeviceStateError("", "passphrase required but no prompt available")
			}
			passphrase, err = p.prompt.Passphrase(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "failed to read passphrase")
			}
			p.cache.SetPassphrase(passphrase)
		}
	}

	seed := MnemonicToSeed(state.Mnemonic, passphrase)
	p.cache.SetSeed(seed)
	return seed, nil
}

// MnemonicToSeed BIP-39: PBKDF2-HMAC-SHA512(mnemonic, "mnemonic"+passphrase, 2048)
func MnemonicToSeed(mnemonic string, passphrase string) []byte {
	words := strings.Join(strings.Fields(mnemonic), " ")
	return pbkdf2.Key([]byte(words), []byte("mnemonic"+passphrase), bip39Rounds, bip39SeedLen, sha512.New)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
