package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrLockHeld 设备已被其他会话占用
var ErrLockHeld = errors.New("device is locked by another session")

// DeviceState 设备持久化状态
type DeviceState struct {
	Initialized          bool      `json:"initialized"`
	Label                string    `json:"label,omitempty"`
	Mnemonic             string    `json:"mnemonic,omitempty"`
	PassphraseProtection bool      `json:"passphrase_protection"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DeviceStore 设备存储接口
// 未初始化或已擦除的设备返回 Initialized=false 的状态而非错误
type DeviceStore interface {
	LoadDevice(ctx context.Context, deviceID string) (*DeviceState, error)
	SaveDevice(ctx context.Context, deviceID string, state *DeviceState) error
	WipeDevice(ctx context.Context, deviceID string) error

	// 同一设备同一时刻只允许一个签名会话
	AcquireLock(ctx context.Context, deviceID string, ttl time.Duration) (bool, error)
	// RefreshLock 将仍被持有的锁延长 ttl；锁已过期或不存在时返回 false
	RefreshLock(ctx context.Context, deviceID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, deviceID string) error
}
