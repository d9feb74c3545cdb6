package storage

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MemoryStore 进程内存储实现
type MemoryStore struct {
	mu      sync.Mutex
	devices map[string]DeviceState
	locks   map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore 创建内存存储实例
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices: make(map[string]DeviceState),
		locks:   make(map[string]time.Time),
		now:     time.Now,
	}
}

// NewMemoryStoreWithClock 使用指定时钟，便于测试锁过期
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	s := NewMemoryStore()
	if now != nil {
		s.now = now
	}
	return s
}

// LoadDevice 读取设备状态
func (s *MemoryStore) LoadDevice(_ context.Context, deviceID string) (*DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.devices[deviceID]
	if !ok {
		return &DeviceState{}, nil
	}
	return &state, nil
}

// SaveDevice 保存设备状态
func (s *MemoryStore) SaveDevice(_ context.Context, deviceID string, state *DeviceState) error {
	if state == nil {
		return errors.New("device state is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *state
	stored.UpdatedAt = s.now()
	s.devices[deviceID] = stored
	return nil
}

// WipeDevice 擦除设备
func (s *MemoryStore) WipeDevice(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.devices, deviceID)
	return nil
}

// AcquireLock 获取设备锁
func (s *MemoryStore) AcquireLock(_ context.Context, deviceID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.locks[deviceID]; ok && now.Before(expires) {
		return false, nil
	}
	s.locks[deviceID] = now.Add(ttl)
	return true, nil
}

// RefreshLock 延长未过期的设备锁
func (s *MemoryStore) RefreshLock(_ context.Context, deviceID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expires, ok := s.locks[deviceID]
	if !ok || !now.Before(expires) {
		delete(s.locks, deviceID)
		return false, nil
	}
	s.locks[deviceID] = now.Add(ttl)
	return true, nil
}

// ReleaseLock 释放设备锁
func (s *MemoryStore) ReleaseLock(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, deviceID)
	return nil
}
