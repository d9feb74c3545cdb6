package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FileSystemStore 文件系统设备存储实现，设备状态整体加密落盘
type FileSystemStore struct {
	basePath string
	box      *sealer
}

// NewFileSystemStore 创建文件系统存储实例
func NewFileSystemStore(basePath string, encryptionKey string) (*FileSystemStore, error) {
	box, err := newSealer(encryptionKey)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create base path")
	}
	return &FileSystemStore{basePath: basePath, box: box}, nil
}

func (s *FileSystemStore) devicePath(deviceID string) string {
	return filepath.Join(s.basePath, deviceID+".enc")
}

func (s *FileSystemStore) lockPath(deviceID string) string {
	return filepath.Join(s.basePath, deviceID+".lock")
}

// LoadDevice 读取并解密设备状态
func (s *FileSystemStore) LoadDevice(_ context.Context, deviceID string) (*DeviceState, error) {
	encrypted, err := os.ReadFile(s.devicePath(deviceID))
	if err != nil {
		if os.IsNotExist(err) {
			return &DeviceState{}, nil
		}
		return nil, errors.Wrap(err, "failed to read device file")
	}

	plaintext, err := s.box.open(encrypted, []byte(deviceID))
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("Failed to decrypt device file")
		return nil, errors.Wrap(err, "failed to decrypt device file")
	}

	var state DeviceState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal device")
	}
	return &state, nil
}

// SaveDevice 加密保存设备状态
func (s *FileSystemStore) SaveDevice(_ context.Context, deviceID string, state *DeviceState) error {
	if state == nil {
		return errors.New("device state is nil")
	}

	stored := *state
	stored.UpdatedAt = time.Now()
	plaintext, err := json.Marshal(&stored)
	if err != nil {
		return errors.Wrap(err, "failed to marshal device")
	}

	encrypted, err := s.box.seal(plaintext, []byte(deviceID))
	if err != nil {
		return errors.Wrap(err, "failed to encrypt device")
	}

	// 写入文件（使用临时文件然后原子重命名）
	filePath := s.devicePath(deviceID)
	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, encrypted, 0600); err != nil {
		return errors.Wrap(err, "failed to write device file")
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return errors.Wrap(err, "failed to rename temp file")
	}

	return nil
}

// WipeDevice 删除设备文件
func (s *FileSystemStore) WipeDevice(_ context.Context, deviceID string) error {
	if err := os.Remove(s.devicePath(deviceID)); err != nil {
		if os.IsNotExist(err) {
			return nil // 文件不存在，认为已擦除
		}
		return errors.Wrap(err, "failed to wipe device")
	}
	return nil
}

// AcquireLock 以独占创建锁文件的方式加锁，过期锁会被接管
func (s *FileSystemStore) AcquireLock(_ context.Context, deviceID string, ttl time.Duration) (bool, error) {
	path := s.lockPath(deviceID)

	if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) > ttl {
		log.Warn().Str("device_id", deviceID).Msg("Taking over expired device lock")
		_ = os.Remove(path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to acquire lock")
	}
	return true, f.Close()
}

// RefreshLock 更新锁文件的修改时间
func (s *FileSystemStore) RefreshLock(_ context.Context, deviceID string, ttl time.Duration) (bool, error) {
	path := s.lockPath(deviceID)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to stat lock")
	}
	if time.Since(info.ModTime()) > ttl {
		return false, nil
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return false, errors.Wrap(err, "failed to refresh lock")
	}
	return true, nil
}

// ReleaseLock 删除锁文件
func (s *FileSystemStore) ReleaseLock(_ context.Context, deviceID string) error {
	if err := os.Remove(s.lockPath(deviceID)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to release lock")
	}
	return nil
}
