package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKeyPrefix = "eos:"

// RedisStore Redis存储实现
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 创建Redis存储实例
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) deviceKey(deviceID string) string {
	return s.prefix + "device:" + deviceID
}

func (s *RedisStore) lockKey(deviceID string) string {
	return s.prefix + "lock:" + deviceID
}

// LoadDevice 读取设备状态
func (s *RedisStore) LoadDevice(ctx context.Context, deviceID string) (*DeviceState, error) {
	data, err := s.client.Get(ctx, s.deviceKey(deviceID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return &DeviceState{}, nil
		}
		return nil, errors.Wrap(err, "failed to get device")
	}

	var state DeviceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal device")
	}

	return &state, nil
}

// SaveDevice 保存设备状态
func (s *RedisStore) SaveDevice(ctx context.Context, deviceID string, state *DeviceState) error {
	if state == nil {
		return errors.New("device state is nil")
	}

	stored := *state
	stored.UpdatedAt = time.Now()
	data, err := json.Marshal(&stored)
	if err != nil {
		return errors.Wrap(err, "failed to marshal device")
	}

	if err := s.client.Set(ctx, s.deviceKey(deviceID), data, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to save device")
	}

	return nil
}

// WipeDevice 擦除设备
func (s *RedisStore) WipeDevice(ctx context.Context, deviceID string) error {
	if err := s.client.Del(ctx, s.deviceKey(deviceID)).Err(); err != nil {
		return errors.Wrap(err, "failed to wipe device")
	}
	return nil
}

// AcquireLock 获取分布式锁
func (s *RedisStore) AcquireLock(ctx context.Context, deviceID string, ttl time.Duration) (bool, error) {
	result, err := s.client.SetNX(ctx, s.lockKey(deviceID), "1", ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to acquire lock")
	}
	return result, nil
}

// RefreshLock 重置锁的过期时间，键已过期时返回 false
func (s *RedisStore) RefreshLock(ctx context.Context, deviceID string, ttl time.Duration) (bool, error) {
	result, err := s.client.Expire(ctx, s.lockKey(deviceID), ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to refresh lock")
	}
	return result, nil
}

// ReleaseLock 释放分布式锁
func (s *RedisStore) ReleaseLock(ctx context.Context, deviceID string) error {
	if err := s.client.Del(ctx, s.lockKey(deviceID)).Err(); err != nil {
		return errors.Wrap(err, "failed to release lock")
	}
	return nil
}
