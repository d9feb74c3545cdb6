package session

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SecretCache 设备解锁周期内的口令与种子缓存
// 每个解锁周期最多写入一次，锁定或擦除设备时失效
type SecretCache struct {
	mu            sync.Mutex
	passphrase    string
	hasPassphrase bool
	seed          []byte
}

var (
	metricsOnce        sync.Once
	invalidationsTotal *prometheus.CounterVec
)

// NewSecretCache 创建缓存
func NewSecretCache() *SecretCache {
	ensureCacheMetrics()
	return &SecretCache{}
}

// Passphrase 读取已缓存的口令
func (c *SecretCache) Passphrase() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passphrase, c.hasPassphrase
}

// SetPassphrase 首次写入口令，已有值时忽略
func (c *SecretCache) SetPassphrase(passphrase string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasPassphrase {
		return
	}
	c.passphrase = passphrase
	c.hasPassphrase = true
}

// Seed 返回种子副本，调用方负责清零
func (c *SecretCache) Seed() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seed == nil {
		return nil, false
	}
	return append([]byte(nil), c.seed...), true
}

// SetSeed 首次写入种子，已有值时忽略
func (c *SecretCache) SetSeed(seed []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seed != nil {
		return
	}
	c.seed = append([]byte(nil), seed...)
}

// Invalidate 清零种子并丢弃口令
func (c *SecretCache) Invalidate(reason InvalidationReason) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.seed {
		c.seed[i] = 0
	}
	c.seed = nil
	c.passphrase = ""
	c.hasPassphrase = false

	ensureCacheMetrics()
	invalidationsTotal.WithLabelValues(string(reason)).Inc()
}

func ensureCacheMetrics() {
	metricsOnce.Do(func() {
		invalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eos_signer",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Seed cache invalidations by reason",
		}, []string{"reason"})
	})
}
