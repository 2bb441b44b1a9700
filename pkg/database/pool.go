package database

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DatabasePool keeps one RecordStore alive across warm invocations.
type DatabasePool struct {
	instance RecordStore
	config   DatabaseConfig
	mu       sync.RWMutex
	lastUsed time.Time
}

const poolMaxIdle = 30 * time.Minute

var (
	globalPool *DatabasePool
	poolMutex  sync.Mutex
)

// GetDatabase 获取数据库连接（单例模式 + 连接池）
func GetDatabase(ctx context.Context, config DatabaseConfig) (RecordStore, error) {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	if globalPool != nil && !shouldRecreateConnection(ctx, globalPool, config) {
		globalPool.mu.Lock()
		globalPool.lastUsed = time.Now()
		globalPool.mu.Unlock()

		log.Debug().Msg("reusing existing record store")
		return globalPool.instance, nil
	}

	// 关闭旧连接（如果存在）
	if globalPool != nil && globalPool.instance != nil {
		_ = globalPool.instance.Close()
	}
	globalPool = nil

	instance, err := NewDatabase(ctx, config)
	if err != nil {
		return nil, err
	}
	globalPool = &DatabasePool{
		instance: instance,
		config:   config,
		lastUsed: time.Now(),
	}
	return instance, nil
}

// shouldRecreateConnection 判断是否需要重新创建连接
func shouldRecreateConnection(ctx context.Context, pool *DatabasePool, newConfig DatabaseConfig) bool {
	if pool == nil || pool.instance == nil {
		return true
	}

	if pool.config != newConfig {
		log.Info().Msg("record store configuration changed, recreating")
		return true
	}

	pool.mu.RLock()
	expired := time.Since(pool.lastUsed) > poolMaxIdle
	pool.mu.RUnlock()

	if expired {
		log.Info().Msg("record store connection expired, recreating")
		return true
	}

	if err := pool.instance.HealthCheck(ctx); err != nil {
		log.Warn().Err(err).Msg("record store health check failed, recreating")
		return true
	}

	return false
}
