package cache

import (
	"fmt"

	"github.com/sklad/pos/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReplayStoreFactory creates replay stores based on configuration
type ReplayStoreFactory struct {
	cfg                   config.IdempotencyConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ReplayStoreFactoryOption is a functional option for configuring the factory
type ReplayStoreFactoryOption func(*ReplayStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReplayStoreFactoryOption {
	return func(f *ReplayStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ReplayStoreFactoryOption {
	return func(f *ReplayStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewReplayStoreFactory creates a new factory
func NewReplayStoreFactory(cfg config.IdempotencyConfig, redisCfg config.RedisConfig, opts ...ReplayStoreFactoryOption) *ReplayStoreFactory {
	f := &ReplayStoreFactory{
		cfg:                   cfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore creates the store named by the configured driver. A Redis
// store that cannot connect falls back to memory when fallback is allowed.
func (f *ReplayStoreFactory) CreateStore() (ReplayStore, error) {
	switch f.cfg.Driver {
	case config.CacheDriverMemory:
		return NewInMemoryReplayStore(), nil
	case config.CacheDriverRedis:
	default:
		return nil, fmt.Errorf("unsupported idempotency driver %q", f.cfg.Driver)
	}

	store, err := NewRedisReplayStore(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis idempotency store",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port),
		)
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
		"Tills sharing this API will not see each other's replays.",
		zap.Error(err),
	)
	return NewInMemoryReplayStore(), nil
}
