package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/datapadi/web/internal/domain/printing"
	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/datapadi/web/internal/infrastructure/auth"
	"github.com/datapadi/web/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the short-lived state the web service keeps outside the backend
type Stores struct {
	ExportFlag   printing.ExportFlag
	PaymentGuard purchase.PaymentGuard
	Sessions     purchase.SessionStore
	Blacklist    auth.TokenBlacklist
	// Distributed is true when the stores are shared through Redis
	Distributed bool

	closers []func() error
}

// Close releases the Redis client or stops the in-memory sweepers
func (s *Stores) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Factory creates stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	sessionTTL            time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithSessionTTL sets the flow session TTL
func WithSessionTTL(ttl time.Duration) FactoryOption {
	return func(f *Factory) {
		f.sessionTTL = ttl
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		sessionTTL:            DefaultFlowSessionTTL,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CreateRedisStores creates Redis-backed stores sharing one client
func (f *Factory) CreateRedisStores(ctx context.Context) (*Stores, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		return nil, err
	}
	return NewRedisStores(client, f.sessionTTL), nil
}

// NewRedisStores wraps an existing client
func NewRedisStores(client redis.UniversalClient, sessionTTL time.Duration) *Stores {
	return &Stores{
		ExportFlag:   NewRedisExportFlag(client),
		PaymentGuard: NewRedisPaymentGuard(client),
		Sessions:     NewRedisSessionStore(client, sessionTTL),
		Blacklist:    auth.NewRedisTokenBlacklist(client),
		Distributed:  true,
		closers:      []func() error{client.Close},
	}
}

// CreateInMemoryStores creates process-local stores.
// They do not share state across instances.
func (f *Factory) CreateInMemoryStores() *Stores {
	flag := NewInMemoryExportFlag()
	guard := NewInMemoryPaymentGuard()
	sessions := NewInMemorySessionStore(f.sessionTTL)
	blacklist := auth.NewInMemoryTokenBlacklist()
	return &Stores{
		ExportFlag:   flag,
		PaymentGuard: guard,
		Sessions:     sessions,
		Blacklist:    blacklist,
		closers:      []func() error{flag.Close, guard.Close, sessions.Close},
	}
}

// CreateStores prefers Redis and falls back to in-memory stores when Redis
// is disabled or unreachable and the fallback is allowed
func (f *Factory) CreateStores(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory stores")
		return f.CreateInMemoryStores(), nil
	}

	stores, err := f.CreateRedisStores(ctx)
	if err == nil {
		f.logger.Info("using Redis stores",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return stores, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Export flags and flow sessions will not be shared between instances.",
		zap.Error(err))
	return f.CreateInMemoryStores(), nil
}
