package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/datapadi/web/internal/domain/printing"
	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	exportFlagPrefix   = "datapadi:export:busy:"
	paymentGuardPrefix = "datapadi:flow:paying:"
)

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is a SETNX lease keyed by an ID. Every instance sees the
// same lease, and only the token holder can release it.
type RedisLease struct {
	client    redis.UniversalClient
	keyPrefix string
	name      string
}

// NewRedisExportFlag creates the per-owner export flag on an existing client
func NewRedisExportFlag(client redis.UniversalClient) *RedisLease {
	return &RedisLease{client: client, keyPrefix: exportFlagPrefix, name: "export flag"}
}

// NewRedisPaymentGuard creates the per-flow payment guard on an existing client
func NewRedisPaymentGuard(client redis.UniversalClient) *RedisLease {
	return &RedisLease{client: client, keyPrefix: paymentGuardPrefix, name: "payment guard"}
}

// Acquire sets the lease with SETNX; ok is false when it is already held
func (l *RedisLease) Acquire(ctx context.Context, id string, ttl time.Duration) (string, bool, error) {
	if strings.TrimSpace(id) == "" {
		return "", false, fmt.Errorf("%s: ID is required", l.name)
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+id, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to set %s: %w", l.name, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release clears the lease if token still owns it
func (l *RedisLease) Release(ctx context.Context, id, token string) error {
	if token == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + id}, token).Err(); err != nil {
		return fmt.Errorf("failed to clear %s: %w", l.name, err)
	}
	return nil
}

// IsSet reports whether the lease is held
func (l *RedisLease) IsSet(ctx context.Context, id string) (bool, error) {
	n, err := l.client.Exists(ctx, l.keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", l.name, err)
	}
	return n > 0, nil
}

// InMemoryLease is the single-instance fallback
type InMemoryLease struct {
	leases *ttlMap[string]
}

// NewInMemoryExportFlag creates an in-memory export flag
func NewInMemoryExportFlag() *InMemoryLease {
	return &InMemoryLease{leases: newTTLMap[string](time.Minute)}
}

// NewInMemoryPaymentGuard creates an in-memory payment guard
func NewInMemoryPaymentGuard() *InMemoryLease {
	return &InMemoryLease{leases: newTTLMap[string](time.Minute)}
}

// Acquire takes the lease unless a live one exists
func (l *InMemoryLease) Acquire(_ context.Context, id string, ttl time.Duration) (string, bool, error) {
	if strings.TrimSpace(id) == "" {
		return "", false, fmt.Errorf("ID is required")
	}
	token := uuid.NewString()
	if !l.leases.setIfAbsent(id, token, ttl) {
		return "", false, nil
	}
	return token, true, nil
}

// Release clears the lease if token still owns it
func (l *InMemoryLease) Release(_ context.Context, id, token string) error {
	l.leases.deleteIf(id, func(held string) bool { return held == token })
	return nil
}

// IsSet reports whether the lease is held
func (l *InMemoryLease) IsSet(_ context.Context, id string) (bool, error) {
	_, ok := l.leases.get(id)
	return ok, nil
}

// Close stops the sweeper
func (l *InMemoryLease) Close() error {
	return l.leases.Close()
}

var (
	_ printing.ExportFlag   = (*RedisLease)(nil)
	_ printing.ExportFlag   = (*InMemoryLease)(nil)
	_ purchase.PaymentGuard = (*RedisLease)(nil)
	_ purchase.PaymentGuard = (*InMemoryLease)(nil)
)
