package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// TokenBlacklist records session tokens revoked by logout. The backend has
// no logout endpoint, so a signed-out token stays valid upstream until it
// expires; the web tier refuses it locally for that remaining time.
type TokenBlacklist interface {
	// AddToBlacklist revokes a token for ttl
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error

	// IsBlacklisted checks if a token has been revoked
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// tokenDigest keys entries by digest so raw tokens never reach the store
func tokenDigest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist with an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: "datapadi:token:revoked:",
	}
}

func (b *RedisTokenBlacklist) key(token string) string {
	return b.keyPrefix + tokenDigest(token)
}

// AddToBlacklist revokes a token
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token has been revoked
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process.
// Revocations are not shared between instances.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time // digest -> expiration
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{revoked: make(map[string]time.Time)}
}

// AddToBlacklist revokes a token
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[tokenDigest(token)] = time.Now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token is revoked and the entry has not expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := tokenDigest(token)
	expiration, exists := b.revoked[key]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(b.revoked, key)
		return false, nil
	}
	return true, nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
