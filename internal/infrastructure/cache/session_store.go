package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/datapadi/web/internal/domain/purchase"
	"github.com/datapadi/web/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	flowSessionPrefix     = "datapadi:flow:"
	DefaultFlowSessionTTL = 30 * time.Minute
)

var errSessionNotFound = shared.NewDomainError(shared.CodeNotFound, "Purchase flow not found or expired")

func sessionKey(ownerID string, id uuid.UUID) string {
	return ownerID + ":" + id.String()
}

// RedisSessionStore keeps flow sessions as JSON with a sliding TTL
type RedisSessionStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSessionStore creates a session store on an existing client
func NewRedisSessionStore(client redis.UniversalClient, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultFlowSessionTTL
	}
	return &RedisSessionStore{client: client, keyPrefix: flowSessionPrefix, ttl: ttl}
}

// Get loads a session; a missing or expired session is NOT_FOUND
func (s *RedisSessionStore) Get(ctx context.Context, ownerID string, id uuid.UUID) (*purchase.Session, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+sessionKey(ownerID, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errSessionNotFound
		}
		return nil, fmt.Errorf("failed to load flow session: %w", err)
	}

	var session purchase.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode flow session: %w", err)
	}
	return &session, nil
}

// Save writes the session and restarts its TTL
func (s *RedisSessionStore) Save(ctx context.Context, session *purchase.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode flow session: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+sessionKey(session.OwnerID, session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save flow session: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *RedisSessionStore) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.keyPrefix+sessionKey(ownerID, id)).Err(); err != nil {
		return fmt.Errorf("failed to delete flow session: %w", err)
	}
	return nil
}

// InMemorySessionStore is the single-instance fallback. Sessions are stored
// as JSON so callers never share a pointer with the store.
type InMemorySessionStore struct {
	sessions *ttlMap[[]byte]
	ttl      time.Duration
}

// NewInMemorySessionStore creates an in-memory session store
func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultFlowSessionTTL
	}
	return &InMemorySessionStore{sessions: newTTLMap[[]byte](5 * time.Minute), ttl: ttl}
}

// Get loads a session; a missing or expired session is NOT_FOUND
func (s *InMemorySessionStore) Get(_ context.Context, ownerID string, id uuid.UUID) (*purchase.Session, error) {
	raw, ok := s.sessions.get(sessionKey(ownerID, id))
	if !ok {
		return nil, errSessionNotFound
	}
	var session purchase.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode flow session: %w", err)
	}
	return &session, nil
}

// Save stores a copy of the session and restarts its TTL
func (s *InMemorySessionStore) Save(_ context.Context, session *purchase.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode flow session: %w", err)
	}
	s.sessions.set(sessionKey(session.OwnerID, session.ID), raw, s.ttl)
	return nil
}

// Delete removes a session
func (s *InMemorySessionStore) Delete(_ context.Context, ownerID string, id uuid.UUID) error {
	s.sessions.delete(sessionKey(ownerID, id))
	return nil
}

// Close stops the sweeper
func (s *InMemorySessionStore) Close() error {
	return s.sessions.Close()
}

var (
	_ purchase.SessionStore = (*RedisSessionStore)(nil)
	_ purchase.SessionStore = (*InMemorySessionStore)(nil)
)
