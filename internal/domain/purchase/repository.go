package purchase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore persists flow sessions. Sessions are short lived and expire
// after a period of inactivity.
type SessionStore interface {
	Get(ctx context.Context, ownerID string, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// PaymentGuard marks a flow as paying. Only one caller per flow holds the
// guard, so the backend purchase is called at most once at a time.
type PaymentGuard interface {
	Acquire(ctx context.Context, flowID string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, flowID, token string) error
}
