package shared

import (
	"time"

	"github.com/google/uuid"
)

// Owned holds the identity of a record that belongs to one backend account.
// Version is an optimistic lock counter, bumped on every state change.
type Owned struct {
	ID        uuid.UUID
	OwnerID   string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOwned stamps a fresh record for ownerID
func NewOwned(ownerID string) Owned {
	now := time.Now()
	return Owned{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Changed records a state change at the given time
func (o *Owned) Changed(at time.Time) {
	o.UpdatedAt = at
	o.Version++
}
