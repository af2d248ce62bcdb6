package printing

import (
	"context"
	"time"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/google/uuid"
)

// ExportJobRepository defines the interface for export job persistence
type ExportJobRepository interface {
	// FindByIDForOwner finds a job by ID within the owner's jobs
	FindByIDForOwner(ctx context.Context, ownerID string, id uuid.UUID) (*ExportJob, error)

	// FindAllForOwner lists the owner's jobs, newest first
	FindAllForOwner(ctx context.Context, ownerID string, filter ExportJobFilter) ([]ExportJob, error)

	// CountForOwner counts the owner's jobs matching the filter
	CountForOwner(ctx context.Context, ownerID string, filter ExportJobFilter) (int64, error)

	// FindByFingerprint finds completed jobs that rendered the same content
	FindByFingerprint(ctx context.Context, ownerID, fingerprint string) ([]ExportJob, error)

	// Save saves a job (insert or update)
	Save(ctx context.Context, job *ExportJob) error

	// DeleteOlderThan deletes jobs created before the cutoff and returns the count
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExportJobFilter extends the standard filter with export job specific criteria
type ExportJobFilter struct {
	shared.Filter
	Channel *Channel   // Filter by output channel
	Status  *JobStatus // Filter by status
}

// ExportFlag marks an owner as having an export in flight. Acquire is
// atomic: only one caller per owner gets a token until Release or the TTL
// clears the flag. Release only clears the flag when the token still
// matches, so a holder whose TTL lapsed cannot clear a newer export.
type ExportFlag interface {
	Acquire(ctx context.Context, ownerID string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, ownerID, token string) error
	IsSet(ctx context.Context, ownerID string) (bool, error)
}
