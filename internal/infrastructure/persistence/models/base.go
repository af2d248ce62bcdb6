package models

import (
	"time"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/google/uuid"
)

// OwnedColumns are the identity columns shared by every owner-scoped table.
// Queries always filter on owner_id, hence the index.
type OwnedColumns struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	OwnerID   string    `gorm:"column:owner_id;type:varchar(64);not null;index"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func ownedColumns(o shared.Owned) OwnedColumns {
	return OwnedColumns(o)
}

func (c OwnedColumns) owned() shared.Owned {
	return shared.Owned(c)
}
