package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity, audit timestamps and soft delete marker shared by persisted rows.
type Base struct {
	ID        uuid.UUID  `db:"id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (b Base) IsDeleted() bool {
	return b.DeletedAt != nil
}
