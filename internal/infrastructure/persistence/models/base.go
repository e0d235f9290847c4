package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tuition/backend/internal/domain/shared"
)

// Row holds the key and timestamp columns every table carries
type Row struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func rowOf(e shared.BaseEntity) Row {
	return Row{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (r Row) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// VersionedRow adds the column SaveWithLock compares and bumps
type VersionedRow struct {
	Row
	Version int `gorm:"not null;default:1"`
}

func versionedRowOf(a shared.BaseAggregateRoot) VersionedRow {
	return VersionedRow{Row: rowOf(a.BaseEntity), Version: a.Version}
}

// aggregate rebuilds the root with no pending events
func (r VersionedRow) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: r.Row.entity(), Version: r.Version}
}
