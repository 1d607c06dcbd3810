// Package entity holds the fields shared by master data records and challans.
package entity

import (
	"time"

	"challanbook/internal/core/id"
)

// BaseEntity is the identity and lifecycle part of every stored row.
type BaseEntity struct {
	ID id.ID `db:"id" json:"id"`

	// DeletionMark hides the row from pick lists and blocks edits; rows are never purged
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version starts at 1 and is bumped by the repository on every write
	Version int `db:"version" json:"version"`
}

// NewBaseEntity returns an unsaved entity with a fresh UUIDv7.
func NewBaseEntity() BaseEntity {
	return BaseEntity{ID: id.New(), Version: 1}
}

// MarkDeleted sets the deletion mark.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}

// BaseDocument adds the row timestamps kept by the repository.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseDocument stamps both timestamps with the current UTC time.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{BaseEntity: NewBaseEntity(), CreatedAt: now, UpdatedAt: now}
}
