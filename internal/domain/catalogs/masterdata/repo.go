package masterdata

import (
	"context"

	"challanbook/internal/core/id"
)

// Repository reads and seeds catalogs.
type Repository interface {
	// Lookup returns the records of kind with the given ids, deleted ones included.
	// Missing ids are absent from the map.
	Lookup(ctx context.Context, kind Kind, ids []id.ID) (map[id.ID]*Record, error)

	// List returns the catalog ordered by name.
	List(ctx context.Context, kind Kind, includeDeleted bool) ([]*Record, error)

	// Upsert inserts the record or updates the row with the same code.
	Upsert(ctx context.Context, kind Kind, rec *Record) error
}
