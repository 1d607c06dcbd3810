// Package catalog_repo provides the PostgreSQL implementation of the master-data catalogs.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"challanbook/internal/core/id"
	"challanbook/internal/domain/catalogs/masterdata"
	"challanbook/internal/infrastructure/storage/postgres"
)

// MasterDataRepo implements masterdata.Repository over the cat_* tables.
type MasterDataRepo struct {
	txManager *postgres.TxManager
}

var _ masterdata.Repository = (*MasterDataRepo)(nil)

// NewMasterDataRepo creates a new master-data repository.
func NewMasterDataRepo(txManager *postgres.TxManager) *MasterDataRepo {
	return &MasterDataRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *MasterDataRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MasterDataRepo) baseSelect(kind masterdata.Kind) squirrel.SelectBuilder {
	return r.Builder().
		Select(kind.Columns()...).
		From(kind.Table())
}

// Lookup implements masterdata.Repository.
func (r *MasterDataRepo) Lookup(ctx context.Context, kind masterdata.Kind, ids []id.ID) (map[id.ID]*masterdata.Record, error) {
	out := make(map[id.ID]*masterdata.Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q := r.baseSelect(kind).Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*masterdata.Record
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", kind.Table(), err)
	}
	for _, rec := range rows {
		out[rec.ID] = rec
	}
	return out, nil
}

// List implements masterdata.Repository.
func (r *MasterDataRepo) List(ctx context.Context, kind masterdata.Kind, includeDeleted bool) ([]*masterdata.Record, error) {
	q := r.baseSelect(kind).OrderBy("name ASC", "code ASC")
	if !includeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]*masterdata.Record, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Table(), err)
	}
	return items, nil
}

// Upsert implements masterdata.Repository. A row with the same code is updated
// in place and keeps its id; rec.ID and rec.Version are refreshed from the row.
func (r *MasterDataRepo) Upsert(ctx context.Context, kind masterdata.Kind, rec *masterdata.Record) error {
	data := postgres.StructToMap(rec)
	cols := kind.Columns()

	values := make(map[string]any, len(cols))
	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		if v, ok := data[col]; ok {
			values[col] = v
		}
		switch col {
		case "id", "code", "version":
		default:
			updates = append(updates, col+" = EXCLUDED."+col)
		}
	}
	updates = append(updates, "version = "+kind.Table()+".version + 1")

	q := r.Builder().
		Insert(kind.Table()).
		SetMap(values).
		Suffix("ON CONFLICT (code) DO UPDATE SET " + strings.Join(updates, ", ") + " RETURNING id, version")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&rec.ID, &rec.Version); err != nil {
		return fmt.Errorf("upsert %s: %w", kind.Table(), err)
	}
	return nil
}
