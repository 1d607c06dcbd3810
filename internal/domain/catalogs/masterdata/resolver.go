package masterdata

import (
	"context"
	"fmt"

	"challanbook/internal/core/apperror"
	"challanbook/internal/core/id"
)

// Ref is one reference to resolve, with the request field it came from.
type Ref struct {
	Kind  Kind
	ID    id.ID
	Field string
}

// Resolved holds the records found for a batch of refs.
type Resolved struct {
	byKind map[Kind]map[id.ID]*Record
}

// Get returns the record for kind/id or nil.
func (r *Resolved) Get(kind Kind, recID id.ID) *Record {
	if r == nil {
		return nil
	}
	return r.byKind[kind][recID]
}

// Name returns the display name for kind/id or an empty string.
func (r *Resolved) Name(kind Kind, recID id.ID) string {
	if rec := r.Get(kind, recID); rec != nil {
		return rec.Name
	}
	return ""
}

// Resolver turns references into records, one query per catalog.
type Resolver struct {
	repo Repository
}

// NewResolver creates a resolver over repo.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve loads every ref. A missing or deletion-marked record is a validation
// error naming the offending field.
func (r *Resolver) Resolve(ctx context.Context, refs []Ref) (*Resolved, error) {
	return r.resolve(ctx, refs, false)
}

// ResolveForDisplay loads refs of an already saved document. Records marked for
// deletion after the document was saved are still returned.
func (r *Resolver) ResolveForDisplay(ctx context.Context, refs []Ref) (*Resolved, error) {
	return r.resolve(ctx, refs, true)
}

func (r *Resolver) resolve(ctx context.Context, refs []Ref, allowDeleted bool) (*Resolved, error) {
	wanted := make(map[Kind][]id.ID)
	seen := make(map[Kind]map[id.ID]bool)
	for _, ref := range refs {
		if seen[ref.Kind] == nil {
			seen[ref.Kind] = make(map[id.ID]bool)
		}
		if !seen[ref.Kind][ref.ID] {
			seen[ref.Kind][ref.ID] = true
			wanted[ref.Kind] = append(wanted[ref.Kind], ref.ID)
		}
	}

	out := &Resolved{byKind: make(map[Kind]map[id.ID]*Record, len(wanted))}
	for _, kind := range Kinds {
		ids := wanted[kind]
		if len(ids) == 0 {
			continue
		}
		found, err := r.repo.Lookup(ctx, kind, ids)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", kind, err)
		}
		out.byKind[kind] = found
	}

	for _, ref := range refs {
		rec := out.Get(ref.Kind, ref.ID)
		if rec == nil {
			return nil, apperror.NewValidation(fmt.Sprintf("unknown %s", ref.Kind)).
				WithDetail("field", ref.Field).
				WithDetail("id", ref.ID.String())
		}
		if rec.DeletionMark && !allowDeleted {
			return nil, apperror.NewValidation(fmt.Sprintf("%s %q is marked for deletion", ref.Kind, rec.Name)).
				WithDetail("field", ref.Field).
				WithDetail("id", ref.ID.String())
		}
	}
	return out, nil
}
