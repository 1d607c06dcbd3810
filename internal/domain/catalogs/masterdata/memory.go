package masterdata

import (
	"context"
	"sort"
	"sync"

	"challanbook/internal/core/id"
)

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[Kind]map[id.ID]*Record
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[Kind]map[id.ID]*Record)}
}

// Add stores rec and returns it, for compact fixtures.
func (m *MemoryRepository) Add(kind Kind, rec *Record) *Record {
	_ = m.Upsert(context.Background(), kind, rec)
	return rec
}

// Lookup implements Repository.
func (m *MemoryRepository) Lookup(ctx context.Context, kind Kind, ids []id.ID) (map[id.ID]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[id.ID]*Record, len(ids))
	for _, recID := range ids {
		if rec, ok := m.data[kind][recID]; ok {
			cp := *rec
			out[recID] = &cp
		}
	}
	return out, nil
}

// List implements Repository.
func (m *MemoryRepository) List(ctx context.Context, kind Kind, includeDeleted bool) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Record, 0, len(m.data[kind]))
	for _, rec := range m.data[kind] {
		if rec.DeletionMark && !includeDeleted {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Upsert implements Repository.
func (m *MemoryRepository) Upsert(ctx context.Context, kind Kind, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[kind] == nil {
		m.data[kind] = make(map[id.ID]*Record)
	}
	for existingID, existing := range m.data[kind] {
		if existing.Code == rec.Code && existingID != rec.ID {
			rec.ID = existingID
			rec.Version = existing.Version + 1
		}
	}
	cp := *rec
	m.data[kind][rec.ID] = &cp
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
