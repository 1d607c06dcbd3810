package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	appctx "challanbook/internal/core/context"
	"challanbook/internal/core/id"
)

// MemoryLogger keeps entries in process. Used by service tests.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger creates an empty journal.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// LogChange implements Logger.
func (m *MemoryLogger) LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Terminal:   appctx.GetTerminal(ctx),
		Changes:    raw,
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

// History implements Logger. Newest first.
func (m *MemoryLogger) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Actions returns the recorded actions for entityID in write order.
func (m *MemoryLogger) Actions(entityID id.ID) []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Action
	for _, e := range m.entries {
		if e.EntityID == entityID {
			out = append(out, e.Action)
		}
	}
	return out
}

var _ Logger = (*MemoryLogger)(nil)
