package numerator

import (
	"context"
	"fmt"
	"sync"

	"challanbook/internal/core/apperror"
)

// MemoryGenerator is an in-process Generator for unit tests.
// It is safe for concurrent use but has no transactional rollback.
type MemoryGenerator struct {
	mu       sync.Mutex
	values   map[string]int64
	reserved map[string]map[int64]bool

	// NextErr, when set, is returned by Next and Reserve.
	NextErr error
}

// NewMemoryGenerator creates a generator with all counters at zero.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{
		values:   make(map[string]int64),
		reserved: make(map[string]map[int64]bool),
	}
}

// Next implements Generator.
func (m *MemoryGenerator) Next(ctx context.Context, cfg Config) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextLocked(cfg)
}

func (m *MemoryGenerator) nextLocked(cfg Config) (int64, error) {
	if m.NextErr != nil {
		return 0, m.NextErr
	}
	v := m.values[cfg.Key] + 1
	if cfg.Ceiling > 0 && v > cfg.Ceiling {
		return 0, apperror.NewSequenceExhausted(cfg.Key, cfg.Ceiling)
	}
	m.values[cfg.Key] = v
	return v, nil
}

// Peek implements Generator.
func (m *MemoryGenerator) Peek(ctx context.Context, cfg Config) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[cfg.Key], nil
}

// Reserve implements Generator.
func (m *MemoryGenerator) Reserve(ctx context.Context, cfg Config) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, err := m.nextLocked(cfg)
	if err != nil {
		return 0, err
	}
	if m.reserved[cfg.Key] == nil {
		m.reserved[cfg.Key] = make(map[int64]bool)
	}
	m.reserved[cfg.Key][v] = true
	return v, nil
}

// Consume implements Generator.
func (m *MemoryGenerator) Consume(ctx context.Context, cfg Config, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.reserved[cfg.Key][value] {
		return apperror.NewReservationInvalid(cfg.Key, value)
	}
	delete(m.reserved[cfg.Key], value)
	return nil
}

// Lock implements Generator. There are no transactions here, so it only reads.
func (m *MemoryGenerator) Lock(ctx context.Context, cfg Config) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[cfg.Key], nil
}

// Set implements Generator.
func (m *MemoryGenerator) Set(ctx context.Context, cfg Config, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value < m.values[cfg.Key] {
		return apperror.NewConflict(fmt.Sprintf("counter %s is already at %d", cfg.Key, m.values[cfg.Key]))
	}
	m.values[cfg.Key] = value
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MemoryGenerator)(nil)
