// Package numerator provides the PostgreSQL implementation of challan numbering.
// It implements core/numerator.Generator.
package numerator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"challanbook/internal/core/apperror"
	corenumerator "challanbook/internal/core/numerator"
	"challanbook/internal/infrastructure/storage/postgres"
	"challanbook/pkg/logger"
)

// DB is the slice of postgres.TxManager the service needs.
type DB interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	GetQuerier(ctx context.Context) postgres.Querier
}

// Service allocates numbers from sys_sequences.
//
// Every allocation is a single INSERT .. ON CONFLICT DO UPDATE .. RETURNING,
// which takes the row lock on the counter; concurrent callers queue on that lock
// until the holder commits or rolls back. The first use of a key inserts the row,
// and ON CONFLICT makes concurrent first use safe.
type Service struct {
	db DB
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service.
func New(db DB) *Service {
	return &Service{db: db}
}

const (
	nextSQL = `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val`

	peekSQL = `SELECT current_val FROM sys_sequences WHERE key = $1`

	lockSQL = `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 0)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val
		RETURNING current_val`

	setSQL = `UPDATE sys_sequences SET current_val = $2 WHERE key = $1 RETURNING current_val`

	reserveSQL = `
		INSERT INTO sys_sequence_reservations (key, value, reserved_at)
		VALUES ($1, $2, NOW())
		RETURNING value`

	consumeSQL = `
		DELETE FROM sys_sequence_reservations
		WHERE key = $1 AND value = $2
		RETURNING value`
)

// Next increments the counter and returns the new value.
// Outside a caller transaction it commits before returning.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config) (int64, error) {
	var num int64
	err := s.db.RunInTransaction(ctx, func(ctx context.Context) error {
		v, err := s.next(ctx, cfg)
		num = v
		return err
	})
	if err != nil {
		return 0, err
	}
	return num, nil
}

func (s *Service) next(ctx context.Context, cfg corenumerator.Config) (int64, error) {
	var num int64
	if err := s.db.GetQuerier(ctx).QueryRow(ctx, nextSQL, cfg.Key).Scan(&num); err != nil {
		return 0, classify(cfg.Key, fmt.Errorf("next %s: %w", cfg.Key, err))
	}
	// Returning an error rolls the increment back with the transaction.
	if cfg.Ceiling > 0 && num > cfg.Ceiling {
		return 0, apperror.NewSequenceExhausted(cfg.Key, cfg.Ceiling)
	}
	return num, nil
}

// Peek returns the current counter value; a missing row reads as 0.
func (s *Service) Peek(ctx context.Context, cfg corenumerator.Config) (int64, error) {
	var num int64
	err := s.db.GetQuerier(ctx).QueryRow(ctx, peekSQL, cfg.Key).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("peek %s: %w", cfg.Key, err)
	}
	return num, nil
}

// Reserve allocates the next value and records it as reserved, in one transaction.
func (s *Service) Reserve(ctx context.Context, cfg corenumerator.Config) (int64, error) {
	var num int64
	err := s.db.RunInTransaction(ctx, func(ctx context.Context) error {
		v, err := s.next(ctx, cfg)
		if err != nil {
			return err
		}
		if err := s.db.GetQuerier(ctx).QueryRow(ctx, reserveSQL, cfg.Key, v).Scan(&num); err != nil {
			return fmt.Errorf("record reservation %s=%d: %w", cfg.Key, v, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "sequence value reserved", "sequence", cfg.Key, "value", num)
	return num, nil
}

// Consume deletes the reservation row. Run it in the transaction that stores the
// document; if that transaction rolls back the reservation stays usable.
func (s *Service) Consume(ctx context.Context, cfg corenumerator.Config, value int64) error {
	var got int64
	err := s.db.GetQuerier(ctx).QueryRow(ctx, consumeSQL, cfg.Key, value).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewReservationInvalid(cfg.Key, value)
	}
	if err != nil {
		return classify(cfg.Key, fmt.Errorf("consume %s=%d: %w", cfg.Key, value, err))
	}
	return nil
}

// Lock creates the counter row if needed and holds its lock until the caller's
// transaction ends. Without a transaction in ctx the lock is released at once.
func (s *Service) Lock(ctx context.Context, cfg corenumerator.Config) (int64, error) {
	var current int64
	if err := s.db.GetQuerier(ctx).QueryRow(ctx, lockSQL, cfg.Key).Scan(&current); err != nil {
		return 0, classify(cfg.Key, fmt.Errorf("lock %s: %w", cfg.Key, err))
	}
	return current, nil
}

// Set moves the counter forward to value. Moving it backwards is refused
// because it would hand out numbers that already exist.
func (s *Service) Set(ctx context.Context, cfg corenumerator.Config, value int64) error {
	if value < 0 {
		return apperror.NewValidation("sequence value must not be negative").WithDetail("value", value)
	}
	if cfg.Ceiling > 0 && value > cfg.Ceiling {
		return apperror.NewSequenceExhausted(cfg.Key, cfg.Ceiling)
	}
	return s.db.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.Lock(ctx, cfg)
		if err != nil {
			return err
		}
		if value < current {
			return apperror.NewConflict("sequence cannot move backwards").
				WithDetail("sequence", cfg.Key).
				WithDetail("current", current).
				WithDetail("requested", value)
		}

		var updated int64
		if err := s.db.GetQuerier(ctx).QueryRow(ctx, setSQL, cfg.Key, value).Scan(&updated); err != nil {
			return fmt.Errorf("set %s: %w", cfg.Key, err)
		}
		logger.Info(ctx, "sequence moved", "sequence", cfg.Key, "from", current, "to", updated)
		return nil
	})
}

// PostgreSQL error codes that mean "someone else holds the counter, try again".
var contentionCodes = map[string]bool{
	"55P03": true, // lock_not_available (lock_timeout)
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"57014": true, // query_canceled (statement_timeout)
}

// classify turns lock and serialization failures into a retryable AppError.
func classify(key string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && contentionCodes[pgErr.Code] {
		return apperror.NewSequenceContention(key, err)
	}
	return err
}
