package numerator

import (
	"context"
)

// Generator issues strictly increasing numbers per counter.
//
// Every mutation of a counter goes through this interface; the raw counter row is
// never exposed. Implementations live in the infrastructure layer.
type Generator interface {
	// Next atomically increments the counter and returns the new value.
	// When ctx carries a transaction the increment joins it and becomes visible
	// only when that transaction commits; a rollback leaves the counter untouched.
	Next(ctx context.Context, cfg Config) (int64, error)

	// Peek returns the current value without incrementing. Advisory only.
	Peek(ctx context.Context, cfg Config) (int64, error)

	// Reserve allocates the next value exactly like Next and records it as an
	// outstanding reservation that can later be consumed once.
	Reserve(ctx context.Context, cfg Config) (int64, error)

	// Consume marks a reserved value as used. It fails if the value was never
	// reserved or was already consumed. Call it inside the transaction that
	// persists the document carrying the number.
	Consume(ctx context.Context, cfg Config, value int64) error

	// Lock takes the counter row lock for the rest of the caller's transaction
	// and returns the current value. Next calls from other transactions wait
	// until it is released.
	Lock(ctx context.Context, cfg Config) (int64, error)

	// Set moves the counter to value (data migration). The counter never moves backwards.
	Set(ctx context.Context, cfg Config, value int64) error
}
