package temporal

import (
	"context"
	"time"
)

// Record is one stored version row together with its surrogate identifier.
type Record struct {
	// ID is the surrogate key assigned by the sink on insert.
	ID int64

	// Row holds the natural-key and payload columns. System columns may be
	// present; hashing and key construction ignore them.
	Row Row
}

// Sink is the minimal contract the engine requires from a versioned store.
// All three operations must be invocable inside one ambient transaction
// scope controlled by the caller.
type Sink interface {
	// ScanCurrent streams every currently-valid record (valid_to at the
	// sentinel) through fn, using a bounded-memory cursor. Iteration stops
	// at the first error returned by fn.
	ScanCurrent(ctx context.Context, fn func(Record) error) error

	// InsertBatch appends new version rows. Surrogate id assignment is the
	// sink's responsibility.
	InsertBatch(ctx context.Context, rows []Row) error

	// CloseBatch sets valid_to to asOf for exactly the given ids.
	CloseBatch(ctx context.Context, ids []int64, asOf time.Time) error
}

// Source produces a finite lazy sequence of rows, consumed once, front to
// back, in one pass.
type Source interface {
	Each(ctx context.Context, fn func(Row) error) error
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, fn func(Row) error) error

func (s SourceFunc) Each(ctx context.Context, fn func(Row) error) error {
	return s(ctx, fn)
}

// Rows adapts an in-memory slice to the Source interface.
func Rows(rows []Row) Source {
	return SourceFunc(func(ctx context.Context, fn func(Row) error) error {
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(row); err != nil {
				return err
			}
		}
		return nil
	})
}
