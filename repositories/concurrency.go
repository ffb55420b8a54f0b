package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrTooMuchContention = errors.New("too much contention")

const DefaultMaxRetries = 3

type EntityWithVersion interface {
	comparable
	GetID() int
	GetRowVersion() int64
	SetRowVersion(int64)
}

type GetByIDFunc[T EntityWithVersion] func(ctx context.Context, id int) (T, error)

type UpdateIfVersionFunc[T EntityWithVersion] func(ctx context.Context, entity T, expectedVersion int64) (sql.Result, error)

// WithRetry runs a read-mutate-update loop with optimistic locking on
// row_version. A zero rows-affected update means another writer won and
// the loop starts over from a fresh read.
func WithRetry[T EntityWithVersion](
	ctx context.Context,
	maxRetries int,
	id int,
	getByID GetByIDFunc[T],
	updateIfVersion UpdateIfVersionFunc[T],
	mutate func(T) error,
) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		current, err := getByID(ctx, id)
		if err != nil {
			return err
		}
		var zero T
		if current == zero {
			return sql.ErrNoRows
		}

		oldVersion := current.GetRowVersion()
		if err := mutate(current); err != nil {
			return err
		}

		res, err := updateIfVersion(ctx, current, oldVersion)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows: %w", err)
		}
		if n == 1 {
			current.SetRowVersion(oldVersion + 1)
			return nil
		}
	}
	return fmt.Errorf("%w updating %d", ErrTooMuchContention, id)
}
