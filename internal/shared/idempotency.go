package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict indicates the key was already reserved, meaning the
// request it guards has been processed before.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// ModuleInventory labels idempotency keys reserved by restock posting.
const ModuleInventory = "inventory"

const pgUniqueViolation = "23505"

// RestockKey builds the dedupe key for a restock posting. The reference is
// caller-supplied (a delivery note or invoice number), so the key is scoped by
// tenant and product to keep references from colliding across businesses.
func RestockKey(businessID, productID int64, reference string) string {
	return fmt.Sprintf("restock:%d:%d:%s", businessID, productID, reference)
}

// IdempotencyStore reserves processed-request keys in PostgreSQL. The unique
// index on the key column is what enforces exactly-once semantics; the store
// only translates the conflict into ErrIdempotencyConflict.
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// Reserve claims the key for the given module. A duplicate claim returns
// ErrIdempotencyConflict.
func (s *IdempotencyStore) Reserve(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)`, key, module, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

// Release frees a reserved key so the request can be retried, used when the
// guarded operation fails after the reservation.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key=$1`, key)
	return err
}

// Prune removes reservations older than the retention window and reports how
// many were dropped.
func (s *IdempotencyStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
