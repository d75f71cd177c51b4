package clients

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

const clientColumns = `id, business_id, name, email, phone, balance, created_at, updated_at, deleted_at`

// Repository persists clients in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction so the
// balance fold reads a consistent snapshot of the client's sales.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetClient loads one active client within the tenant scope.
func (r *Repository) GetClient(ctx context.Context, scope tenant.Scope, clientID int64) (Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`, clientID, scope.BusinessID)
	return scanClient(row)
}

// ListClients returns active clients for the tenant, alphabetically.
func (r *Repository) ListClients(ctx context.Context, scope tenant.Scope, page, perPage int) ([]Client, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients WHERE business_id = $1 AND deleted_at IS NULL`, scope.BusinessID).Scan(&total); err != nil {
		return nil, 0, err
	}

	p := shared.NewPagination(page, perPage, total)
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE business_id = $1 AND deleted_at IS NULL ORDER BY name LIMIT $2 OFFSET $3`, scope.BusinessID, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}

// GetClient loads one active client inside the transaction snapshot without
// locking the row.
func (r *txRepo) GetClient(ctx context.Context, scope tenant.Scope, clientID int64) (Client, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`, clientID, scope.BusinessID)
	return scanClient(row)
}

// GetClientForUpdate locks the client row for the duration of the fold.
func (r *txRepo) GetClientForUpdate(ctx context.Context, scope tenant.Scope, clientID int64) (Client, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL FOR UPDATE`, clientID, scope.BusinessID)
	return scanClient(row)
}

// ListActiveSales returns the non-deleted sales of the client, oldest first.
func (r *txRepo) ListActiveSales(ctx context.Context, scope tenant.Scope, clientID int64) ([]LedgerSale, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, reference, sale_date, total, payment_status = 'paid'
		FROM sales
		WHERE client_id = $1 AND business_id = $2 AND deleted_at IS NULL
		ORDER BY sale_date, id`, clientID, scope.BusinessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []LedgerSale
	for rows.Next() {
		var s LedgerSale
		if err := rows.Scan(&s.SaleID, &s.Reference, &s.Date, &s.Total, &s.Paid); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// UpdateClientBalance replaces the persisted balance with the folded value.
func (r *txRepo) UpdateClientBalance(ctx context.Context, clientID, balance int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE clients SET balance = $2, updated_at = $3 WHERE id = $1`, clientID, balance, time.Now().UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.BusinessID, &c.Name, &c.Email, &c.Phone, &c.Balance, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, shared.ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}
