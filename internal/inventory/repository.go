package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

const productColumns = `id, business_id, name, category, stock, cost_basis, acquisition_cost, retail_price, supplier_id, created_at, updated_at, deleted_at`

// Repository persists products in PostgreSQL.
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

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetProduct loads one active product within the tenant scope.
func (r *Repository) GetProduct(ctx context.Context, scope tenant.Scope, productID int64) (Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`, productColumns)
	return scanProduct(r.pool.QueryRow(ctx, query, productID, scope.BusinessID))
}

// ListProducts returns active products for the tenant, newest first.
func (r *Repository) ListProducts(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Product, int, error) {
	conditions := []string{"business_id = $1", "deleted_at IS NULL"}
	args := []any{scope.BusinessID}
	argPos := 2

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, filter.Category)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, productColumns, whereClause, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// GetProductForUpdate loads the product row with a row-level lock so the
// read-modify-write of (stock, cost_basis) serializes per product.
func (r *txRepo) GetProductForUpdate(ctx context.Context, scope tenant.Scope, productID int64) (Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL FOR UPDATE`, productColumns)
	return scanProduct(r.tx.QueryRow(ctx, query, productID, scope.BusinessID))
}

// UpdateProductCosting writes the new (stock, cost_basis, acquisition_cost) triple.
func (r *txRepo) UpdateProductCosting(ctx context.Context, product Product) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE products
		SET stock = $2, cost_basis = $3, acquisition_cost = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL`,
		product.ID, product.Stock, product.CostBasis, product.AcquisitionCost, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SupplierExists reports whether the supplier belongs to the tenant.
func (r *txRepo) SupplierExists(ctx context.Context, scope tenant.Scope, supplierID int64) (bool, error) {
	var exists bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL)`, supplierID, scope.BusinessID).Scan(&exists)
	return exists, err
}

// SetProductSupplier records the supplier as the product's current source.
func (r *txRepo) SetProductSupplier(ctx context.Context, productID, supplierID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET supplier_id = $2 WHERE id = $1`, productID, supplierID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.BusinessID, &p.Name, &p.Category, &p.Stock, &p.CostBasis, &p.AcquisitionCost, &p.RetailPrice, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}
