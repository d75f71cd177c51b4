package sales

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

const saleColumns = `id, business_id, reference, sale_date, client_id, product_id, product_name, quantity, unit_price, discount, tax, total, cost_per_unit, profit, sale_type, payment_status, payment_method, created_by, created_at, updated_at, deleted_at`

// Repository provides PostgreSQL backed persistence for sales.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps the callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetSale loads one active sale within the tenant scope.
func (r *Repository) GetSale(ctx context.Context, scope tenant.Scope, saleID int64) (Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`, saleID, scope.BusinessID)
	return scanSale(row)
}

// ListSales returns filtered active sales, newest first.
func (r *Repository) ListSales(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Sale, int, error) {
	conditions := []string{"business_id = $1", "deleted_at IS NULL"}
	args := []any{scope.BusinessID}
	argPos := 2

	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *filter.ClientID)
		argPos++
	}
	if filter.PaymentStatus != "" {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argPos))
		args = append(args, string(filter.PaymentStatus))
		argPos++
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("sale_date >= $%d", argPos))
		args = append(args, filter.From)
		argPos++
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("sale_date <= $%d", argPos))
		args = append(args, filter.To)
		argPos++
	}
	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sales %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(filter.Page, filter.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM sales %s ORDER BY sale_date DESC, id DESC LIMIT $%d OFFSET $%d`, saleColumns, whereClause, argPos, argPos+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, s)
	}
	return sales, total, rows.Err()
}

// InsertSale persists a new sale and returns its id.
func (r *txRepo) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `
		INSERT INTO sales (business_id, reference, sale_date, client_id, product_id, product_name, quantity, unit_price, discount, tax, total, cost_per_unit, profit, sale_type, payment_status, payment_method, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		RETURNING id`,
		sale.BusinessID, sale.Reference, sale.Date, sale.ClientID, sale.ProductID, sale.ProductName,
		sale.Quantity, sale.UnitPrice, sale.Discount, sale.Tax, sale.Total, sale.CostPerUnit,
		sale.Profit, string(sale.SaleType), string(sale.PaymentStatus), sale.PaymentMethod, sale.CreatedBy).Scan(&id)
	return id, err
}

// GetSaleForUpdate locks the sale row for the duration of the mutation.
func (r *txRepo) GetSaleForUpdate(ctx context.Context, scope tenant.Scope, saleID int64) (Sale, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL FOR UPDATE`, saleID, scope.BusinessID)
	return scanSale(row)
}

// UpdateSale applies column updates built by the service.
func (r *txRepo) UpdateSale(ctx context.Context, saleID int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	setClauses := make([]string, 0, len(updates)+1)
	args := []any{saleID}
	argPos := 2
	for column, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())

	query := fmt.Sprintf("UPDATE sales SET %s WHERE id = $1 AND deleted_at IS NULL", strings.Join(setClauses, ", "))
	tag, err := r.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SoftDeleteSale marks the sale deleted while keeping the row replayable.
func (r *txRepo) SoftDeleteSale(ctx context.Context, saleID int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sales SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, saleID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GetProductCost reads the costing snapshot used to fix a sale's profit.
func (r *txRepo) GetProductCost(ctx context.Context, scope tenant.Scope, productID int64) (ProductCost, error) {
	var cost ProductCost
	err := r.tx.QueryRow(ctx, `SELECT id, cost_basis, acquisition_cost FROM products WHERE id = $1 AND business_id = $2 AND deleted_at IS NULL`, productID, scope.BusinessID).
		Scan(&cost.ProductID, &cost.CostBasis, &cost.AcquisitionCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductCost{}, shared.ErrNotFound
		}
		return ProductCost{}, err
	}
	return cost, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (Sale, error) {
	var s Sale
	var saleType, paymentStatus string
	err := row.Scan(&s.ID, &s.BusinessID, &s.Reference, &s.Date, &s.ClientID, &s.ProductID, &s.ProductName,
		&s.Quantity, &s.UnitPrice, &s.Discount, &s.Tax, &s.Total, &s.CostPerUnit, &s.Profit,
		&saleType, &paymentStatus, &s.PaymentMethod, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, shared.ErrNotFound
		}
		return Sale{}, err
	}
	s.SaleType = SaleType(saleType)
	s.PaymentStatus = PaymentStatus(paymentStatus)
	return s, nil
}
