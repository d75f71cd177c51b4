package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// ProductCost is the costing snapshot of a product at sale time.
type ProductCost struct {
	ProductID       int64
	CostBasis       int64
	AcquisitionCost int64
}

// PerUnit selects the cost applied to a sale line: the explicit acquisition
// cost of the latest delivery when positive, otherwise the blended cost basis.
func (p ProductCost) PerUnit() int64 {
	if p.AcquisitionCost > 0 {
		return p.AcquisitionCost
	}
	return p.CostBasis
}

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, scope tenant.Scope, saleID int64) (Sale, error)
	ListSales(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Sale, int, error)
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	GetSaleForUpdate(ctx context.Context, scope tenant.Scope, saleID int64) (Sale, error)
	UpdateSale(ctx context.Context, saleID int64, updates map[string]any) error
	SoftDeleteSale(ctx context.Context, saleID int64) error
	GetProductCost(ctx context.Context, scope tenant.Scope, productID int64) (ProductCost, error)
}

// ReconcilerPort re-derives a client's balance after sale mutations.
type ReconcilerPort interface {
	RecalculateBalance(ctx context.Context, scope tenant.Scope, clientID int64) (int64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service validates and records sale transactions.
type Service struct {
	repo       RepositoryPort
	reconciler ReconcilerPort
	audit      AuditPort
	logger     *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, reconciler ReconcilerPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, reconciler: reconciler, audit: audit, logger: logger}
}

// CreateSale validates and persists a sale line. Profit is computed once,
// against the product's cost at this moment, and stored; it is never
// recomputed when the cost basis moves later. A product id that does not
// resolve within the tenant scope is tolerated: the sale is recorded with
// zero profit. When the sale references a client, the client's balance is
// reconciled after commit as a best-effort step.
func (s *Service) CreateSale(ctx context.Context, scope tenant.Scope, input CreateSaleInput) (Sale, error) {
	if !scope.Valid() {
		return Sale{}, fmt.Errorf("sales: create: %w", shared.ErrNotFound)
	}
	if input.Quantity <= 0 {
		return Sale{}, ErrInvalidQuantity
	}
	if input.Total < 0 || input.UnitPrice < 0 {
		return Sale{}, ErrInvalidTotal
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	sale := Sale{
		BusinessID:    scope.BusinessID,
		Reference:     newReference(date),
		Date:          date,
		ClientID:      input.ClientID,
		ProductID:     input.ProductID,
		ProductName:   input.ProductName,
		Quantity:      input.Quantity,
		UnitPrice:     input.UnitPrice,
		Discount:      input.Discount,
		Tax:           input.Tax,
		Total:         input.Total,
		SaleType:      input.SaleType,
		PaymentStatus: input.PaymentStatus,
		PaymentMethod: input.PaymentMethod,
		CreatedBy:     input.ActorID,
	}
	if sale.SaleType == "" {
		sale.SaleType = SaleTypeRetail
	}
	if sale.PaymentStatus == "" {
		sale.PaymentStatus = PaymentStatusPending
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.ProductID != nil {
			cost, err := tx.GetProductCost(ctx, scope, *input.ProductID)
			if err != nil {
				if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
				s.logger.Warn("sale references unknown product, profit defaults to zero",
					slog.Int64("business_id", scope.BusinessID),
					slog.Int64("product_id", *input.ProductID))
			} else {
				sale.CostPerUnit = cost.PerUnit()
				sale.Profit = computeProfit(sale.Total, sale.CostPerUnit, sale.Quantity)
			}
		}
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	s.reconcile(ctx, scope, sale.ClientID)
	s.record(ctx, scope, input.ActorID, "sales:create", sale)
	return sale, nil
}

// UpdateSale applies an administrator patch to a sale. The caller role is an
// explicit parameter; non-administrators get ErrForbidden with no mutation.
// Balances are reconciled for every client referenced before or after the
// patch.
func (s *Service) UpdateSale(ctx context.Context, scope tenant.Scope, saleID int64, patch UpdateSaleInput, role rbac.Role) (Sale, error) {
	if !scope.Valid() {
		return Sale{}, fmt.Errorf("sales: update: %w", shared.ErrNotFound)
	}
	if !role.IsAdmin() {
		return Sale{}, ErrAdminOnly
	}
	if patch.Quantity != nil && *patch.Quantity <= 0 {
		return Sale{}, ErrInvalidQuantity
	}
	if patch.Total != nil && *patch.Total < 0 {
		return Sale{}, ErrInvalidTotal
	}

	var before, after Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		before, err = tx.GetSaleForUpdate(ctx, scope, saleID)
		if err != nil {
			return err
		}

		after = before
		updates := make(map[string]any)
		if patch.Date != nil {
			after.Date = *patch.Date
			updates["sale_date"] = *patch.Date
		}
		if patch.ClientID != nil {
			after.ClientID = patch.ClientID
			updates["client_id"] = *patch.ClientID
		}
		if patch.Quantity != nil {
			after.Quantity = *patch.Quantity
			updates["quantity"] = *patch.Quantity
		}
		if patch.UnitPrice != nil {
			after.UnitPrice = *patch.UnitPrice
			updates["unit_price"] = *patch.UnitPrice
		}
		if patch.Discount != nil {
			after.Discount = *patch.Discount
			updates["discount"] = *patch.Discount
		}
		if patch.Tax != nil {
			after.Tax = *patch.Tax
			updates["tax"] = *patch.Tax
		}
		if patch.Total != nil {
			after.Total = *patch.Total
			updates["total"] = *patch.Total
		}
		if patch.SaleType != nil {
			after.SaleType = *patch.SaleType
			updates["sale_type"] = *patch.SaleType
		}
		if patch.PaymentStatus != nil {
			after.PaymentStatus = *patch.PaymentStatus
			updates["payment_status"] = *patch.PaymentStatus
		}
		if patch.PaymentMethod != nil {
			after.PaymentMethod = *patch.PaymentMethod
			updates["payment_method"] = *patch.PaymentMethod
		}
		if len(updates) == 0 {
			return nil
		}

		// Profit follows the edited figures but reuses the cost captured at
		// creation; the product's current cost basis is never re-read here.
		if patch.Total != nil || patch.Quantity != nil {
			after.Profit = computeProfit(after.Total, after.CostPerUnit, after.Quantity)
			updates["profit"] = after.Profit
		}

		return tx.UpdateSale(ctx, saleID, updates)
	})
	if err != nil {
		return Sale{}, err
	}

	s.reconcile(ctx, scope, before.ClientID)
	if !sameClient(before.ClientID, after.ClientID) {
		s.reconcile(ctx, scope, after.ClientID)
	}
	s.record(ctx, scope, patch.ActorID, "sales:update", after)
	return after, nil
}

// DeleteSale soft-deletes a sale. Administrator only. The client id is
// captured before the row is marked deleted so the balance of the affected
// client can still be reconciled afterwards.
func (s *Service) DeleteSale(ctx context.Context, scope tenant.Scope, saleID int64, actorID int64, role rbac.Role) error {
	if !scope.Valid() {
		return fmt.Errorf("sales: delete: %w", shared.ErrNotFound)
	}
	if !role.IsAdmin() {
		return ErrAdminOnly
	}

	var deleted Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		deleted, err = tx.GetSaleForUpdate(ctx, scope, saleID)
		if err != nil {
			return err
		}
		return tx.SoftDeleteSale(ctx, saleID)
	})
	if err != nil {
		return err
	}

	s.reconcile(ctx, scope, deleted.ClientID)
	s.record(ctx, scope, actorID, "sales:delete", deleted)
	return nil
}

// GetSale fetches one active sale within the tenant scope.
func (s *Service) GetSale(ctx context.Context, scope tenant.Scope, saleID int64) (Sale, error) {
	if !scope.Valid() {
		return Sale{}, fmt.Errorf("sales: get: %w", shared.ErrNotFound)
	}
	return s.repo.GetSale(ctx, scope, saleID)
}

// ListSales returns a filtered, paginated sale listing.
func (s *Service) ListSales(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Sale, shared.Pagination, error) {
	if !scope.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("sales: list: %w", shared.ErrNotFound)
	}
	result, total, err := s.repo.ListSales(ctx, scope, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// reconcile re-derives one client's balance. Failures are logged and
// absorbed: the sale operation has already committed and must not be failed
// by its side-effect path.
func (s *Service) reconcile(ctx context.Context, scope tenant.Scope, clientID *int64) {
	if s.reconciler == nil || clientID == nil {
		return
	}
	if _, err := s.reconciler.RecalculateBalance(ctx, scope, *clientID); err != nil {
		s.logger.Warn("balance reconciliation failed",
			slog.Int64("business_id", scope.BusinessID),
			slog.Int64("client_id", *clientID),
			slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, scope tenant.Scope, actorID int64, action string, sale Sale) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		BusinessID: scope.BusinessID,
		ActorID:    actorID,
		Action:     action,
		Entity:     "sale",
		EntityID:   fmt.Sprintf("%d", sale.ID),
		Meta: map[string]any{
			"reference": sale.Reference,
			"total":     shared.FormatMinorUnits(sale.Total),
			"profit":    sale.Profit,
		},
	})
}

func sameClient(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
