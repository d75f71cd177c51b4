package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, scope tenant.Scope, productID int64) (Product, error)
	ListProducts(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Product, int, error)
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, scope tenant.Scope, productID int64) (Product, error)
	UpdateProductCosting(ctx context.Context, product Product) error
	SupplierExists(ctx context.Context, scope tenant.Scope, supplierID int64) (bool, error)
	SetProductSupplier(ctx context.Context, productID, supplierID int64) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort reserves restock dedupe keys and releases them when the
// guarded posting fails.
type IdempotencyPort interface {
	Reserve(ctx context.Context, key, module string) error
	Release(ctx context.Context, key string) error
}

// Service coordinates inventory costing operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, idempotency: idem, logger: logger}
}

// Restock folds one delivery into the product's stock and weighted-average
// cost basis. The read of the current pair and the write of the new pair run
// inside one transaction with the product row locked, so concurrent restocks
// on the same product serialize instead of losing an update.
//
// A supplier id that does not resolve within the tenant scope is skipped
// without failing the restock.
func (s *Service) Restock(ctx context.Context, scope tenant.Scope, input RestockInput) (Product, error) {
	if !scope.Valid() {
		return Product{}, fmt.Errorf("inventory: restock: %w", shared.ErrNotFound)
	}
	if input.Quantity <= 0 {
		return Product{}, ErrInvalidQuantity
	}
	if input.TotalCost < 0 {
		return Product{}, ErrInvalidCost
	}

	reserved := false
	key := ""
	if s.idempotency != nil && input.Reference != "" {
		key = shared.RestockKey(scope.BusinessID, input.ProductID, input.Reference)
		if err := s.idempotency.Reserve(ctx, key, shared.ModuleInventory); err != nil {
			return Product{}, err
		}
		reserved = true
	}

	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, scope, input.ProductID)
		if err != nil {
			return err
		}
		applyRestock(&product, input.Quantity, input.TotalCost)

		if input.SupplierID != nil {
			ok, err := tx.SupplierExists(ctx, scope, *input.SupplierID)
			if err != nil {
				return err
			}
			if ok {
				product.SupplierID = input.SupplierID
				if err := tx.SetProductSupplier(ctx, product.ID, *input.SupplierID); err != nil {
					return err
				}
			} else {
				s.logger.Warn("restock: supplier not in scope, linkage skipped",
					slog.Int64("business_id", scope.BusinessID),
					slog.Int64("supplier_id", *input.SupplierID))
			}
		}

		if err := tx.UpdateProductCosting(ctx, product); err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		if reserved {
			_ = s.idempotency.Release(ctx, key)
		}
		return Product{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			BusinessID: scope.BusinessID,
			ActorID:    input.ActorID,
			Action:     "inventory:restock",
			Entity:     "product",
			EntityID:   fmt.Sprintf("%d", updated.ID),
			Meta: map[string]any{
				"quantity":   input.Quantity,
				"total_cost": shared.FormatMinorUnits(input.TotalCost),
				"cost_basis": updated.CostBasis,
				"stock":      updated.Stock,
			},
		})
	}
	return updated, nil
}

// GetProduct fetches one product within the tenant scope.
func (s *Service) GetProduct(ctx context.Context, scope tenant.Scope, productID int64) (Product, error) {
	if !scope.Valid() {
		return Product{}, fmt.Errorf("inventory: get product: %w", shared.ErrNotFound)
	}
	return s.repo.GetProduct(ctx, scope, productID)
}

// ListProducts returns a paginated product listing within the tenant scope.
func (s *Service) ListProducts(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Product, shared.Pagination, error) {
	if !scope.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("inventory: list products: %w", shared.ErrNotFound)
	}
	products, total, err := s.repo.ListProducts(ctx, scope, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return products, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}
