// Package ledger exposes the in-process boundary of the transactional ledger
// and inventory costing engine.
//
// The engine sequences three components per entry point: the tenant scope
// guard, then the inventory costing or sale transaction component, then — when
// a client is referenced — balance reconciliation. The costing and sale steps
// are atomic database transactions; reconciliation after a committed sale is
// best-effort and never fails the operation that triggered it.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ledgerline/ledgerline/internal/inventory"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/sales"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// InventoryService is the costing component consumed by the engine.
type InventoryService interface {
	Restock(ctx context.Context, scope tenant.Scope, input inventory.RestockInput) (inventory.Product, error)
}

// SalesService is the sale transaction component consumed by the engine.
type SalesService interface {
	CreateSale(ctx context.Context, scope tenant.Scope, input sales.CreateSaleInput) (sales.Sale, error)
	UpdateSale(ctx context.Context, scope tenant.Scope, saleID int64, patch sales.UpdateSaleInput, role rbac.Role) (sales.Sale, error)
	DeleteSale(ctx context.Context, scope tenant.Scope, saleID int64, actorID int64, role rbac.Role) error
}

// ClientsService is the balance reconciliation component consumed by the engine.
type ClientsService interface {
	RecalculateBalance(ctx context.Context, scope tenant.Scope, clientID int64) (int64, error)
}

// Engine is the single in-process entry point collaborators call into.
type Engine struct {
	inventory InventoryService
	sales     SalesService
	clients   ClientsService
	logger    *slog.Logger
}

// NewEngine builds Engine.
func NewEngine(inv InventoryService, sal SalesService, cli ClientsService, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{inventory: inv, sales: sal, clients: cli, logger: logger}
}

// Restock folds a delivery into a product's stock and cost basis.
func (e *Engine) Restock(ctx context.Context, scope tenant.Scope, input inventory.RestockInput) (inventory.Product, error) {
	if !scope.Valid() {
		return inventory.Product{}, fmt.Errorf("ledger: restock: %w", shared.ErrNotFound)
	}
	return e.inventory.Restock(ctx, scope, input)
}

// CreateSale records a sale and reconciles the attached client, if any.
func (e *Engine) CreateSale(ctx context.Context, scope tenant.Scope, input sales.CreateSaleInput) (sales.Sale, error) {
	if !scope.Valid() {
		return sales.Sale{}, fmt.Errorf("ledger: create sale: %w", shared.ErrNotFound)
	}
	return e.sales.CreateSale(ctx, scope, input)
}

// UpdateSale applies an administrator patch to a sale.
func (e *Engine) UpdateSale(ctx context.Context, scope tenant.Scope, saleID int64, patch sales.UpdateSaleInput, role rbac.Role) (sales.Sale, error) {
	if !scope.Valid() {
		return sales.Sale{}, fmt.Errorf("ledger: update sale: %w", shared.ErrNotFound)
	}
	return e.sales.UpdateSale(ctx, scope, saleID, patch, role)
}

// DeleteSale soft-deletes a sale and reconciles the affected client.
func (e *Engine) DeleteSale(ctx context.Context, scope tenant.Scope, saleID int64, actorID int64, role rbac.Role) error {
	if !scope.Valid() {
		return fmt.Errorf("ledger: delete sale: %w", shared.ErrNotFound)
	}
	return e.sales.DeleteSale(ctx, scope, saleID, actorID, role)
}

// RecalculateBalance rebuilds one client's balance from the active sale history.
func (e *Engine) RecalculateBalance(ctx context.Context, scope tenant.Scope, clientID int64) (int64, error) {
	if !scope.Valid() {
		return 0, fmt.Errorf("ledger: recalculate balance: %w", shared.ErrNotFound)
	}
	return e.clients.RecalculateBalance(ctx, scope, clientID)
}
