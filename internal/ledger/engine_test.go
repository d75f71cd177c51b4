package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/inventory"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/sales"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

type stubInventory struct {
	calls int
}

func (s *stubInventory) Restock(ctx context.Context, scope tenant.Scope, input inventory.RestockInput) (inventory.Product, error) {
	s.calls++
	return inventory.Product{ID: input.ProductID, BusinessID: scope.BusinessID}, nil
}

type stubSales struct {
	created int
	updated int
	deleted int
}

func (s *stubSales) CreateSale(ctx context.Context, scope tenant.Scope, input sales.CreateSaleInput) (sales.Sale, error) {
	s.created++
	return sales.Sale{BusinessID: scope.BusinessID}, nil
}

func (s *stubSales) UpdateSale(ctx context.Context, scope tenant.Scope, saleID int64, patch sales.UpdateSaleInput, role rbac.Role) (sales.Sale, error) {
	if !role.IsAdmin() {
		return sales.Sale{}, sales.ErrAdminOnly
	}
	s.updated++
	return sales.Sale{ID: saleID}, nil
}

func (s *stubSales) DeleteSale(ctx context.Context, scope tenant.Scope, saleID int64, actorID int64, role rbac.Role) error {
	if !role.IsAdmin() {
		return sales.ErrAdminOnly
	}
	s.deleted++
	return nil
}

type stubClients struct {
	calls int
}

func (s *stubClients) RecalculateBalance(ctx context.Context, scope tenant.Scope, clientID int64) (int64, error) {
	s.calls++
	return -7000, nil
}

func TestEngineRejectsInvalidScope(t *testing.T) {
	inv := &stubInventory{}
	sal := &stubSales{}
	cli := &stubClients{}
	engine := NewEngine(inv, sal, cli, nil)
	ctx := context.Background()
	none := tenant.Scope{}

	_, err := engine.Restock(ctx, none, inventory.RestockInput{ProductID: 1, Quantity: 1, TotalCost: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = engine.CreateSale(ctx, none, sales.CreateSaleInput{ProductName: "x", Quantity: 1, Total: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = engine.UpdateSale(ctx, none, 1, sales.UpdateSaleInput{}, rbac.RoleAdmin)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.ErrorIs(t, engine.DeleteSale(ctx, none, 1, 1, rbac.RoleAdmin), shared.ErrNotFound)

	_, err = engine.RecalculateBalance(ctx, none, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)

	// No component was reached.
	require.Zero(t, inv.calls)
	require.Zero(t, sal.created+sal.updated+sal.deleted)
	require.Zero(t, cli.calls)
}

func TestEngineDelegates(t *testing.T) {
	inv := &stubInventory{}
	sal := &stubSales{}
	cli := &stubClients{}
	engine := NewEngine(inv, sal, cli, nil)
	ctx := context.Background()
	scope := tenant.Scope{BusinessID: 1}

	_, err := engine.Restock(ctx, scope, inventory.RestockInput{ProductID: 1, Quantity: 1, TotalCost: 1})
	require.NoError(t, err)

	_, err = engine.CreateSale(ctx, scope, sales.CreateSaleInput{ProductName: "x", Quantity: 1, Total: 1})
	require.NoError(t, err)

	_, err = engine.UpdateSale(ctx, scope, 1, sales.UpdateSaleInput{}, rbac.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteSale(ctx, scope, 1, 1, rbac.RoleAdmin))

	balance, err := engine.RecalculateBalance(ctx, scope, 9)
	require.NoError(t, err)
	require.Equal(t, int64(-7000), balance)

	require.Equal(t, 1, inv.calls)
	require.Equal(t, 1, sal.created)
	require.Equal(t, 1, sal.updated)
	require.Equal(t, 1, sal.deleted)
	require.Equal(t, 1, cli.calls)
}

func TestEngineRoleGatePropagates(t *testing.T) {
	engine := NewEngine(&stubInventory{}, &stubSales{}, &stubClients{}, nil)
	scope := tenant.Scope{BusinessID: 1}

	_, err := engine.UpdateSale(context.Background(), scope, 1, sales.UpdateSaleInput{}, rbac.RoleStaff)
	require.ErrorIs(t, err, shared.ErrForbidden)

	require.ErrorIs(t, engine.DeleteSale(context.Background(), scope, 1, 1, rbac.RoleStaff), shared.ErrForbidden)
}
