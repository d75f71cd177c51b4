package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

type memoryRepo struct {
	products  map[int64]Product
	suppliers map[int64]int64 // supplier id -> owning business id
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), suppliers: make(map[int64]int64)}
}

type memoryTx struct {
	repo *memoryRepo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetProduct(ctx context.Context, scope tenant.Scope, productID int64) (Product, error) {
	p, ok := r.products[productID]
	if !ok || p.BusinessID != scope.BusinessID || p.DeletedAt != nil {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context, scope tenant.Scope, filter ListFilter) ([]Product, int, error) {
	var result []Product
	for _, p := range r.products {
		if p.BusinessID == scope.BusinessID && p.DeletedAt == nil {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

func (tx *memoryTx) GetProductForUpdate(ctx context.Context, scope tenant.Scope, productID int64) (Product, error) {
	return tx.repo.GetProduct(ctx, scope, productID)
}

func (tx *memoryTx) UpdateProductCosting(ctx context.Context, product Product) error {
	tx.repo.products[product.ID] = product
	return nil
}

func (tx *memoryTx) SupplierExists(ctx context.Context, scope tenant.Scope, supplierID int64) (bool, error) {
	owner, ok := tx.repo.suppliers[supplierID]
	return ok && owner == scope.BusinessID, nil
}

func (tx *memoryTx) SetProductSupplier(ctx context.Context, productID, supplierID int64) error {
	p := tx.repo.products[productID]
	p.SupplierID = &supplierID
	tx.repo.products[productID] = p
	return nil
}

type memoryIdem struct {
	keys     map[string]string
	released []string
}

func newMemoryIdem() *memoryIdem {
	return &memoryIdem{keys: make(map[string]string)}
}

func (m *memoryIdem) Reserve(ctx context.Context, key, module string) error {
	if _, ok := m.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = module
	return nil
}

func (m *memoryIdem) Release(ctx context.Context, key string) error {
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

func TestWeightedAverageCosting(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = Product{ID: 1, BusinessID: 1, Name: "Sewing machine", Stock: 8, CostBasis: 1400}
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	scope := tenant.Scope{BusinessID: 1}

	// Same unit cost leaves the basis unchanged.
	p, err := svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: 12, TotalCost: 16800})
	require.NoError(t, err)
	require.Equal(t, int64(20), p.Stock)
	require.Equal(t, int64(1400), p.CostBasis)
	require.Equal(t, int64(1400), p.AcquisitionCost)

	// Pricier delivery blends proportionally: (20*1400 + 10*2000) / 30 = 1600.
	p, err = svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: 10, TotalCost: 20000})
	require.NoError(t, err)
	require.Equal(t, int64(30), p.Stock)
	require.Equal(t, int64(1600), p.CostBasis)
	require.Equal(t, int64(2000), p.AcquisitionCost)
}

func TestWeightedAverageInvariant(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = Product{ID: 1, BusinessID: 1, Name: "Fabric roll"}
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	scope := tenant.Scope{BusinessID: 1}

	deliveries := []struct{ qty, total int64 }{
		{3, 901}, {7, 2100}, {5, 1750}, {10, 990}, {1, 333},
	}
	var sumQty, sumValue int64
	var p Product
	var err error
	for _, d := range deliveries {
		p, err = svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: d.qty, TotalCost: d.total})
		require.NoError(t, err)
		sumQty += d.qty
		sumValue += d.total
	}
	require.Equal(t, sumQty, p.Stock)
	// Each operation rounds at most once, so drift stays within one unit per restock.
	require.InDelta(t, float64(shared.RoundDiv(sumValue, sumQty)), float64(p.CostBasis), float64(len(deliveries)))
}

func TestRestockFromEmptyStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = Product{ID: 1, BusinessID: 1, Name: "Thread spool"}
	svc := NewService(repo, nil, nil, nil)

	p, err := svc.Restock(context.Background(), tenant.Scope{BusinessID: 1}, RestockInput{ProductID: 1, Quantity: 5, TotalCost: 1000})
	require.NoError(t, err)
	require.Equal(t, int64(5), p.Stock)
	require.Equal(t, int64(200), p.CostBasis)
}

func TestRestockValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = Product{ID: 1, BusinessID: 1}
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	scope := tenant.Scope{BusinessID: 1}

	_, err := svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: 0, TotalCost: 100})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: -4, TotalCost: 100})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: 4, TotalCost: -1})
	require.ErrorIs(t, err, ErrInvalidCost)

	// Failed validation must not touch the stored product.
	require.Equal(t, int64(0), repo.products[1].Stock)
}

func TestRestockTenantIsolation(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[7] = Product{ID: 7, BusinessID: 2, Stock: 3, CostBasis: 500}
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Restock(context.Background(), tenant.Scope{BusinessID: 1}, RestockInput{ProductID: 7, Quantity: 1, TotalCost: 500})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, int64(3), repo.products[7].Stock)

	_, err = svc.GetProduct(context.Background(), tenant.Scope{BusinessID: 1}, 7)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRestockMissingProduct(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	_, err := svc.Restock(context.Background(), tenant.Scope{BusinessID: 1}, RestockInput{ProductID: 99, Quantity: 1, TotalCost: 100})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRestockSupplierLinkage(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = Product{ID: 1, BusinessID: 1}
	repo.suppliers[10] = 1
	repo.suppliers[11] = 2
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	scope := tenant.Scope{BusinessID: 1}

	otherTenant := int64(11)
	p, err := svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: 2, TotalCost: 400, SupplierID: &otherTenant})
	require.NoError(t, err, "unresolvable supplier must not fail the restock")
	require.Nil(t, p.SupplierID)
	require.Equal(t, int64(2), p.Stock)

	mine := int64(10)
	p, err = svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: 2, TotalCost: 400, SupplierID: &mine})
	require.NoError(t, err)
	require.NotNil(t, p.SupplierID)
	require.Equal(t, mine, *p.SupplierID)
}

func TestRestockDuplicateReference(t *testing.T) {
	repo := newMemoryRepo()
	repo.products[1] = Product{ID: 1, BusinessID: 1, Stock: 8, CostBasis: 1400}
	idem := newMemoryIdem()
	svc := NewService(repo, nil, idem, nil)
	ctx := context.Background()
	scope := tenant.Scope{BusinessID: 1}

	p, err := svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: 12, TotalCost: 16800, Reference: "DN-100"})
	require.NoError(t, err)
	require.Equal(t, int64(20), p.Stock)

	// Replaying the same delivery note must not double-post.
	_, err = svc.Restock(ctx, scope, RestockInput{ProductID: 1, Quantity: 12, TotalCost: 16800, Reference: "DN-100"})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, int64(20), repo.products[1].Stock)
}

func TestRestockReleasesKeyWhenPostingFails(t *testing.T) {
	idem := newMemoryIdem()
	svc := NewService(newMemoryRepo(), nil, idem, nil)
	ctx := context.Background()
	scope := tenant.Scope{BusinessID: 1}
	input := RestockInput{ProductID: 99, Quantity: 1, TotalCost: 100, Reference: "DN-7"}

	_, err := svc.Restock(ctx, scope, input)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, []string{shared.RestockKey(1, 99, "DN-7")}, idem.released)
	require.Empty(t, idem.keys, "failed posting must free the key for a retry")

	// The retry is not treated as a duplicate.
	_, err = svc.Restock(ctx, scope, input)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListProductsRequiresScope(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	_, _, err := svc.ListProducts(context.Background(), tenant.Scope{}, ListFilter{})
	require.True(t, errors.Is(err, shared.ErrNotFound))
}
