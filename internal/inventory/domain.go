package inventory

import (
	"fmt"
	"time"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Product is a stocked item owned by exactly one business.
//
// CostBasis is the weighted-average acquisition cost per unit of the stock on
// hand, blending every historical delivery proportionally to quantity. It is
// recomputed on every restock and never holds a stale one-time purchase price.
// AcquisitionCost is the per-unit cost of the most recent delivery only.
type Product struct {
	ID              int64      `json:"id"`
	BusinessID      int64      `json:"business_id"`
	Name            string     `json:"name"`
	Category        string     `json:"category,omitempty"`
	Stock           int64      `json:"stock"`
	CostBasis       int64      `json:"cost_basis"`
	AcquisitionCost int64      `json:"acquisition_cost"`
	RetailPrice     int64      `json:"retail_price"`
	SupplierID      *int64     `json:"supplier_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// RestockInput describes one stock delivery: a quantity added and the total
// amount paid for it, in minor currency units.
type RestockInput struct {
	ProductID  int64
	Quantity   int64
	TotalCost  int64
	SupplierID *int64
	ActorID    int64
	Reference  string
}

// ListFilter filters product listings.
type ListFilter struct {
	Category string
	Search   string
	Page     int
	PerPage  int
}

var (
	// ErrInvalidQuantity rejects non-positive restock quantities.
	ErrInvalidQuantity = fmt.Errorf("inventory: quantity must be positive: %w", shared.ErrInvalidInput)
	// ErrInvalidCost rejects negative total costs.
	ErrInvalidCost = fmt.Errorf("inventory: total cost must not be negative: %w", shared.ErrInvalidInput)
)

// applyRestock folds one delivery into the product's stock and cost basis
// using moving-average valuation: the new basis is total value on hand divided
// by total units on hand, rounded to the smallest currency unit.
func applyRestock(p *Product, quantity, totalCost int64) {
	newUnits := p.Stock + quantity
	newValue := p.Stock*p.CostBasis + totalCost
	p.Stock = newUnits
	p.CostBasis = shared.RoundDiv(newValue, newUnits)
	p.AcquisitionCost = shared.RoundDiv(totalCost, quantity)
}
