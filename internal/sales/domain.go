package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// SaleType distinguishes retail from wholesale pricing.
type SaleType string

const (
	SaleTypeRetail    SaleType = "retail"
	SaleTypeWholesale SaleType = "wholesale"
)

// PaymentStatus tracks whether a sale has been settled.
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

// Sale is one recorded sale line owned by a business.
//
// Profit and CostPerUnit are fixed when the sale is created, using the
// product's cost at that moment. Later restocks change the product's cost
// basis but never a recorded sale's profit, so historical profit reporting
// stays consistent. Sales are soft-deleted so the balance fold always has a
// stable history to replay.
type Sale struct {
	ID            int64         `json:"id"`
	BusinessID    int64         `json:"business_id"`
	Reference     string        `json:"reference"`
	Date          time.Time     `json:"date"`
	ClientID      *int64        `json:"client_id,omitempty"`
	ProductID     *int64        `json:"product_id,omitempty"`
	ProductName   string        `json:"product_name"`
	Quantity      int64         `json:"quantity"`
	UnitPrice     int64         `json:"unit_price"`
	Discount      int64         `json:"discount"`
	Tax           int64         `json:"tax"`
	Total         int64         `json:"total"`
	CostPerUnit   int64         `json:"cost_per_unit"`
	Profit        int64         `json:"profit"`
	SaleType      SaleType      `json:"sale_type"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	CreatedBy     int64         `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty"`
}

// CreateSaleInput carries a sale submission. Discount and tax are pass-through
// amounts already folded into Total by the caller.
type CreateSaleInput struct {
	Date          time.Time
	ClientID      *int64
	ProductID     *int64
	ProductName   string
	Quantity      int64
	UnitPrice     int64
	Discount      int64
	Tax           int64
	Total         int64
	SaleType      SaleType
	PaymentStatus PaymentStatus
	PaymentMethod string
	ActorID       int64
}

// UpdateSaleInput patches an existing sale. Nil fields are left unchanged.
type UpdateSaleInput struct {
	Date          *time.Time
	ClientID      *int64
	Quantity      *int64
	UnitPrice     *int64
	Discount      *int64
	Tax           *int64
	Total         *int64
	SaleType      *SaleType
	PaymentStatus *PaymentStatus
	PaymentMethod *string
	ActorID       int64
}

// ListFilter filters sale listings.
type ListFilter struct {
	ClientID      *int64
	PaymentStatus PaymentStatus
	From          time.Time
	To            time.Time
	Page          int
	PerPage       int
}

var (
	// ErrInvalidQuantity rejects non-positive sale quantities.
	ErrInvalidQuantity = fmt.Errorf("sales: quantity must be positive: %w", shared.ErrInvalidInput)
	// ErrInvalidTotal rejects negative totals.
	ErrInvalidTotal = fmt.Errorf("sales: total must not be negative: %w", shared.ErrInvalidInput)
	// ErrAdminOnly gates sale mutation behind the administrator role.
	ErrAdminOnly = fmt.Errorf("sales: administrator role required: %w", shared.ErrForbidden)
)

const referencePrefix = "SL"

// newReference builds the human-readable sale reference: fixed prefix, compact
// sale date, short random disambiguator. Collisions are not checked; at
// business transaction volumes they are astronomically unlikely, which is an
// accepted simplification rather than a guarantee.
func newReference(date time.Time) string {
	disambiguator := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", referencePrefix, date.Format("20060102"), disambiguator)
}

// computeProfit derives the stored profit: total minus what the sold units
// cost to acquire.
func computeProfit(total, costPerUnit, quantity int64) int64 {
	return total - costPerUnit*quantity
}
