package clients

import "time"

// Client is a customer account owned by one business.
//
// Balance is a signed running total in minor currency units: negative means
// the client owes money, positive means the client holds credit. It is derived
// from the active sale history by RecalculateBalance and is never edited once
// ledger events exist.
type Client struct {
	ID         int64      `json:"id"`
	BusinessID int64      `json:"business_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Balance    int64      `json:"balance"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// LedgerSale is the projection of one active sale used by the balance fold.
type LedgerSale struct {
	SaleID    int64     `json:"sale_id"`
	Reference string    `json:"reference"`
	Date      time.Time `json:"date"`
	Total     int64     `json:"total"`
	Paid      bool      `json:"paid"`
}

// Payment is a derived view entry synthesized from paid sales; no independent
// payment rows exist.
type Payment struct {
	SaleID    int64     `json:"sale_id"`
	Reference string    `json:"reference"`
	Date      time.Time `json:"date"`
	Amount    int64     `json:"amount"`
}

// Ledger presents a client's history alongside the freshly derived balance.
type Ledger struct {
	Client   Client       `json:"client"`
	Sales    []LedgerSale `json:"sales"`
	Payments []Payment    `json:"payments"`
	Balance  int64        `json:"balance"`
}

// foldBalance rebuilds the balance from scratch: a paid sale has already
// settled, an unpaid sale increases what the client owes.
func foldBalance(sales []LedgerSale) int64 {
	var balance int64
	for _, sale := range sales {
		if !sale.Paid {
			balance -= sale.Total
		}
	}
	return balance
}

// derivePayments synthesizes the payment view from paid sales.
func derivePayments(sales []LedgerSale) []Payment {
	var payments []Payment
	for _, sale := range sales {
		if sale.Paid {
			payments = append(payments, Payment{
				SaleID:    sale.SaleID,
				Reference: sale.Reference,
				Date:      sale.Date,
				Amount:    sale.Total,
			})
		}
	}
	return payments
}
