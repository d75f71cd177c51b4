package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetClient(ctx context.Context, scope tenant.Scope, clientID int64) (Client, error)
	ListClients(ctx context.Context, scope tenant.Scope, page, perPage int) ([]Client, int, error)
}

// TxRepository exposes transactional operations used by the balance fold.
type TxRepository interface {
	GetClient(ctx context.Context, scope tenant.Scope, clientID int64) (Client, error)
	GetClientForUpdate(ctx context.Context, scope tenant.Scope, clientID int64) (Client, error)
	ListActiveSales(ctx context.Context, scope tenant.Scope, clientID int64) ([]LedgerSale, error)
	UpdateClientBalance(ctx context.Context, clientID, balance int64) error
}

// Service recomputes client balances from the authoritative sale history.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// RecalculateBalance rebuilds the client's balance from scratch by folding
// over the currently active sales and persists the result. Rebuilding (rather
// than patching incrementally) is what keeps the balance correct after
// administrators edit or delete past sales.
//
// A client that no longer exists is a best-effort skip: the fold is for a
// non-critical side-effect path and must not fail the enclosing operation.
func (s *Service) RecalculateBalance(ctx context.Context, scope tenant.Scope, clientID int64) (int64, error) {
	if !scope.Valid() {
		return 0, fmt.Errorf("clients: recalculate: %w", shared.ErrNotFound)
	}

	var balance int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		client, err := tx.GetClientForUpdate(ctx, scope, clientID)
		if err != nil {
			return err
		}
		sales, err := tx.ListActiveSales(ctx, scope, clientID)
		if err != nil {
			return err
		}
		balance = foldBalance(sales)
		if balance == client.Balance {
			return nil
		}
		return tx.UpdateClientBalance(ctx, client.ID, balance)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("balance recompute skipped, client vanished",
				slog.Int64("business_id", scope.BusinessID),
				slog.Int64("client_id", clientID))
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

// GetClient fetches one client within the tenant scope.
func (s *Service) GetClient(ctx context.Context, scope tenant.Scope, clientID int64) (Client, error) {
	if !scope.Valid() {
		return Client{}, fmt.Errorf("clients: get: %w", shared.ErrNotFound)
	}
	return s.repo.GetClient(ctx, scope, clientID)
}

// ListClients returns a paginated client listing.
func (s *Service) ListClients(ctx context.Context, scope tenant.Scope, page, perPage int) ([]Client, shared.Pagination, error) {
	if !scope.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("clients: list: %w", shared.ErrNotFound)
	}
	result, total, err := s.repo.ListClients(ctx, scope, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(page, perPage, total), nil
}

// GetLedger presents the client's active sales, the derived payment view and
// a freshly folded balance. The stored balance is not trusted here; the fold
// is cheap and the ledger endpoint must never show drift. The projection
// writes nothing, so the client row is read without a lock; the repeatable
// read snapshot keeps the row and its sales consistent.
func (s *Service) GetLedger(ctx context.Context, scope tenant.Scope, clientID int64) (Ledger, error) {
	if !scope.Valid() {
		return Ledger{}, fmt.Errorf("clients: ledger: %w", shared.ErrNotFound)
	}

	var ledger Ledger
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		client, err := tx.GetClient(ctx, scope, clientID)
		if err != nil {
			return err
		}
		sales, err := tx.ListActiveSales(ctx, scope, clientID)
		if err != nil {
			return err
		}
		ledger = Ledger{
			Client:   client,
			Sales:    sales,
			Payments: derivePayments(sales),
			Balance:  foldBalance(sales),
		}
		return nil
	})
	if err != nil {
		return Ledger{}, err
	}
	return ledger, nil
}
