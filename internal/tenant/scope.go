// Package tenant binds every engine operation to one business.
package tenant

import (
	"context"
	"fmt"

	"github.com/ledgerline/ledgerline/internal/shared"
)

// Scope identifies the business whose records an operation may touch.
// Repositories filter every query by the scope; a record owned by another
// business is indistinguishable from an absent one.
type Scope struct {
	BusinessID int64
}

// Valid reports whether the scope names a concrete business.
func (s Scope) Valid() bool {
	return s.BusinessID > 0
}

// Check returns ErrNotFound unless ownerID matches the scope. It is the
// precondition guard applied after loading any record by id.
func (s Scope) Check(ownerID int64) error {
	if !s.Valid() || ownerID != s.BusinessID {
		return fmt.Errorf("tenant: business %d: %w", s.BusinessID, shared.ErrNotFound)
	}
	return nil
}

type scopeContextKey struct{}

// WithScope stores the tenant scope in context.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// FromContext extracts the tenant scope from context. The zero scope is
// returned when none was set; callers must reject it via Valid.
func FromContext(ctx context.Context) Scope {
	scope, _ := ctx.Value(scopeContextKey{}).(Scope)
	return scope
}
