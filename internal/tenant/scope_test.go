package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

func TestScopeValid(t *testing.T) {
	require.True(t, Scope{BusinessID: 1}.Valid())
	require.False(t, Scope{}.Valid())
	require.False(t, Scope{BusinessID: -3}.Valid())
}

func TestScopeCheck(t *testing.T) {
	scope := Scope{BusinessID: 7}

	require.NoError(t, scope.Check(7))

	err := scope.Check(8)
	require.ErrorIs(t, err, shared.ErrNotFound)

	require.ErrorIs(t, Scope{}.Check(0), shared.ErrNotFound)
}

func TestScopeContextRoundTrip(t *testing.T) {
	ctx := WithScope(context.Background(), Scope{BusinessID: 42})
	require.Equal(t, Scope{BusinessID: 42}, FromContext(ctx))

	require.Equal(t, Scope{}, FromContext(context.Background()))
}
