package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, RoleStaff, FromRequest(req))

	req.Header.Set(RoleHeader, "admin")
	require.Equal(t, RoleAdmin, FromRequest(req))

	req.Header.Set(RoleHeader, " Admin ")
	require.Equal(t, RoleAdmin, FromRequest(req))

	req.Header.Set(RoleHeader, "superuser")
	require.Equal(t, RoleStaff, FromRequest(req))
}

func TestActorFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, int64(0), ActorFromRequest(req))

	req.Header.Set(ActorHeader, "42")
	require.Equal(t, int64(42), ActorFromRequest(req))

	req.Header.Set(ActorHeader, " 7 ")
	require.Equal(t, int64(7), ActorFromRequest(req))

	req.Header.Set(ActorHeader, "-3")
	require.Equal(t, int64(0), ActorFromRequest(req))

	req.Header.Set(ActorHeader, "abc")
	require.Equal(t, int64(0), ActorFromRequest(req))
}

func TestIsAdmin(t *testing.T) {
	require.True(t, RoleAdmin.IsAdmin())
	require.False(t, RoleStaff.IsAdmin())
	require.False(t, Role("").IsAdmin())
}
