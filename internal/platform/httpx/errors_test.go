package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("sale 3: %w", shared.ErrNotFound), http.StatusNotFound},
		{"forbidden", fmt.Errorf("update: %w", shared.ErrForbidden), http.StatusForbidden},
		{"invalid input", fmt.Errorf("quantity: %w", shared.ErrInvalidInput), http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			require.Equal(t, tc.code, rr.Code)
			require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}
