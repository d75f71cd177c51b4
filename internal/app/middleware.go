package app

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger *slog.Logger
	Config *Config
}

// BusinessHeader carries the caller's business id, resolved upstream by the
// session layer which owns authentication.
const BusinessHeader = "X-Business-ID"

// MiddlewareStack installs the Ledgerline middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		httprate.LimitByIP(300, time.Minute),
		secureMiddleware.Handler,
	}
}

// TenantMiddleware resolves the tenant scope from the business header and
// stores it in the request context. Requests without a usable business id are
// rejected before any engine code runs.
func TenantMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			businessID, err := strconv.ParseInt(r.Header.Get(BusinessHeader), 10, 64)
			if err != nil || businessID <= 0 {
				logger.Warn("request without tenant scope", slog.String("path", r.URL.Path))
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "missing or invalid business id")
				return
			}
			ctx := tenant.WithScope(r.Context(), tenant.Scope{BusinessID: businessID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
