package clients

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// Handler wires HTTP endpoints for the clients module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs clients handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers client routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{clientID}", h.handleGet)
	r.Get("/{clientID}/ledger", h.handleLedger)
	r.Post("/{clientID}/recalculate", h.handleRecalculate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	result, pagination, err := h.service.ListClients(r.Context(), scope, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"clients":    result,
		"pagination": pagination,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	client, err := h.service.GetClient(r.Context(), scope, clientID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	ledger, err := h.service.GetLedger(r.Context(), scope, clientID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid client id")
		return
	}
	balance, err := h.service.RecalculateBalance(r.Context(), scope, clientID)
	if err != nil {
		h.logger.Warn("manual balance recompute failed", slog.Int64("client_id", clientID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"balance": balance})
}
