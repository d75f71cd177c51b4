package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// Handler wires HTTP endpoints for the inventory module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{productID}", h.handleGet)
	r.Post("/{productID}/restock", h.handleRestock)
}

type restockRequest struct {
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	TotalCost  int64  `json:"total_cost" validate:"gte=0"`
	SupplierID *int64 `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	Reference  string `json:"reference,omitempty" validate:"omitempty,max=100"`
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}

	var req restockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	product, err := h.service.Restock(r.Context(), scope, RestockInput{
		ProductID:  productID,
		ActorID:    rbac.ActorFromRequest(r),
		Quantity:   req.Quantity,
		TotalCost:  req.TotalCost,
		SupplierID: req.SupplierID,
		Reference:  req.Reference,
	})
	if err != nil {
		h.logger.Warn("restock failed", slog.Int64("product_id", productID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	product, err := h.service.GetProduct(r.Context(), scope, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	q := r.URL.Query()
	filter := ListFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil {
		filter.PerPage = perPage
	}

	products, page, err := h.service.ListProducts(r.Context(), scope, filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": page,
	})
}
