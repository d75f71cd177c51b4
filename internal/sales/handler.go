package sales

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/tenant"
)

// Handler wires HTTP endpoints for the sales module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{saleID}", h.handleGet)
	r.Patch("/{saleID}", h.handleUpdate)
	r.Delete("/{saleID}", h.handleDelete)
}

type createSaleRequest struct {
	Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ClientID      *int64 `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	ProductID     *int64 `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	ProductName   string `json:"product_name" validate:"required,max=200"`
	Quantity      int64  `json:"quantity" validate:"required,gt=0"`
	UnitPrice     int64  `json:"unit_price" validate:"gte=0"`
	Discount      int64  `json:"discount" validate:"gte=0"`
	Tax           int64  `json:"tax" validate:"gte=0"`
	Total         int64  `json:"total" validate:"gte=0"`
	SaleType      string `json:"sale_type" validate:"omitempty,oneof=retail wholesale"`
	PaymentStatus string `json:"payment_status" validate:"omitempty,oneof=paid pending"`
	PaymentMethod string `json:"payment_method,omitempty" validate:"omitempty,max=50"`
}

type updateSaleRequest struct {
	Date          *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClientID      *int64  `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	Quantity      *int64  `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice     *int64  `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	Discount      *int64  `json:"discount,omitempty" validate:"omitempty,gte=0"`
	Tax           *int64  `json:"tax,omitempty" validate:"omitempty,gte=0"`
	Total         *int64  `json:"total,omitempty" validate:"omitempty,gte=0"`
	SaleType      *string `json:"sale_type,omitempty" validate:"omitempty,oneof=retail wholesale"`
	PaymentStatus *string `json:"payment_status,omitempty" validate:"omitempty,oneof=paid pending"`
	PaymentMethod *string `json:"payment_method,omitempty" validate:"omitempty,max=50"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())

	var req createSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateSaleInput{
		ActorID:       rbac.ActorFromRequest(r),
		ClientID:      req.ClientID,
		ProductID:     req.ProductID,
		ProductName:   req.ProductName,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		Discount:      req.Discount,
		Tax:           req.Tax,
		Total:         req.Total,
		SaleType:      SaleType(req.SaleType),
		PaymentStatus: PaymentStatus(req.PaymentStatus),
		PaymentMethod: req.PaymentMethod,
	}
	if req.Date != "" {
		date, _ := time.Parse("2006-01-02", req.Date)
		input.Date = date
	}

	sale, err := h.service.CreateSale(r.Context(), scope, input)
	if err != nil {
		h.logger.Warn("create sale failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid sale id")
		return
	}

	var req updateSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	patch := UpdateSaleInput{
		ActorID:   rbac.ActorFromRequest(r),
		ClientID:  req.ClientID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Discount:  req.Discount,
		Tax:       req.Tax,
		Total:     req.Total,
	}
	if req.Date != nil {
		if date, err := time.Parse("2006-01-02", *req.Date); err == nil {
			patch.Date = &date
		}
	}
	if req.SaleType != nil {
		saleType := SaleType(*req.SaleType)
		patch.SaleType = &saleType
	}
	if req.PaymentStatus != nil {
		status := PaymentStatus(*req.PaymentStatus)
		patch.PaymentStatus = &status
	}
	if req.PaymentMethod != nil {
		patch.PaymentMethod = req.PaymentMethod
	}

	sale, err := h.service.UpdateSale(r.Context(), scope, saleID, patch, rbac.FromRequest(r))
	if err != nil {
		h.logger.Warn("update sale failed", slog.Int64("sale_id", saleID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid sale id")
		return
	}
	if err := h.service.DeleteSale(r.Context(), scope, saleID, rbac.ActorFromRequest(r), rbac.FromRequest(r)); err != nil {
		h.logger.Warn("delete sale failed", slog.Int64("sale_id", saleID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid sale id")
		return
	}
	sale, err := h.service.GetSale(r.Context(), scope, saleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	scope := tenant.FromContext(r.Context())
	q := r.URL.Query()

	filter := ListFilter{PaymentStatus: PaymentStatus(q.Get("payment_status"))}
	if clientStr := q.Get("client_id"); clientStr != "" {
		if id, err := strconv.ParseInt(clientStr, 10, 64); err == nil {
			filter.ClientID = &id
		}
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// End of day.
			filter.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("per_page")); err == nil {
		filter.PerPage = perPage
	}

	result, pagination, err := h.service.ListSales(r.Context(), scope, filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sales":      result,
		"pagination": pagination,
	})
}
