package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ado-go/farmly-sub001/internal/service"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
	"github.com/Ado-go/farmly-sub001/pkg/validator"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	pages   Pagination
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, pages Pagination, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, pages: pages, logger: logger}
}

// UpdateStatusRequest is the JSON request body for moving an order along.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed ready completed canceled"`
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := h.pages.fromRequest(r)
	orders, total, err := h.service.ListOrders(r.Context(), actorFromRequest(r).UserID, queryString(r, "status"), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResponse(orders, page, total))
}

// GetOrder handles GET /api/v1/orders/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), actorFromRequest(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// CancelOrder handles POST /api/v1/orders/{orderId}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	order, err := h.service.CancelOrder(r.Context(), actorFromRequest(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/v1/orders/{orderId}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "order id", chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, order)
}
