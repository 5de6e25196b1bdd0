package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/service"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
	"github.com/Ado-go/farmly-sub001/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// AddItemRequest is the JSON request body for adding an item to the cart.
// Setting event_id adds a pre-order from that event's stall.
type AddItemRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100"`
	EventID   *int64 `json:"event_id" validate:"omitempty,gt=0"`
}

// CartView is the cart as returned to clients.
type CartView struct {
	domain.CartState
	TotalPrice string `json:"total_price"`
	ItemCount  int    `json:"item_count"`
}

// NewCartView adds the derived totals to state.
func NewCartView(state domain.CartState) CartView {
	if state.Lines == nil {
		state.Lines = []domain.CartLine{}
	}
	return CartView{
		CartState:  state,
		TotalPrice: domain.TotalPrice(state).StringFixed(2),
		ItemCount:  domain.ItemCount(state),
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GetCart(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, NewCartView(state))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	state, err := h.service.AddItem(r.Context(), sessionFromContext(r.Context()), service.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		EventID:   req.EventID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, NewCartView(state))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	state, err := h.service.RemoveItem(r.Context(), sessionFromContext(r.Context()), productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, NewCartView(state))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.ClearCart(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, NewCartView(state))
}
