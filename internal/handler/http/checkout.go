package http

import (
	"log/slog"
	"net/http"

	"github.com/Ado-go/farmly-sub001/internal/service"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
	"github.com/Ado-go/farmly-sub001/pkg/middleware"
	"github.com/Ado-go/farmly-sub001/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// CustomerRequest holds the contact details sent with a checkout.
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Address string `json:"address" validate:"max=500"`
}

// CheckoutRequest is the JSON request body for placing an order from the
// session's cart.
type CheckoutRequest struct {
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card"`
	CardToken     string          `json:"card_token" validate:"required_if=PaymentMethod card"`
	Customer      CustomerRequest `json:"customer"`
}

// Checkout handles POST /api/v1/checkout. An Idempotency-Key header marks
// resubmissions of the same attempt.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	var userID *int64
	if id := middleware.UserIDFromContext(r.Context()); id > 0 {
		userID = &id
	}

	order, err := h.service.Checkout(r.Context(), sessionFromContext(r.Context()), userID, &service.CheckoutInput{
		PaymentMethod:  req.PaymentMethod,
		CardToken:      req.CardToken,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		Customer: service.CustomerInput{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		},
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}
