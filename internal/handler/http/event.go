package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Ado-go/farmly-sub001/internal/service"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
	"github.com/Ado-go/farmly-sub001/pkg/validator"
)

// EventHandler handles HTTP requests for market events and their stalls.
type EventHandler struct {
	service *service.EventService
	pages   Pagination
	logger  *slog.Logger
}

// NewEventHandler creates a new event HTTP handler.
func NewEventHandler(svc *service.EventService, pages Pagination, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: svc, pages: pages, logger: logger}
}

// CreateEventRequest is the JSON request body for creating an event.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,min=2,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Location    string    `json:"location" validate:"required,max=255"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
}

// AddStallProductRequest is the JSON request body for offering a product at
// an event.
type AddStallProductRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price" validate:"money"`
	Stock     int             `json:"stock" validate:"gte=0"`
}

// ListEvents handles GET /api/v1/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	upcoming := false
	if v := queryString(r, "upcoming"); v != nil {
		b, err := strconv.ParseBool(*v)
		if err != nil {
			writeInvalidParameter(w, "upcoming must be true or false")
			return
		}
		upcoming = b
	}

	page := h.pages.fromRequest(r)
	events, total, err := h.service.ListEvents(r.Context(), upcoming, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResponse(events, page, total))
}

// GetEvent handles GET /api/v1/events/{eventId}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "event id", chi.URLParam(r, "eventId"))
	if !ok {
		return
	}

	ev, err := h.service.GetEvent(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, ev)
}

// CreateEvent handles POST /api/v1/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ev, err := h.service.CreateEvent(r.Context(), actorFromRequest(r), &service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, ev)
}

// ListStallProducts handles GET /api/v1/events/{eventId}/products
func (h *EventHandler) ListStallProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "event id", chi.URLParam(r, "eventId"))
	if !ok {
		return
	}

	page := h.pages.fromRequest(r)
	products, total, err := h.service.ListStallProducts(r.Context(), id, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResponse(products, page, total))
}

// AddStallProduct handles POST /api/v1/events/{eventId}/products
func (h *EventHandler) AddStallProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "event id", chi.URLParam(r, "eventId"))
	if !ok {
		return
	}

	var req AddStallProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sp, err := h.service.AddStallProduct(r.Context(), actorFromRequest(r), id, &service.AddStallProductInput{
		ProductID: req.ProductID,
		Price:     req.Price,
		Stock:     req.Stock,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, sp)
}
