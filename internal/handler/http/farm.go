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

// FarmHandler handles HTTP requests for farm endpoints.
type FarmHandler struct {
	service *service.FarmService
	pages   Pagination
	logger  *slog.Logger
}

// NewFarmHandler creates a new farm HTTP handler.
func NewFarmHandler(svc *service.FarmService, pages Pagination, logger *slog.Logger) *FarmHandler {
	return &FarmHandler{service: svc, pages: pages, logger: logger}
}

// CreateFarmRequest is the JSON request body for creating a farm.
type CreateFarmRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=120"`
	Description string   `json:"description" validate:"max=5000"`
	City        string   `json:"city" validate:"required,max=120"`
	Address     string   `json:"address" validate:"max=255"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// UpdateFarmRequest is the JSON request body for updating a farm.
type UpdateFarmRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	City        *string  `json:"city" validate:"omitempty,max=120"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// ListFarms handles GET /api/v1/farms
func (h *FarmHandler) ListFarms(w http.ResponseWriter, r *http.Request) {
	lat, ok := queryFloat(w, r, "lat")
	if !ok {
		return
	}
	lng, ok := queryFloat(w, r, "lng")
	if !ok {
		return
	}
	radius, ok := queryFloat(w, r, "radius_km")
	if !ok {
		return
	}

	input := service.ListFarmsInput{
		City:      queryString(r, "city"),
		Latitude:  lat,
		Longitude: lng,
		Page:      h.pages.fromRequest(r),
	}
	if radius != nil {
		input.RadiusKm = *radius
	}

	farms, total, err := h.service.ListFarms(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResponse(farms, input.Page, total))
}

// GetFarm handles GET /api/v1/farms/{farmId}
func (h *FarmHandler) GetFarm(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "farm id", chi.URLParam(r, "farmId"))
	if !ok {
		return
	}

	farm, err := h.service.GetFarm(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, farm)
}

// CreateFarm handles POST /api/v1/farms
func (h *FarmHandler) CreateFarm(w http.ResponseWriter, r *http.Request) {
	var req CreateFarmRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	farm, err := h.service.CreateFarm(r.Context(), actorFromRequest(r), &service.CreateFarmInput{
		Name:        req.Name,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, farm)
}

// UpdateFarm handles PUT /api/v1/farms/{farmId}
func (h *FarmHandler) UpdateFarm(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "farm id", chi.URLParam(r, "farmId"))
	if !ok {
		return
	}

	var req UpdateFarmRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	farm, err := h.service.UpdateFarm(r.Context(), actorFromRequest(r), id, &service.UpdateFarmInput{
		Name:        req.Name,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, farm)
}
