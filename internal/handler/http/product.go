package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Ado-go/farmly-sub001/internal/repository"
	"github.com/Ado-go/farmly-sub001/internal/service"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
	"github.com/Ado-go/farmly-sub001/pkg/validator"
)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.ProductService
	pages   Pagination
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, pages Pagination, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, pages: pages, logger: logger}
}

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	FarmID      int64           `json:"farm_id" validate:"required,gt=0"`
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Category    string          `json:"category" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest is the JSON request body for updating a product.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,money"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	farmID, ok := queryInt64(w, r, "farm_id")
	if !ok {
		return
	}
	minPrice, ok := queryDecimal(w, r, "min_price")
	if !ok {
		return
	}
	maxPrice, ok := queryDecimal(w, r, "max_price")
	if !ok {
		return
	}

	filter := repository.ProductFilter{
		FarmID:   farmID,
		Category: queryString(r, "category"),
		Search:   queryString(r, "q"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Page:     h.pages.fromRequest(r),
	}

	products, total, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pagination.NewResponse(products, filter.Page, total))
}

// GetProduct handles GET /api/v1/products/{productId}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), actorFromRequest(r), &service.CreateProductInput{
		FarmID:      req.FarmID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{productId}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), actorFromRequest(r), id, &service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/{productId}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), actorFromRequest(r), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
