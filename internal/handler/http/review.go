package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/service"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
	"github.com/Ado-go/farmly-sub001/pkg/validator"
)

// ReviewHandler handles HTTP requests for product review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	pages   Pagination
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, pages Pagination, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, pages: pages, logger: logger}
}

// CreateReviewRequest is the JSON request body for reviewing a product.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// reviewList is a page of reviews together with the product's summary.
type reviewList struct {
	pagination.Response[domain.Review]
	Summary domain.ReviewSummary `json:"summary"`
}

// ListReviews handles GET /api/v1/products/{productId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	page := h.pages.fromRequest(r)
	result, err := h.service.ListReviews(r.Context(), productID, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, reviewList{
		Response: pagination.NewResponse(result.Reviews, page, result.Total),
		Summary:  result.Summary,
	})
}

// CreateReview handles POST /api/v1/products/{productId}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "product id", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.CreateReview(r.Context(), actorFromRequest(r).UserID, productID, &service.CreateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, review)
}
