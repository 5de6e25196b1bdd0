package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/event"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

// MaxReviewCommentLength is the longest accepted review comment, in runes.
const MaxReviewCommentLength = 2000

// ReviewService implements the business logic for product reviews.
type ReviewService struct {
	repo     repository.ReviewRepository
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, products repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// CreateReviewInput holds the parameters for reviewing a product.
type CreateReviewInput struct {
	Rating  int
	Comment string
}

// ReviewPage is one page of a product's reviews with its rating summary.
type ReviewPage struct {
	Reviews []domain.Review
	Total   int
	Summary domain.ReviewSummary
}

// ListReviews lists a product's reviews with the rating summary.
func (s *ReviewService) ListReviews(ctx context.Context, productID int64, page pagination.Request) (*ReviewPage, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	reviews, total, err := s.repo.ListByProduct(ctx, productID, page)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	summary, err := s.repo.Summary(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("review summary: %w", err)
	}

	return &ReviewPage{Reviews: reviews, Total: total, Summary: summary}, nil
}

// CreateReview records the user's review of a product. A user reviews each
// product once.
func (s *ReviewService) CreateReview(ctx context.Context, userID, productID int64, input *CreateReviewInput) (*domain.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(input.Comment)
	if utf8.RuneCountInString(comment) > MaxReviewCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", MaxReviewCommentLength))
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	review := &domain.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.Int64("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", productID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}
