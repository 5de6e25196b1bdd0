package postgres

import (
	"context"
	"fmt"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/pkg/database"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review and fills in its ID.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt).Scan(&rv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "product_id", fmt.Sprint(rv.ProductID))
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// ListByProduct returns a product's reviews, newest first, with the total count.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64, page pagination.Request) (reviews []domain.Review, total int, err error) {
	query := `
		SELECT id, product_id, user_id, rating, comment, created_at, count(*) OVER() AS total_count
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID, page.Take, page.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews = []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, total, nil
}

// Summary returns the rating average and count of a product.
func (r *ReviewRepository) Summary(ctx context.Context, productID int64) (summary domain.ReviewSummary, err error) {
	query := `SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM reviews WHERE product_id = $1`

	ctx, end := database.TraceQuery(ctx, "ReviewSummary", query)
	defer func() { end(err) }()

	var (
		average float64
		count   int
	)
	if err = r.pool.QueryRow(ctx, query, productID).Scan(&average, &count); err != nil {
		return domain.ReviewSummary{}, fmt.Errorf("review summary: %w", err)
	}
	return domain.NewReviewSummary(average, count), nil
}
