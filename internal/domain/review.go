package domain

import (
	"math"
	"time"
)

// Review is a customer's rating of a product. A user reviews a product once.
type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewSummary holds aggregate review statistics for a product.
type ReviewSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalCount    int     `json:"total_count"`
}

// NewReviewSummary rounds the average to one decimal.
func NewReviewSummary(average float64, count int) ReviewSummary {
	if count == 0 {
		return ReviewSummary{}
	}
	return ReviewSummary{
		AverageRating: math.Round(average*10) / 10,
		TotalCount:    count,
	}
}
