package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

// FarmFilter defines filter criteria for listing farms.
type FarmFilter struct {
	City            *string
	GeohashPrefixes []string
	Page            pagination.Request
}

// FarmRepository defines persistence operations for farms.
type FarmRepository interface {
	// Create inserts a farm and sets its ID. A taken slug yields ErrAlreadyExists.
	Create(ctx context.Context, farm *domain.Farm) error
	GetByID(ctx context.Context, id int64) (*domain.Farm, error)
	Update(ctx context.Context, farm *domain.Farm) error
	List(ctx context.Context, filter FarmFilter) ([]domain.Farm, int, error)
}

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	FarmID   *int64
	Category *string
	Search   *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     pagination.Request
}

// ProductRepository defines persistence operations for farm products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	// GetByID loads a product together with its farm's name.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
}

// EventFilter defines filter criteria for listing events.
type EventFilter struct {
	// EndsAfter keeps only events still running at that time.
	EndsAfter *time.Time
	Page      pagination.Request
}

// EventRepository defines persistence operations for events and their stalls.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]domain.Event, int, error)

	// CreateStallProduct opens a stall entry. A second entry for the same
	// product at the same event yields ErrAlreadyExists.
	CreateStallProduct(ctx context.Context, sp *domain.StallProduct) error
	GetStallProduct(ctx context.Context, eventID, productID int64) (*domain.StallProduct, error)
	ListStallProducts(ctx context.Context, eventID int64, page pagination.Request) ([]domain.StallProduct, int, error)
}

// OrderFilter defines filter criteria for listing a user's orders.
type OrderFilter struct {
	UserID int64
	Status *string
	Page   pagination.Request
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create inserts the order with its items and takes the ordered quantities
	// out of stock, all in one transaction. Insufficient stock yields
	// ErrConflict and a reused checkout key ErrAlreadyExists; in both cases
	// nothing is written.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves the order from one status to another. It yields
	// ErrConflict when the order is no longer in status from.
	UpdateStatus(ctx context.Context, id int64, from, to string) error

	// Cancel marks the order canceled with order.PaymentStatus and puts its
	// items back in stock. It yields ErrConflict when the order is no longer
	// pending or confirmed.
	Cancel(ctx context.Context, order *domain.Order) error

	// SetPaymentStatus moves the payment status from one value to another.
	// It yields ErrConflict when the payment is no longer in status from.
	SetPaymentStatus(ctx context.Context, id int64, from, to string) error

	// ListPendingRefunds returns canceled orders whose refund is pending.
	// Items are not loaded.
	ListPendingRefunds(ctx context.Context, limit int) ([]domain.Order, error)

	// ListExpiredPreorders returns pending pre-orders whose event ended
	// before endedBefore.
	ListExpiredPreorders(ctx context.Context, endedBefore time.Time, limit int) ([]domain.Order, error)
}

// ReviewRepository defines persistence operations for product reviews.
type ReviewRepository interface {
	// Create inserts a review. A second review by the same user for the same
	// product yields ErrAlreadyExists.
	Create(ctx context.Context, review *domain.Review) error
	ListByProduct(ctx context.Context, productID int64, page pagination.Request) ([]domain.Review, int, error)
	Summary(ctx context.Context, productID int64) (domain.ReviewSummary, error)
}

// CartRepository is the durable slot holding each session's cart.
type CartRepository interface {
	// Load returns the stored cart. A missing slot yields ErrNotFound; a
	// malformed one yields an error wrapping domain.ErrInvalidCart.
	Load(ctx context.Context, sessionID string) (domain.CartState, error)
	Save(ctx context.Context, sessionID string, state domain.CartState) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}
