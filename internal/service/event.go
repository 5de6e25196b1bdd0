package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

// EventService implements the business logic for market events and their
// stalls.
type EventService struct {
	repo     repository.EventRepository
	products repository.ProductRepository
	farms    repository.FarmRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewEventService creates a new event service.
func NewEventService(repo repository.EventRepository, products repository.ProductRepository, farms repository.FarmRepository, logger *slog.Logger) *EventService {
	return &EventService{
		repo:     repo,
		products: products,
		farms:    farms,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateEventInput holds the parameters for creating an event.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      time.Time
}

// AddStallProductInput holds the parameters for offering a product at an
// event.
type AddStallProductInput struct {
	ProductID int64
	Price     decimal.Decimal
	Stock     int
}

// CreateEvent creates an event organized by the actor.
func (s *EventService) CreateEvent(ctx context.Context, actor domain.Actor, input *CreateEventInput) (*domain.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.InvalidInput("event title is required")
	}
	if input.StartsAt.IsZero() || input.EndsAt.IsZero() {
		return nil, apperrors.InvalidInput("starts_at and ends_at are required")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, apperrors.InvalidInput("ends_at must be after starts_at")
	}

	now := s.now()
	event := &domain.Event{
		OrganizerID: actor.UserID,
		Title:       title,
		Description: input.Description,
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt.UTC(),
		EndsAt:      input.EndsAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.InfoContext(ctx, "event created",
		slog.Int64("event_id", event.ID),
		slog.Time("starts_at", event.StartsAt),
	)

	return event, nil
}

// GetEvent retrieves an event by its ID.
func (s *EventService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListEvents lists events by start time. With upcoming set only events that
// have not ended yet are returned.
func (s *EventService) ListEvents(ctx context.Context, upcoming bool, page pagination.Request) ([]domain.Event, int, error) {
	filter := repository.EventFilter{Page: page}
	if upcoming {
		now := s.now()
		filter.EndsAfter = &now
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

// ListStallProducts lists the products offered at an event.
func (s *EventService) ListStallProducts(ctx context.Context, eventID int64, page pagination.Request) ([]domain.StallProduct, int, error) {
	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return nil, 0, fmt.Errorf("get event: %w", err)
	}

	stalls, total, err := s.repo.ListStallProducts(ctx, eventID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list stall products: %w", err)
	}
	return stalls, total, nil
}

// AddStallProduct offers one of the actor's products at an event that has
// not ended, with its own price and stock.
func (s *EventService) AddStallProduct(ctx context.Context, actor domain.Actor, eventID int64, input *AddStallProductInput) (*domain.StallProduct, error) {
	if input.Price.IsNegative() {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}

	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.HasEnded(s.now()) {
		return nil, apperrors.Gone(fmt.Sprintf("event %d has ended", eventID))
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	farm, err := s.farms.GetByID(ctx, product.FarmID)
	if err != nil {
		return nil, fmt.Errorf("get farm: %w", err)
	}
	if !actor.CanManage(farm.OwnerID) {
		return nil, apperrors.Forbidden("only the farm owner can offer this product")
	}

	stall := &domain.StallProduct{
		EventID:     event.ID,
		ProductID:   product.ID,
		FarmID:      farm.ID,
		FarmName:    farm.Name,
		ProductName: product.Name,
		Price:       input.Price,
		Stock:       input.Stock,
		CreatedAt:   s.now(),
	}

	if err := s.repo.CreateStallProduct(ctx, stall); err != nil {
		return nil, fmt.Errorf("create stall product: %w", err)
	}

	s.logger.InfoContext(ctx, "stall product added",
		slog.Int64("event_id", event.ID),
		slog.Int64("product_id", product.ID),
	)

	return stall, nil
}
