package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/event"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

// Cart limits.
const (
	MaxQuantityPerItem = 100
	MaxLinesPerCart    = 50
)

// CartMetrics counts the transitions applied to carts.
type CartMetrics struct {
	transitions *prometheus.CounterVec
	fallback    prometheus.Counter
}

// NewCartMetrics creates and registers cart metrics with reg.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	m := &CartMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmly_cart_transitions_total",
			Help: "Cart add-item transitions by outcome",
		}, []string{"transition"}),
		fallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farmly_cart_fallback_saves_total",
			Help: "Cart saves kept in memory because the cart store was unreachable",
		}),
	}
	reg.MustRegister(m.transitions, m.fallback)
	return m
}

func (m *CartMetrics) transition(t domain.Transition) {
	if m != nil {
		m.transitions.WithLabelValues(string(t)).Inc()
	}
}

func (m *CartMetrics) fallbackSave() {
	if m != nil {
		m.fallback.Inc()
	}
}

// AddItemInput holds the parameters for adding an item to the cart. A set
// EventID makes the item a pre-order from that event's stall.
type AddItemInput struct {
	ProductID int64
	Quantity  int
	EventID   *int64
}

// CartService implements the cart of a session on top of the cart state
// machine.
type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	events   repository.EventRepository
	producer *event.Producer
	metrics  *CartMetrics
	memory   *memoryCarts
	logger   *slog.Logger
	now      func() time.Time
}

// NewCartService creates a new cart service. metrics may be nil.
func NewCartService(
	repo repository.CartRepository,
	products repository.ProductRepository,
	events repository.EventRepository,
	producer *event.Producer,
	metrics *CartMetrics,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		events:   events,
		producer: producer,
		metrics:  metrics,
		memory:   newMemoryCarts(defaultFallbackCarts, defaultFallbackTTL),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithFallbackLimits bounds the carts kept in memory while the cart store is
// unreachable: at most capacity sessions, each for at most ttl.
func (s *CartService) WithFallbackLimits(capacity int, ttl time.Duration) *CartService {
	s.memory = newMemoryCarts(capacity, ttl)
	return s
}

// GetCart returns the cart of a session. A missing or unreadable cart is
// returned as the empty cart.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("cart session is required")
	}
	return s.load(ctx, sessionID), nil
}

// AddItem adds quantity units of a product to the cart. Name, seller and
// price come from the catalog, or from the event stall for pre-orders.
func (s *CartService) AddItem(ctx context.Context, sessionID string, input AddItemInput) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("cart session is required")
	}
	if input.Quantity < 1 || input.Quantity > MaxQuantityPerItem {
		return domain.CartState{}, apperrors.InvalidInput(fmt.Sprintf("quantity must be between 1 and %d", MaxQuantityPerItem))
	}

	line, kind, stock, err := s.resolveLine(ctx, input)
	if err != nil {
		return domain.CartState{}, err
	}

	state := s.load(ctx, sessionID)
	next, transition := domain.AddItemResult(state, line, kind, input.EventID)
	s.metrics.transition(transition)

	if transition == domain.TransitionRejected {
		return state, nil
	}
	if len(next.Lines) > MaxLinesPerCart {
		return domain.CartState{}, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d products", MaxLinesPerCart))
	}
	for _, l := range next.Lines {
		if l.ProductID != line.ProductID {
			continue
		}
		if l.Quantity > MaxQuantityPerItem {
			return domain.CartState{}, apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerItem))
		}
		if l.Quantity > stock {
			return domain.CartState{}, apperrors.Conflict(fmt.Sprintf("only %d of %s left", stock, line.ProductName))
		}
	}

	s.save(ctx, sessionID, next)
	s.publishUpdated(ctx, sessionID, next)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sessionID),
		slog.Int64("product_id", line.ProductID),
		slog.Int("quantity", line.Quantity),
		slog.String("order_kind", string(kind)),
		slog.String("transition", string(transition)),
	)

	return next, nil
}

// RemoveItem drops a product from the cart. The cart keeps its kind.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID int64) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("cart session is required")
	}

	next := domain.RemoveItem(s.load(ctx, sessionID), productID)
	s.save(ctx, sessionID, next)
	s.publishUpdated(ctx, sessionID, next)

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("session_id", sessionID),
		slog.Int64("product_id", productID),
	)

	return next, nil
}

// ClearCart empties the cart of a session.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (domain.CartState, error) {
	if sessionID == "" {
		return domain.CartState{}, apperrors.InvalidInput("cart session is required")
	}

	s.memory.delete(sessionID)
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "cart store unavailable, keeping cleared cart in memory",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		s.memory.save(sessionID, domain.ClearCart(), s.now())
		s.metrics.fallbackSave()
	}

	if err := s.producer.PublishCartCleared(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	return domain.ClearCart(), nil
}

func (s *CartService) resolveLine(ctx context.Context, input AddItemInput) (domain.CartLine, domain.OrderKind, int, error) {
	if input.EventID == nil {
		product, err := s.products.GetByID(ctx, input.ProductID)
		if err != nil {
			return domain.CartLine{}, "", 0, fmt.Errorf("get product: %w", err)
		}
		return product.CartLine(input.Quantity), domain.OrderKindStandard, product.Stock, nil
	}

	ev, err := s.events.GetByID(ctx, *input.EventID)
	if err != nil {
		return domain.CartLine{}, "", 0, fmt.Errorf("get event: %w", err)
	}
	if ev.HasEnded(s.now()) {
		return domain.CartLine{}, "", 0, apperrors.Gone(fmt.Sprintf("event %d has ended", ev.ID))
	}

	stall, err := s.events.GetStallProduct(ctx, ev.ID, input.ProductID)
	if err != nil {
		return domain.CartLine{}, "", 0, fmt.Errorf("get stall product: %w", err)
	}
	return stall.CartLine(input.Quantity), domain.OrderKindPreorder, stall.Stock, nil
}

// load restores the cart of a session. It never fails: a cart kept in
// memory wins, and anything the store cannot deliver becomes the empty cart.
func (s *CartService) load(ctx context.Context, sessionID string) domain.CartState {
	if state, ok := s.memory.load(sessionID, s.now()); ok {
		return state
	}

	state, err := s.repo.Load(ctx, sessionID)
	switch {
	case err == nil:
		return state
	case errors.Is(err, apperrors.ErrNotFound):
	case errors.Is(err, domain.ErrInvalidCart):
		s.logger.WarnContext(ctx, "discarding malformed cart",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	default:
		s.logger.WarnContext(ctx, "cart store unavailable, starting from an empty cart",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	return domain.ClearCart()
}

// save writes the cart to the store, or keeps it in memory when the store
// is unreachable.
func (s *CartService) save(ctx context.Context, sessionID string, state domain.CartState) {
	if err := s.repo.Save(ctx, sessionID, state); err != nil {
		s.logger.WarnContext(ctx, "cart store unavailable, keeping cart in memory",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		s.memory.save(sessionID, state, s.now())
		s.metrics.fallbackSave()
		return
	}
	s.memory.delete(sessionID)
}

func (s *CartService) publishUpdated(ctx context.Context, sessionID string, state domain.CartState) {
	if err := s.producer.PublishCartUpdated(ctx, sessionID, state); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}
