package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	pkgkafka "github.com/Ado-go/farmly-sub001/pkg/kafka"
	"github.com/Ado-go/farmly-sub001/pkg/logger"
)

// Kafka topics for farmly domain events.
var (
	TopicCartUpdated        = pkgkafka.Topic("cart", "updated")
	TopicCartCleared        = pkgkafka.Topic("cart", "cleared")
	TopicOrderPlaced        = pkgkafka.Topic("order", "placed")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
	TopicReviewCreated      = pkgkafka.Topic("review", "created")
)

// Aggregate types.
const (
	AggregateTypeCart   = "cart"
	AggregateTypeOrder  = "order"
	AggregateTypeReview = "review"
)

// Source identifies events originating from this service.
const Source = "farmly-api"

// Publisher writes one event to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Discard is a Publisher that drops every event. It is used when Kafka is
// disabled.
type Discard struct{}

// Publish does nothing.
func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// CartLineData is a line within cart events.
type CartLineData struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Seller    string `json:"seller"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID  string           `json:"session_id"`
	OrderKind  domain.OrderKind `json:"order_kind"`
	EventID    *int64           `json:"event_id,omitempty"`
	Lines      []CartLineData   `json:"lines"`
	ItemCount  int              `json:"item_count"`
	TotalPrice string           `json:"total_price"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID       int64            `json:"order_id"`
	UserID        *int64           `json:"user_id,omitempty"`
	Kind          domain.OrderKind `json:"kind"`
	EventID       *int64           `json:"event_id,omitempty"`
	PaymentMethod string           `json:"payment_method"`
	PaymentStatus string           `json:"payment_status"`
	CustomerEmail string           `json:"customer_email"`
	Total         string           `json:"total"`
	ItemCount     int              `json:"item_count"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID    int64  `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID  int64 `json:"review_id"`
	ProductID int64 `json:"product_id"`
	UserID    int64 `json:"user_id"`
	Rating    int   `json:"rating"`
}

// Producer publishes farmly domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, state domain.CartState) error {
	lines := make([]CartLineData, len(state.Lines))
	for i, l := range state.Lines {
		lines[i] = CartLineData{
			ProductID: l.ProductID,
			Name:      l.ProductName,
			Seller:    l.SellerName,
			UnitPrice: l.UnitPrice.String(),
			Quantity:  l.Quantity,
		}
	}

	data := CartUpdatedData{
		SessionID:  sessionID,
		OrderKind:  state.OrderKind,
		EventID:    state.EventID,
		Lines:      lines,
		ItemCount:  domain.ItemCount(state),
		TotalPrice: domain.TotalPrice(state).StringFixed(2),
	}

	if err := p.publish(ctx, TopicCartUpdated, sessionID, AggregateTypeCart, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", sessionID),
		slog.Int("item_count", data.ItemCount),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	if err := p.publish(ctx, TopicCartCleared, sessionID, AggregateTypeCart, CartClearedData{SessionID: sessionID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event", slog.String("session_id", sessionID))
	return nil
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, o *domain.Order) error {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}

	data := OrderPlacedData{
		OrderID:       o.ID,
		UserID:        o.UserID,
		Kind:          o.Kind,
		EventID:       o.EventID,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		CustomerEmail: o.CustomerEmail,
		Total:         o.Total.StringFixed(2),
		ItemCount:     count,
	}

	if err := p.publish(ctx, TopicOrderPlaced, strconv.FormatInt(o.ID, 10), AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.placed event", slog.Int64("order_id", o.ID))
	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID int64, from, to string) error {
	data := OrderStatusChangedData{OrderID: orderID, FromStatus: from, ToStatus: to}

	if err := p.publish(ctx, TopicOrderStatusChanged, strconv.FormatInt(orderID, 10), AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.Int64("order_id", orderID),
		slog.String("from", from),
		slog.String("to", to),
	)
	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	data := ReviewCreatedData{ReviewID: r.ID, ProductID: r.ProductID, UserID: r.UserID, Rating: r.Rating}

	if err := p.publish(ctx, TopicReviewCreated, strconv.FormatInt(r.ID, 10), AggregateTypeReview, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published review.created event", slog.Int64("review_id", r.ID))
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
