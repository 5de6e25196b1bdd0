package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/event"
	"github.com/Ado-go/farmly-sub001/internal/payment"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

// CustomerInput holds the contact details of the person placing an order.
type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CheckoutInput holds the parameters for checking out a cart.
type CheckoutInput struct {
	PaymentMethod string
	CardToken     string
	Customer      CustomerInput
	// IdempotencyKey is the client's key for this attempt. Optional.
	IdempotencyKey string
}

// checkoutKeyWindow groups resubmissions of an unchanged cart that carry no
// client key.
const checkoutKeyWindow = 2 * time.Minute

// CheckoutService turns the cart of a session into an order.
type CheckoutService struct {
	carts    *CartService
	products repository.ProductRepository
	events   repository.EventRepository
	orders   repository.OrderRepository
	payments payment.Provider
	producer *event.Producer
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts *CartService,
	products repository.ProductRepository,
	events repository.EventRepository,
	orders repository.OrderRepository,
	payments payment.Provider,
	producer *event.Producer,
	currency string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		products: products,
		events:   events,
		orders:   orders,
		payments: payments,
		producer: producer,
		currency: currency,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Checkout places an order for the cart of a session. Every line is priced
// from the database; the client never supplies prices. Card payments are
// charged before the order is written and refunded if writing fails. On
// success the cart is cleared.
//
// Every attempt carries a checkout key derived from the session, the priced
// cart, the payment details and the client's key. Resubmitting the same
// checkout replays the charge at the provider and yields ErrConflict
// instead of a second order.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, userID *int64, input *CheckoutInput) (*domain.Order, error) {
	if err := validateCheckout(input); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	items, err := s.priceLines(ctx, cart)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		UserID:        userID,
		Kind:          cart.OrderKind,
		EventID:       cart.EventID,
		Status:        domain.OrderStatusPending,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: domain.PaymentStatusUnpaid,
		CustomerName:  strings.TrimSpace(input.Customer.Name),
		CustomerEmail: strings.TrimSpace(input.Customer.Email),
		CustomerPhone: strings.TrimSpace(input.Customer.Phone),
		Address:       strings.TrimSpace(input.Customer.Address),
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Total = order.CalculateTotal()
	order.CheckoutKey = checkoutKey(sessionID, order, input, now)

	if order.PaymentMethod == domain.PaymentMethodCard {
		charge, err := s.payments.Charge(ctx, &payment.ChargeInput{
			Amount:         order.Total,
			Currency:       s.currency,
			CardToken:      input.CardToken,
			Description:    "farmly order for " + order.CustomerEmail,
			IdempotencyKey: order.CheckoutKey,
		})
		if err != nil {
			return nil, fmt.Errorf("charge card: %w", err)
		}
		order.PaymentStatus = domain.PaymentStatusPaid
		order.PaymentRef = charge.PaymentRef
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "duplicate checkout rejected",
				slog.String("session_id", sessionID),
				slog.String("checkout_key", order.CheckoutKey),
			)
			return nil, apperrors.Conflict("this checkout has already been placed")
		}
		if order.PaymentStatus == domain.PaymentStatusPaid {
			s.refund(ctx, order, "order could not be placed")
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	if _, err := s.carts.ClearCart(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after checkout",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderPlaced(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.Int64("order_id", order.ID),
		slog.String("kind", string(order.Kind)),
		slog.String("payment_method", order.PaymentMethod),
		slog.String("total", order.Total.StringFixed(2)),
	)

	return order, nil
}

// priceLines re-reads every cart line from the database. A line whose
// product is gone, whose stock is too low, or whose event has ended fails
// the checkout.
func (s *CheckoutService) priceLines(ctx context.Context, cart domain.CartState) ([]domain.OrderItem, error) {
	if cart.OrderKind == domain.OrderKindPreorder {
		ev, err := s.events.GetByID(ctx, *cart.EventID)
		if err != nil {
			return nil, fmt.Errorf("get event: %w", err)
		}
		if ev.HasEnded(s.now()) {
			return nil, apperrors.Gone(fmt.Sprintf("event %d has ended", ev.ID))
		}
	}

	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		var current domain.CartLine
		var stock int

		if cart.OrderKind == domain.OrderKindPreorder {
			stall, err := s.events.GetStallProduct(ctx, *cart.EventID, line.ProductID)
			if err != nil {
				return nil, unavailableLine(line, err)
			}
			current, stock = stall.CartLine(line.Quantity), stall.Stock
		} else {
			product, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return nil, unavailableLine(line, err)
			}
			current, stock = product.CartLine(line.Quantity), product.Stock
		}

		if line.Quantity > stock {
			return nil, apperrors.Conflict(fmt.Sprintf("insufficient stock for %s: %d left", current.ProductName, stock))
		}

		items = append(items, domain.OrderItem{
			ProductID:   current.ProductID,
			ProductName: current.ProductName,
			SellerName:  current.SellerName,
			UnitPrice:   current.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	return items, nil
}

func (s *CheckoutService) refund(ctx context.Context, order *domain.Order, reason string) {
	_, err := s.payments.Refund(ctx, &payment.RefundInput{
		PaymentRef: order.PaymentRef,
		Amount:     order.Total,
		Reason:     reason,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to refund charge",
			slog.String("payment_ref", order.PaymentRef),
			slog.String("error", err.Error()),
		)
		return
	}
	order.PaymentStatus = domain.PaymentStatusRefunded
	s.logger.InfoContext(ctx, "charge refunded", slog.String("payment_ref", order.PaymentRef))
}

// checkoutKey derives the key of a checkout attempt. Without a client key
// the time window stands in for it.
func checkoutKey(sessionID string, order *domain.Order, input *CheckoutInput, now time.Time) string {
	var b strings.Builder
	b.WriteString(sessionID)
	b.WriteString("|" + string(order.Kind))
	if order.EventID != nil {
		b.WriteString("|event:" + strconv.FormatInt(*order.EventID, 10))
	}
	for _, item := range order.Items {
		fmt.Fprintf(&b, "|%d:%d:%s", item.ProductID, item.Quantity, item.UnitPrice.String())
	}
	b.WriteString("|" + order.Total.String())
	b.WriteString("|" + order.PaymentMethod + ":" + input.CardToken)
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		b.WriteString("|key:" + key)
	} else {
		b.WriteString("|window:" + strconv.FormatInt(now.Truncate(checkoutKeyWindow).Unix(), 10))
	}
	return "checkout-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(b.String())).String()
}

func unavailableLine(line domain.CartLine, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.Conflict(fmt.Sprintf("%s is no longer available", line.ProductName))
	}
	return fmt.Errorf("load cart line %d: %w", line.ProductID, err)
}

func validateCheckout(input *CheckoutInput) error {
	switch input.PaymentMethod {
	case domain.PaymentMethodCash:
	case domain.PaymentMethodCard:
		if strings.TrimSpace(input.CardToken) == "" {
			return apperrors.InvalidInput("card_token is required for card payments")
		}
	default:
		return apperrors.InvalidInput("payment_method must be cash or card")
	}

	c := input.Customer
	if strings.TrimSpace(c.Name) == "" {
		return apperrors.InvalidInput("customer name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return apperrors.InvalidInput("customer email is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return apperrors.InvalidInput("customer phone is required")
	}
	return nil
}
