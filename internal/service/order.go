package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/event"
	"github.com/Ado-go/farmly-sub001/internal/payment"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

// OrderService implements the business logic for placed orders.
type OrderService struct {
	repo     repository.OrderRepository
	payments payment.Provider
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, payments payment.Provider, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		payments: payments,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListOrders lists the orders of a user, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID int64, status *string, page pagination.Request) ([]domain.Order, int, error) {
	if status != nil && !domain.IsValidStatus(*status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", *status))
	}

	orders, total, err := s.repo.List(ctx, repository.OrderFilter{UserID: userID, Status: status, Page: page})
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder retrieves an order. Only its owner and admins may see it.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !actor.IsAdmin() && !order.IsOwnedBy(actor.UserID) {
		return nil, apperrors.Forbidden("order belongs to another user")
	}
	return order, nil
}

// CancelOrder cancels one of the actor's own orders while it is still
// pending.
func (s *OrderService) CancelOrder(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, apperrors.Conflict(fmt.Sprintf("order is %s and can no longer be canceled", order.Status))
	}

	if err := s.cancel(ctx, order, "canceled by customer"); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves an order along its status machine. Moving to canceled
// restocks the items and refunds card payments.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	if !domain.IsValidStatus(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", status))
	}

	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !order.CanTransitionTo(status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
	}

	if status == domain.OrderStatusCanceled {
		if err := s.cancel(ctx, order, "canceled by seller"); err != nil {
			return nil, err
		}
		return order, nil
	}

	from := order.Status
	if err := s.repo.UpdateStatus(ctx, order.ID, from, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	order.UpdatedAt = s.now()

	s.publishStatusChanged(ctx, order.ID, from, status)
	s.logger.InfoContext(ctx, "order status updated",
		slog.Int64("order_id", order.ID),
		slog.String("from", from),
		slog.String("to", status),
	)

	return order, nil
}

// ExpirePreorders cancels pending pre-orders whose event ended more than
// grace ago. It returns how many orders were canceled; failures on single
// orders are logged and skipped.
func (s *OrderService) ExpirePreorders(ctx context.Context, grace time.Duration, batchSize int) (int, error) {
	cutoff := s.now().Add(-grace)

	orders, err := s.repo.ListExpiredPreorders(ctx, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list expired preorders: %w", err)
	}

	canceled := 0
	for i := range orders {
		if err := s.cancel(ctx, &orders[i], "event ended before pickup"); err != nil {
			s.logger.ErrorContext(ctx, "failed to expire preorder",
				slog.Int64("order_id", orders[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		canceled++
	}

	if canceled > 0 {
		s.logger.InfoContext(ctx, "expired preorders canceled",
			slog.Int("count", canceled),
			slog.Time("cutoff", cutoff),
		)
	}
	return canceled, nil
}

// RetryPendingRefunds refunds canceled orders whose refund failed earlier.
// It returns how many refunds went through; failures are logged and the
// orders stay refund_pending.
func (s *OrderService) RetryPendingRefunds(ctx context.Context, batchSize int) (int, error) {
	orders, err := s.repo.ListPendingRefunds(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending refunds: %w", err)
	}

	refunded := 0
	for i := range orders {
		if err := s.refund(ctx, &orders[i], "order canceled"); err != nil {
			s.logger.WarnContext(ctx, "refund still pending",
				slog.Int64("order_id", orders[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		refunded++
	}

	if refunded > 0 {
		s.logger.InfoContext(ctx, "pending refunds completed", slog.Int("count", refunded))
	}
	return refunded, nil
}

// cancel marks the order canceled and restocks it. A paid order is stored
// as refund_pending first and refunded only once the cancel is committed;
// a failed refund leaves it pending for RetryPendingRefunds.
func (s *OrderService) cancel(ctx context.Context, order *domain.Order, reason string) error {
	from := order.Status
	paid := order.PaymentStatus == domain.PaymentStatusPaid
	if paid {
		order.PaymentStatus = domain.PaymentStatusRefundPending
	}

	if err := s.repo.Cancel(ctx, order); err != nil {
		if paid {
			order.PaymentStatus = domain.PaymentStatusPaid
		}
		return fmt.Errorf("cancel order: %w", err)
	}
	order.Status = domain.OrderStatusCanceled
	order.UpdatedAt = s.now()

	s.publishStatusChanged(ctx, order.ID, from, domain.OrderStatusCanceled)
	s.logger.InfoContext(ctx, "order canceled",
		slog.Int64("order_id", order.ID),
		slog.String("reason", reason),
	)

	if paid {
		if err := s.refund(ctx, order, reason); err != nil {
			s.logger.WarnContext(ctx, "refund deferred",
				slog.Int64("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// refund returns the payment of a refund_pending order and records it.
func (s *OrderService) refund(ctx context.Context, order *domain.Order, reason string) error {
	_, err := s.payments.Refund(ctx, &payment.RefundInput{
		PaymentRef: order.PaymentRef,
		Amount:     order.Total,
		Reason:     reason,
	})
	if err != nil {
		return fmt.Errorf("refund order %d: %w", order.ID, err)
	}

	err = s.repo.SetPaymentStatus(ctx, order.ID, domain.PaymentStatusRefundPending, domain.PaymentStatusRefunded)
	if err != nil {
		return fmt.Errorf("record refund of order %d: %w", order.ID, err)
	}
	order.PaymentStatus = domain.PaymentStatusRefunded
	return nil
}

func (s *OrderService) publishStatusChanged(ctx context.Context, orderID int64, from, to string) {
	if err := s.producer.PublishOrderStatusChanged(ctx, orderID, from, to); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}
