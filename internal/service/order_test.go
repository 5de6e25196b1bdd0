package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/event"
	"github.com/Ado-go/farmly-sub001/internal/payment"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

var customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}

type orderFixture struct {
	svc       *OrderService
	orders    *mockOrderRepository
	payments  *mockPaymentProvider
	published *recordingPublisher
}

func newOrderFixture() orderFixture {
	producer, rec := newTestProducer()
	f := orderFixture{
		orders:    new(mockOrderRepository),
		payments:  new(mockPaymentProvider),
		published: rec,
	}
	f.svc = NewOrderService(f.orders, f.payments, producer, newTestLogger())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:            100,
		UserID:        int64Ptr(7),
		Kind:          domain.OrderKindStandard,
		Status:        domain.OrderStatusPending,
		PaymentMethod: domain.PaymentMethodCash,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Total:         decimal.RequireFromString("4.80"),
	}
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	status := domain.OrderStatusPending
	filter := repository.OrderFilter{UserID: 7, Status: &status, Page: firstPage}
	f.orders.On("List", ctx, filter).Return([]domain.Order{*pendingOrder()}, 1, nil)

	orders, total, err := f.svc.ListOrders(ctx, 7, &status, firstPage)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orders, 1)
}

func TestListOrders_UnknownStatus(t *testing.T) {
	f := newOrderFixture()

	status := "shipped"
	_, _, err := f.svc.ListOrders(context.Background(), 7, &status, firstPage)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.orders.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGetOrder_OtherUserForbidden(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("GetByID", ctx, int64(100)).Return(pendingOrder(), nil)

	_, err := f.svc.GetOrder(ctx, domain.Actor{UserID: 8, Role: domain.RoleCustomer}, 100)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestGetOrder_AdminSeesAnyOrder(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("GetByID", ctx, int64(100)).Return(pendingOrder(), nil)

	order, err := f.svc.GetOrder(ctx, domain.Actor{UserID: 1, Role: domain.RoleAdmin}, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), order.ID)
}

func TestCancelOrder_Pending(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("GetByID", ctx, int64(100)).Return(pendingOrder(), nil)
	f.orders.On("Cancel", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := f.svc.CancelOrder(ctx, customer, 100)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, []string{event.TopicOrderStatusChanged}, f.published.topics)
	f.payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestCancelOrder_ConfirmedIsConflict(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	confirmed := pendingOrder()
	confirmed.Status = domain.OrderStatusConfirmed
	f.orders.On("GetByID", ctx, int64(100)).Return(confirmed, nil)

	_, err := f.svc.CancelOrder(ctx, customer, 100)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	f.orders.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func paidOrder() *domain.Order {
	o := pendingOrder()
	o.PaymentMethod = domain.PaymentMethodCard
	o.PaymentStatus = domain.PaymentStatusPaid
	o.PaymentRef = "pay_1"
	return o
}

func TestCancelOrder_RefundsCardPayment(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("GetByID", ctx, int64(100)).Return(paidOrder(), nil)
	f.orders.On("Cancel", ctx, mock.MatchedBy(func(o *domain.Order) bool {
		return o.PaymentStatus == domain.PaymentStatusRefundPending
	})).Return(nil)
	f.payments.On("Refund", ctx, mock.MatchedBy(func(in *payment.RefundInput) bool {
		return in.PaymentRef == "pay_1" && in.Amount.Equal(decimal.RequireFromString("4.80"))
	})).Return(&payment.RefundResult{RefundRef: "ref_1", Status: payment.StatusSucceeded}, nil)
	f.orders.On("SetPaymentStatus", ctx, int64(100), domain.PaymentStatusRefundPending, domain.PaymentStatusRefunded).
		Return(nil)

	order, err := f.svc.CancelOrder(ctx, customer, 100)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, domain.PaymentStatusRefunded, order.PaymentStatus)
	f.payments.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestCancelOrder_ConflictDoesNotRefund(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("GetByID", ctx, int64(100)).Return(paidOrder(), nil)
	f.orders.On("Cancel", ctx, mock.AnythingOfType("*domain.Order")).
		Return(apperrors.Conflict("order 100 can no longer be canceled"))

	order, err := f.svc.CancelOrder(ctx, customer, 100)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Nil(t, order)
	f.payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "SetPaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.published.topics)
}

func TestUpdateStatus_CancelConflictKeepsPaymentPaid(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	confirmed := paidOrder()
	confirmed.Status = domain.OrderStatusConfirmed
	f.orders.On("GetByID", ctx, int64(100)).Return(confirmed, nil)
	f.orders.On("Cancel", ctx, mock.AnythingOfType("*domain.Order")).
		Return(apperrors.Conflict("order 100 can no longer be canceled"))

	_, err := f.svc.UpdateStatus(ctx, 100, domain.OrderStatusCanceled)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, domain.PaymentStatusPaid, confirmed.PaymentStatus)
	f.payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestCancelOrder_RefundFailureLeavesRefundPending(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("GetByID", ctx, int64(100)).Return(paidOrder(), nil)
	f.orders.On("Cancel", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)
	f.payments.On("Refund", ctx, mock.Anything).Return(nil, apperrors.Unavailable("payment gateway", errors.New("timeout")))

	order, err := f.svc.CancelOrder(ctx, customer, 100)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, domain.PaymentStatusRefundPending, order.PaymentStatus)
	f.orders.AssertNotCalled(t, "SetPaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetryPendingRefunds(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	first, second := *paidOrder(), *paidOrder()
	first.ID, second.ID = 1, 2
	first.PaymentRef, second.PaymentRef = "pay_1", "pay_2"
	first.Status, second.Status = domain.OrderStatusCanceled, domain.OrderStatusCanceled
	first.PaymentStatus, second.PaymentStatus = domain.PaymentStatusRefundPending, domain.PaymentStatusRefundPending

	f.orders.On("ListPendingRefunds", ctx, 25).Return([]domain.Order{first, second}, nil)
	f.payments.On("Refund", ctx, mock.MatchedBy(func(in *payment.RefundInput) bool { return in.PaymentRef == "pay_1" })).
		Return(nil, apperrors.Unavailable("payment gateway", errors.New("timeout")))
	f.payments.On("Refund", ctx, mock.MatchedBy(func(in *payment.RefundInput) bool { return in.PaymentRef == "pay_2" })).
		Return(&payment.RefundResult{RefundRef: "ref_2", Status: payment.StatusSucceeded}, nil)
	f.orders.On("SetPaymentStatus", ctx, int64(2), domain.PaymentStatusRefundPending, domain.PaymentStatusRefunded).
		Return(nil)

	n, err := f.svc.RetryPendingRefunds(ctx, 25)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.payments.AssertExpectations(t)
	f.orders.AssertNotCalled(t, "SetPaymentStatus", ctx, int64(1), mock.Anything, mock.Anything)
}

func TestRetryPendingRefunds_ListFails(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("ListPendingRefunds", ctx, 25).Return([]domain.Order(nil), errors.New("connection refused"))

	_, err := f.svc.RetryPendingRefunds(ctx, 25)
	assert.Error(t, err)
	f.payments.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
}

func TestUpdateStatus_Confirm(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("GetByID", ctx, int64(100)).Return(pendingOrder(), nil)
	f.orders.On("UpdateStatus", ctx, int64(100), domain.OrderStatusPending, domain.OrderStatusConfirmed).Return(nil)

	order, err := f.svc.UpdateStatus(ctx, 100, domain.OrderStatusConfirmed)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Equal(t, testNow, order.UpdatedAt)
	assert.Equal(t, []string{event.TopicOrderStatusChanged}, f.published.topics)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("GetByID", ctx, int64(100)).Return(pendingOrder(), nil)

	_, err := f.svc.UpdateStatus(ctx, 100, domain.OrderStatusCompleted)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.UpdateStatus(context.Background(), 100, "lost")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateStatus_CancelRestocks(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	confirmed := pendingOrder()
	confirmed.Status = domain.OrderStatusConfirmed
	f.orders.On("GetByID", ctx, int64(100)).Return(confirmed, nil)
	f.orders.On("Cancel", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := f.svc.UpdateStatus(ctx, 100, domain.OrderStatusCanceled)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExpirePreorders(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	first, second := *pendingOrder(), *pendingOrder()
	first.ID, second.ID = 1, 2
	first.Kind, second.Kind = domain.OrderKindPreorder, domain.OrderKindPreorder

	cutoff := testNow.Add(-2 * time.Hour)
	f.orders.On("ListExpiredPreorders", ctx, cutoff, 50).Return([]domain.Order{first, second}, nil)
	f.orders.On("Cancel", ctx, mock.MatchedBy(func(o *domain.Order) bool { return o.ID == 1 })).
		Return(errors.New("deadlock detected"))
	f.orders.On("Cancel", ctx, mock.MatchedBy(func(o *domain.Order) bool { return o.ID == 2 })).
		Return(nil)

	n, err := f.svc.ExpirePreorders(ctx, 2*time.Hour, 50)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	f.orders.AssertExpectations(t)
}

func TestExpirePreorders_ListFails(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.orders.On("ListExpiredPreorders", ctx, mock.Anything, 50).Return([]domain.Order(nil), errors.New("connection refused"))

	_, err := f.svc.ExpirePreorders(ctx, time.Hour, 50)
	assert.Error(t, err)
}
