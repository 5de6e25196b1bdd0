package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/event"
	"github.com/Ado-go/farmly-sub001/internal/payment"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	pkgkafka "github.com/Ado-go/farmly-sub001/pkg/kafka"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

// --- Farms ---

type mockFarmRepository struct {
	mock.Mock
}

func (m *mockFarmRepository) Create(ctx context.Context, farm *domain.Farm) error {
	args := m.Called(ctx, farm)
	return args.Error(0)
}

func (m *mockFarmRepository) GetByID(ctx context.Context, id int64) (*domain.Farm, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Farm), args.Error(1)
}

func (m *mockFarmRepository) Update(ctx context.Context, farm *domain.Farm) error {
	args := m.Called(ctx, farm)
	return args.Error(0)
}

func (m *mockFarmRepository) List(ctx context.Context, filter repository.FarmFilter) ([]domain.Farm, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Farm), args.Int(1), args.Error(2)
}

// --- Products ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

// --- Events ---

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) Create(ctx context.Context, e *domain.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockEventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *mockEventRepository) List(ctx context.Context, filter repository.EventFilter) ([]domain.Event, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Event), args.Int(1), args.Error(2)
}

func (m *mockEventRepository) CreateStallProduct(ctx context.Context, sp *domain.StallProduct) error {
	args := m.Called(ctx, sp)
	return args.Error(0)
}

func (m *mockEventRepository) GetStallProduct(ctx context.Context, eventID, productID int64) (*domain.StallProduct, error) {
	args := m.Called(ctx, eventID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StallProduct), args.Error(1)
}

func (m *mockEventRepository) ListStallProducts(ctx context.Context, eventID int64, page pagination.Request) ([]domain.StallProduct, int, error) {
	args := m.Called(ctx, eventID, page)
	return args.Get(0).([]domain.StallProduct), args.Int(1), args.Error(2)
}

// --- Orders ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id int64, from, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *mockOrderRepository) Cancel(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) ListExpiredPreorders(ctx context.Context, endedBefore time.Time, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, endedBefore, limit)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) SetPaymentStatus(ctx context.Context, id int64, from, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *mockOrderRepository) ListPendingRefunds(ctx context.Context, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Order), args.Error(1)
}

// --- Reviews ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID int64, page pagination.Request) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, page)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Summary(ctx context.Context, productID int64) (domain.ReviewSummary, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.ReviewSummary), args.Error(1)
}

// --- Cart slot ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Load(ctx context.Context, sessionID string) (domain.CartState, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.CartState), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, sessionID string, state domain.CartState) error {
	args := m.Called(ctx, sessionID, state)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *mockCartRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Payments ---

type mockPaymentProvider struct {
	mock.Mock
}

func (m *mockPaymentProvider) Name() string { return "test" }

func (m *mockPaymentProvider) Charge(ctx context.Context, input *payment.ChargeInput) (*payment.ChargeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ChargeResult), args.Error(1)
}

func (m *mockPaymentProvider) Refund(ctx context.Context, input *payment.RefundInput) (*payment.RefundResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}

// --- Events published ---

type recordingPublisher struct {
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.topics = append(p.topics, topic)
	return nil
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProducer() (*event.Producer, *recordingPublisher) {
	rec := &recordingPublisher{}
	return event.NewProducer(rec, newTestLogger()), rec
}

func int64Ptr(n int64) *int64 { return &n }

var firstPage = pagination.Request{Page: 1, PageSize: 20, Skip: 0, Take: 20}
