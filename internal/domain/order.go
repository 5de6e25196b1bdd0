package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCanceled  = "canceled"
)

// Payment methods.
const (
	PaymentMethodCash = "cash"
	PaymentMethodCard = "card"
)

// Payment statuses.
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
	// PaymentStatusRefundPending marks a canceled card order whose refund
	// has not been confirmed by the provider yet.
	PaymentStatusRefundPending = "refund_pending"
)

// Order is a checked-out cart.
type Order struct {
	ID            int64           `json:"id"`
	UserID        *int64          `json:"user_id,omitempty"`
	Kind          OrderKind       `json:"kind"`
	EventID       *int64          `json:"event_id,omitempty"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	PaymentRef    string          `json:"payment_ref,omitempty"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	Address       string          `json:"address,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderItem     `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// CheckoutKey identifies the checkout attempt that placed the order. A
	// second order with the same key is rejected.
	CheckoutKey string `json:"-"`
}

// OrderItem is a priced line of an order.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	SellerName  string          `json:"seller_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CalculateTotal sums the item subtotals.
func (o *Order) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// IsOwnedBy reports whether the order belongs to userID. Guest orders belong
// to nobody.
func (o *Order) IsOwnedBy(userID int64) bool {
	return o.UserID != nil && *o.UserID == userID
}

var allowedTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCanceled},
	OrderStatusConfirmed: {OrderStatusReady, OrderStatusCanceled},
	OrderStatusReady:     {OrderStatusCompleted},
	OrderStatusCompleted: {},
	OrderStatusCanceled:  {},
}

// IsValidStatus checks whether status is a known order status.
func IsValidStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// CanTransitionTo checks whether the order may move to target.
func (o *Order) CanTransitionTo(target string) bool {
	return slices.Contains(allowedTransitions[o.Status], target)
}
