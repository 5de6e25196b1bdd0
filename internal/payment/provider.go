package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Charge statuses reported by providers.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ChargeInput holds the parameters for charging a card.
type ChargeInput struct {
	Amount      decimal.Decimal
	Currency    string
	CardToken   string
	Description string
	// IdempotencyKey lets a provider deduplicate retried charges.
	IdempotencyKey string
}

// ChargeResult holds the result of a successful charge.
type ChargeResult struct {
	PaymentRef string
	Status     string
}

// RefundInput holds the parameters for refunding a charge.
type RefundInput struct {
	PaymentRef string
	Amount     decimal.Decimal
	Reason     string
}

// RefundResult holds the result of a refund.
type RefundResult struct {
	RefundRef string
	Status    string
}

// Provider charges and refunds card payments. A declined card yields an
// error wrapping errors.ErrPaymentFailed; an unreachable provider yields one
// wrapping errors.ErrServiceUnavail.
type Provider interface {
	// Name returns the provider name (e.g. "mock", "gateway").
	Name() string
	Charge(ctx context.Context, input *ChargeInput) (*ChargeResult, error)
	Refund(ctx context.Context, input *RefundInput) (*RefundResult, error)
}
