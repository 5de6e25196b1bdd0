package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Ado-go/farmly-sub001/internal/payment"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

// DeclinedToken is the card token the mock provider always declines.
const DeclinedToken = "tok_declined"

// Provider is a payment provider that approves every card except
// DeclinedToken. It is intended for development and testing.
type Provider struct {
	mu      sync.Mutex
	charges map[string]*payment.ChargeResult
}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{charges: make(map[string]*payment.ChargeResult)}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// Charge approves the charge unless the token is DeclinedToken. A repeated
// IdempotencyKey returns the result of the first approved charge.
func (p *Provider) Charge(_ context.Context, input *payment.ChargeInput) (*payment.ChargeResult, error) {
	if input.CardToken == DeclinedToken {
		return nil, apperrors.PaymentFailed("card declined")
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.InvalidInput("charge amount must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if input.IdempotencyKey != "" {
		if prev, ok := p.charges[input.IdempotencyKey]; ok {
			replay := *prev
			return &replay, nil
		}
	}

	res := &payment.ChargeResult{
		PaymentRef: "mock_pay_" + uuid.New().String(),
		Status:     payment.StatusSucceeded,
	}
	if input.IdempotencyKey != "" {
		stored := *res
		p.charges[input.IdempotencyKey] = &stored
	}
	return res, nil
}

// Refund always succeeds.
func (p *Provider) Refund(_ context.Context, input *payment.RefundInput) (*payment.RefundResult, error) {
	if input.PaymentRef == "" {
		return nil, apperrors.InvalidInput("payment reference is required")
	}

	return &payment.RefundResult{
		RefundRef: "mock_ref_" + uuid.New().String(),
		Status:    payment.StatusSucceeded,
	}, nil
}
