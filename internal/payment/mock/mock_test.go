package mock

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ado-go/farmly-sub001/internal/payment"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

var _ payment.Provider = (*Provider)(nil)

func TestProvider_Name(t *testing.T) {
	assert.Equal(t, "mock", NewProvider().Name())
}

func TestProvider_Charge_Succeeds(t *testing.T) {
	p := NewProvider()

	a, err := p.Charge(context.Background(), &payment.ChargeInput{Amount: decimal.NewFromInt(10), CardToken: "tok_visa"})
	require.NoError(t, err)
	b, err := p.Charge(context.Background(), &payment.ChargeInput{Amount: decimal.NewFromInt(10), CardToken: "tok_visa"})
	require.NoError(t, err)

	assert.Equal(t, payment.StatusSucceeded, a.Status)
	assert.True(t, strings.HasPrefix(a.PaymentRef, "mock_pay_"))
	assert.NotEqual(t, a.PaymentRef, b.PaymentRef)
}

func TestProvider_Charge_ReplaysIdempotencyKey(t *testing.T) {
	p := NewProvider()
	in := &payment.ChargeInput{Amount: decimal.NewFromInt(10), CardToken: "tok_visa", IdempotencyKey: "checkout-1"}

	a, err := p.Charge(context.Background(), in)
	require.NoError(t, err)
	b, err := p.Charge(context.Background(), in)
	require.NoError(t, err)
	c, err := p.Charge(context.Background(), &payment.ChargeInput{
		Amount: decimal.NewFromInt(10), CardToken: "tok_visa", IdempotencyKey: "checkout-2",
	})
	require.NoError(t, err)

	assert.Equal(t, a.PaymentRef, b.PaymentRef)
	assert.NotEqual(t, a.PaymentRef, c.PaymentRef)
}

func TestProvider_Charge_DeclineIsNotRemembered(t *testing.T) {
	p := NewProvider()

	_, err := p.Charge(context.Background(), &payment.ChargeInput{
		Amount: decimal.NewFromInt(10), CardToken: DeclinedToken, IdempotencyKey: "checkout-1",
	})
	require.ErrorIs(t, err, apperrors.ErrPaymentFailed)

	res, err := p.Charge(context.Background(), &payment.ChargeInput{
		Amount: decimal.NewFromInt(10), CardToken: "tok_visa", IdempotencyKey: "checkout-1",
	})
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, res.Status)
}

func TestProvider_Charge_Declined(t *testing.T) {
	_, err := NewProvider().Charge(context.Background(), &payment.ChargeInput{Amount: decimal.NewFromInt(10), CardToken: DeclinedToken})
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
}

func TestProvider_Charge_NonPositiveAmount(t *testing.T) {
	_, err := NewProvider().Charge(context.Background(), &payment.ChargeInput{Amount: decimal.Zero, CardToken: "tok_visa"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProvider_Refund(t *testing.T) {
	p := NewProvider()

	res, err := p.Refund(context.Background(), &payment.RefundInput{PaymentRef: "mock_pay_1", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.RefundRef, "mock_ref_"))

	_, err = p.Refund(context.Background(), &payment.RefundInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
