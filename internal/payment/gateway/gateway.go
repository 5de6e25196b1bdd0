package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Ado-go/farmly-sub001/internal/payment"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/httpclient"
)

const serviceName = "payment-gateway"

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Provider talks to an external card payment gateway over HTTP.
type Provider struct {
	client   HTTPDoer
	baseURL  string
	apiKey   string
	currency string
	logger   *slog.Logger
}

// NewProvider creates a gateway provider. baseURL is the gateway root, e.g.
// "https://pay.example.com".
func NewProvider(client HTTPDoer, baseURL, apiKey, currency string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		currency: currency,
		logger:   logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gateway"
}

type chargeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Source      string `json:"source"`
	Description string `json:"description,omitempty"`
}

type chargeResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
}

// Charge creates a charge at the gateway. A "failed" charge is reported as a
// payment failure carrying the gateway's reason.
func (p *Provider) Charge(ctx context.Context, input *payment.ChargeInput) (*payment.ChargeResult, error) {
	currency := input.Currency
	if currency == "" {
		currency = p.currency
	}

	var resp chargeResponse
	err := p.post(ctx, "/v1/charges", input.IdempotencyKey, chargeRequest{
		Amount:      input.Amount.StringFixed(2),
		Currency:    currency,
		Source:      input.CardToken,
		Description: input.Description,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Status != payment.StatusSucceeded {
		reason := resp.FailureReason
		if reason == "" {
			reason = "card declined"
		}
		p.logger.WarnContext(ctx, "card charge declined",
			slog.String("charge_id", resp.ID),
			slog.String("reason", reason),
		)
		return nil, apperrors.PaymentFailed(reason)
	}

	p.logger.InfoContext(ctx, "card charged",
		slog.String("charge_id", resp.ID),
		slog.String("amount", input.Amount.StringFixed(2)),
	)

	return &payment.ChargeResult{PaymentRef: resp.ID, Status: resp.Status}, nil
}

type refundRequest struct {
	Charge string `json:"charge"`
	Amount string `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Refund returns the amount of a previous charge.
func (p *Provider) Refund(ctx context.Context, input *payment.RefundInput) (*payment.RefundResult, error) {
	var resp refundResponse
	err := p.post(ctx, "/v1/refunds", "refund-"+input.PaymentRef, refundRequest{
		Charge: input.PaymentRef,
		Amount: input.Amount.StringFixed(2),
		Reason: input.Reason,
	}, &resp)
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "charge refunded",
		slog.String("charge_id", input.PaymentRef),
		slog.String("refund_id", resp.ID),
	)

	return &payment.RefundResult{RefundRef: resp.ID, Status: resp.Status}, nil
}

func (p *Provider) post(ctx context.Context, path, idempotencyKey string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) {
			return apperrors.Unavailable("payment gateway is temporarily unavailable, please retry later", err)
		}
		return apperrors.Unavailable("payment gateway request failed", err)
	}

	if !httpclient.IsSuccess(resp.StatusCode) {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
