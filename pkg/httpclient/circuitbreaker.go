package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval after which closed-state counts are cleared. 0 never clears.
	Interval time.Duration

	// Timeout is how long the breaker stays open before half-opening.
	Timeout time.Duration

	// FailureRatio of failed requests that trips the breaker.
	FailureRatio float64

	// MinRequests needed before FailureRatio is evaluated.
	MinRequests uint32
}

// DefaultCircuitBreakerConfig returns the breaker settings used for the
// payment gateway.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerMetrics exposes breaker state. A nil *BreakerMetrics is valid and
// records nothing.
type BreakerMetrics struct {
	state    *prometheus.GaugeVec
	rejected *prometheus.CounterVec
}

// NewBreakerMetrics registers breaker metrics on reg.
func NewBreakerMetrics(reg prometheus.Registerer) (*BreakerMetrics, error) {
	m := &BreakerMetrics{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "circuit_breaker_rejected_total",
			Help: "Requests rejected because the circuit breaker was open",
		}, []string{"name"}),
	}
	for _, c := range []prometheus.Collector{m.state, m.rejected} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register breaker metrics: %w", err)
		}
	}
	return m, nil
}

func (m *BreakerMetrics) setState(name string, state gobreaker.State) {
	if m == nil {
		return
	}
	m.state.WithLabelValues(name).Set(stateToFloat(state))
}

func (m *BreakerMetrics) reject(name string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(name).Inc()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// CircuitBreakerClient guards a Client with a circuit breaker. 5xx responses
// and transport errors count as failures; 4xx responses do not.
type CircuitBreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	metrics *BreakerMetrics
	name    string
}

// NewCircuitBreakerClient wraps client. metrics may be nil.
func NewCircuitBreakerClient(client *Client, cfg CircuitBreakerConfig, metrics *BreakerMetrics, logger *slog.Logger) *CircuitBreakerClient {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			metrics.setState(name, to)
		},
	}

	metrics.setState(cfg.Name, gobreaker.StateClosed)

	return &CircuitBreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		metrics: metrics,
		name:    cfg.Name,
	}
}

// Do sends req through the breaker. While open it fails fast with an error
// wrapping ErrCircuitOpen.
func (c *CircuitBreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.client.Do(ctx, req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			_ = resp.Body.Close()
			return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.reject(c.name)
			return nil, fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
		}
		return nil, err
	}
	return resp, nil
}

// Post performs a POST request through the breaker.
func (c *CircuitBreakerClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create POST request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

// State returns the breaker's current state.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}
