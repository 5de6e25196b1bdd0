package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func down(msg string) Checker {
	return func(context.Context) error { return fmt.Errorf("%s", msg) }
}

func probe(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", down("connection refused"))

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Empty(t, resp.Checks)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *Handler)
		wantCode   int
		wantStatus Status
	}{
		{
			name:       "no checkers",
			setup:      func(*Handler) {},
			wantCode:   http.StatusOK,
			wantStatus: StatusUp,
		},
		{
			name: "all healthy",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", up)
				h.RegisterCritical("redis", up)
				h.RegisterNonCritical("kafka", up)
			},
			wantCode:   http.StatusOK,
			wantStatus: StatusUp,
		},
		{
			name: "non-critical down degrades",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", up)
				h.RegisterNonCritical("kafka", down("broker unreachable"))
			},
			wantCode:   http.StatusOK,
			wantStatus: StatusDegraded,
		},
		{
			name: "critical down",
			setup: func(h *Handler) {
				h.RegisterCritical("postgres", down("connection refused"))
				h.RegisterNonCritical("kafka", up)
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: StatusDown,
		},
		{
			name: "critical and non-critical down",
			setup: func(h *Handler) {
				h.RegisterNonCritical("kafka", down("kafka down"))
				h.RegisterCritical("redis", down("redis down"))
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: StatusDown,
		},
		{
			name: "register is critical",
			setup: func(h *Handler) {
				h.Register("postgres", down("fail"))
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: StatusDown,
		},
		{
			name: "re-register replaces",
			setup: func(h *Handler) {
				h.Register("postgres", down("fail"))
				h.Register("postgres", up)
			},
			wantCode:   http.StatusOK,
			wantStatus: StatusUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			tt.setup(h)

			code, resp := probe(t, h)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestReadinessHandler_ReportsPerCheckDetails(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("postgres", up)
	h.RegisterNonCritical("kafka", down("broker unreachable"))

	_, resp := probe(t, h)

	require.Len(t, resp.Checks, 2)
	assert.Equal(t, CheckResult{Status: StatusUp, Critical: true}, resp.Checks["postgres"])
	assert.Equal(t, CheckResult{Status: StatusDown, Critical: false, Error: "broker unreachable"}, resp.Checks["kafka"])
}

func TestCheck_AppliesTimeout(t *testing.T) {
	h := NewHandler()
	h.timeout = 20 * time.Millisecond
	h.RegisterCritical("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	resp := h.Check(context.Background())

	assert.Equal(t, StatusDown, resp.Status)
	assert.Contains(t, resp.Checks["slow"].Error, "deadline exceeded")
}
