package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/pkg/httputil"
	"github.com/Ado-go/farmly-sub001/pkg/middleware"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

// Pagination holds the page size bounds applied to list endpoints.
type Pagination struct {
	DefaultPageSize int
	MaxPageSize     int
}

func (p Pagination) fromRequest(r *http.Request) pagination.Request {
	return pagination.FromRequest(r, p.DefaultPageSize, p.MaxPageSize)
}

// actorFromRequest returns the caller asserted by the gateway headers.
func actorFromRequest(r *http.Request) domain.Actor {
	id, _ := middleware.IdentityFromContext(r.Context())
	return domain.Actor{UserID: id.UserID, Role: id.Role}
}

func writeInvalidParameter(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}

// queryString returns a trimmed, non-empty query parameter.
func queryString(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}

// queryInt64 parses an optional positive integer query parameter. It writes
// a 400 and returns false when the value is malformed.
func queryInt64(w http.ResponseWriter, r *http.Request, key string) (*int64, bool) {
	v := queryString(r, key)
	if v == nil {
		return nil, true
	}
	n, err := strconv.ParseInt(*v, 10, 64)
	if err != nil || n <= 0 {
		writeInvalidParameter(w, key+" must be a positive integer")
		return nil, false
	}
	return &n, true
}

func queryFloat(w http.ResponseWriter, r *http.Request, key string) (*float64, bool) {
	v := queryString(r, key)
	if v == nil {
		return nil, true
	}
	f, err := strconv.ParseFloat(*v, 64)
	if err != nil {
		writeInvalidParameter(w, key+" must be a number")
		return nil, false
	}
	return &f, true
}

func queryDecimal(w http.ResponseWriter, r *http.Request, key string) (*decimal.Decimal, bool) {
	v := queryString(r, key)
	if v == nil {
		return nil, true
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		writeInvalidParameter(w, key+" must be a valid amount")
		return nil, false
	}
	return &d, true
}
