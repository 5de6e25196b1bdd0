package pagination

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Package-wide defaults used when callers pass non-positive limits.
const (
	DefaultPageSize = 32
	MaxPageSize     = 100
)

// maxOffset keeps Skip inside the range of a 32-bit SQL OFFSET.
const maxOffset = math.MaxInt32

// Request holds the normalized pagination window for a single query.
type Request struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Skip     int `json:"-"`
	Take     int `json:"-"`
}

// Normalize turns untrusted query values into a safe pagination window.
// Only the keys "page", "limit" and "pageSize" are read. It never fails:
// anything missing, non-numeric, non-finite or not positive falls back to
// page 1 and defaultPageSize, and the size is capped at maxPageSize.
func Normalize(query url.Values, defaultPageSize, maxPageSize int) Request {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}

	page := parsePositive(query, "page", 1)

	sizeKey := "pageSize"
	if query.Has("limit") {
		sizeKey = "limit"
	}
	pageSize := parsePositive(query, sizeKey, defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	if maxPage := maxOffset/pageSize + 1; page > maxPage {
		page = maxPage
	}

	return Request{
		Page:     page,
		PageSize: pageSize,
		Skip:     (page - 1) * pageSize,
		Take:     pageSize,
	}
}

// FromRequest normalizes the pagination parameters of an HTTP request.
func FromRequest(r *http.Request, defaultPageSize, maxPageSize int) Request {
	return Normalize(r.URL.Query(), defaultPageSize, maxPageSize)
}

// parsePositive reads key as a number, floors it and returns fallback unless
// the result is a finite integer >= 1. Values beyond the int32 range saturate.
func parsePositive(query url.Values, key string, fallback int) int {
	if query == nil || !query.Has(key) {
		return fallback
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(query.Get(key)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}

	f = math.Floor(f)
	if f < 1 {
		return fallback
	}
	if f > maxOffset {
		return maxOffset
	}
	return int(f)
}

// Response is the uniform envelope for paginated list endpoints.
type Response[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// BuildResponse wraps one page of items. A zero page size yields zero pages
// instead of dividing by zero; items is never modified.
func BuildResponse[T any](items []T, page, pageSize, total int) Response[T] {
	if total < 0 {
		total = 0
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = total / pageSize
		if total%pageSize > 0 {
			totalPages++
		}
	}

	if items == nil {
		items = []T{}
	}

	return Response[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page*pageSize < total,
	}
}

// NewResponse builds the envelope for a page produced from req.
func NewResponse[T any](items []T, req Request, total int) Response[T] {
	return BuildResponse(items, req.Page, req.PageSize, total)
}
