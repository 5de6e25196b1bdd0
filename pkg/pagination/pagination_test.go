package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Defaults(t *testing.T) {
	p := Normalize(url.Values{}, 32, 100)

	assert.Equal(t, Request{Page: 1, PageSize: 32, Skip: 0, Take: 32}, p)
}

func TestNormalize_NilQuery(t *testing.T) {
	p := Normalize(nil, 32, 100)

	assert.Equal(t, Request{Page: 1, PageSize: 32, Skip: 0, Take: 32}, p)
}

func TestNormalize_CustomValues(t *testing.T) {
	p := Normalize(url.Values{"page": {"3"}, "limit": {"10"}}, 20, 50)

	assert.Equal(t, Request{Page: 3, PageSize: 10, Skip: 20, Take: 10}, p)
}

func TestNormalize_NegativePageAndFractionalLimit(t *testing.T) {
	p := Normalize(url.Values{"page": {"-2"}, "limit": {"120.9"}}, 15, 50)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 50, p.PageSize) // floored to 120, clamped to 50
	assert.Equal(t, 0, p.Skip)
	assert.Equal(t, 50, p.Take)
}

func TestNormalize_LimitTakesPrecedenceOverPageSize(t *testing.T) {
	p := Normalize(url.Values{"limit": {"7"}, "pageSize": {"9"}}, 20, 50)
	assert.Equal(t, 7, p.PageSize)
}

func TestNormalize_PageSizeUsedWithoutLimit(t *testing.T) {
	p := Normalize(url.Values{"pageSize": {"9"}}, 20, 50)
	assert.Equal(t, 9, p.PageSize)
}

func TestNormalize_BadLimitFallsBackToDefaultNotPageSize(t *testing.T) {
	p := Normalize(url.Values{"limit": {"abc"}, "pageSize": {"9"}}, 20, 50)
	assert.Equal(t, 20, p.PageSize)
}

func TestNormalize_EmptyLimitFallsBackToDefault(t *testing.T) {
	p := Normalize(url.Values{"limit": {""}}, 20, 50)
	assert.Equal(t, 20, p.PageSize)
}

func TestNormalize_UnknownKeysIgnored(t *testing.T) {
	p := Normalize(url.Values{"per_page": {"5"}, "offset": {"100"}}, 20, 50)
	assert.Equal(t, Request{Page: 1, PageSize: 20, Skip: 0, Take: 20}, p)
}

func TestNormalize_FractionalPageIsFloored(t *testing.T) {
	p := Normalize(url.Values{"page": {"2.7"}, "limit": {"10"}}, 20, 50)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Skip)
}

func TestNormalize_SubOneValuesFallBack(t *testing.T) {
	p := Normalize(url.Values{"page": {"0.5"}, "limit": {"0.9"}}, 20, 50)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
}

func TestNormalize_NonFiniteValuesFallBack(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf", "Infinity"} {
		p := Normalize(url.Values{"page": {v}, "limit": {v}}, 20, 50)
		assert.Equal(t, 1, p.Page, v)
		assert.Equal(t, 20, p.PageSize, v)
	}
}

func TestNormalize_HugePageKeepsSkipNonNegative(t *testing.T) {
	p := Normalize(url.Values{"page": {"1e300"}, "limit": {"100"}}, 20, 100)

	assert.Greater(t, p.Page, 1)
	assert.GreaterOrEqual(t, p.Skip, 0)
	assert.Equal(t, (p.Page-1)*p.PageSize, p.Skip)
}

func TestNormalize_NonPositiveArgumentsUsePackageDefaults(t *testing.T) {
	p := Normalize(url.Values{"limit": {"500"}}, 0, -1)

	assert.Equal(t, MaxPageSize, p.PageSize)

	p = Normalize(url.Values{}, -5, 0)
	assert.Equal(t, DefaultPageSize, p.PageSize)
}

func TestNormalize_NeverProducesInvalidWindow(t *testing.T) {
	pages := []string{"", "-2", "abc", "3"}
	limits := []string{"", "0", "120.9", "10"}
	const maxSize = 50

	for _, page := range pages {
		for _, limit := range limits {
			q := url.Values{}
			if page != "" {
				q.Set("page", page)
			}
			if limit != "" {
				q.Set("limit", limit)
			}

			p := Normalize(q, 15, maxSize)

			assert.GreaterOrEqual(t, p.Page, 1, "page=%q limit=%q", page, limit)
			assert.GreaterOrEqual(t, p.PageSize, 1, "page=%q limit=%q", page, limit)
			assert.LessOrEqual(t, p.PageSize, maxSize, "page=%q limit=%q", page, limit)
			assert.Equal(t, (p.Page-1)*p.PageSize, p.Skip, "page=%q limit=%q", page, limit)
			assert.Equal(t, p.PageSize, p.Take, "page=%q limit=%q", page, limit)
		}
	}
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products?page=4&pageSize=25", nil)
	p := FromRequest(req, 32, 100)

	assert.Equal(t, Request{Page: 4, PageSize: 25, Skip: 75, Take: 25}, p)
}

func TestBuildResponse_MultiplePages(t *testing.T) {
	result := BuildResponse([]string{"a", "b"}, 2, 5, 12)

	assert.Equal(t, []string{"a", "b"}, result.Items)
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, 5, result.PageSize)
	assert.Equal(t, 12, result.Total)
	assert.Equal(t, 3, result.TotalPages)
	assert.True(t, result.HasMore)
}

func TestBuildResponse_ZeroPageSize(t *testing.T) {
	result := BuildResponse([]string{}, 1, 0, 0)

	assert.Equal(t, 0, result.TotalPages)
	assert.False(t, result.HasMore)
}

func TestBuildResponse_LastPage(t *testing.T) {
	result := BuildResponse([]int{11}, 3, 5, 11)

	assert.Equal(t, 3, result.TotalPages)
	assert.False(t, result.HasMore)
}

func TestBuildResponse_ExactMultiple(t *testing.T) {
	result := BuildResponse([]int{1, 2, 3, 4, 5}, 2, 5, 10)

	assert.Equal(t, 2, result.TotalPages)
	assert.False(t, result.HasMore)
}

func TestBuildResponse_NegativeTotal(t *testing.T) {
	result := BuildResponse([]int{}, 1, 10, -4)

	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.TotalPages)
	assert.False(t, result.HasMore)
}

func TestBuildResponse_DoesNotMutateItems(t *testing.T) {
	items := []string{"x", "y", "z"}
	_ = BuildResponse(items, 1, 2, 3)

	assert.Equal(t, []string{"x", "y", "z"}, items)
}

func TestBuildResponse_NilItemsRenderAsEmptyArray(t *testing.T) {
	result := BuildResponse[string](nil, 1, 10, 0)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"page":1,"page_size":10,"total":0,"total_pages":0,"has_more":false}`, string(data))
}

func TestNewResponse(t *testing.T) {
	req := Normalize(url.Values{"page": {"2"}, "limit": {"2"}}, 20, 50)
	result := NewResponse([]int{3, 4}, req, 5)

	assert.Equal(t, 2, result.Page)
	assert.Equal(t, 2, result.PageSize)
	assert.Equal(t, 3, result.TotalPages)
	assert.True(t, result.HasMore)
}
