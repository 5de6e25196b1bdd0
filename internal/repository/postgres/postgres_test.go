package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	"github.com/Ado-go/farmly-sub001/pkg/database"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func int64Ptr(n int64) *int64        { return &n }
func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	now       = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	firstPage = pagination.Request{Page: 1, PageSize: 20, Skip: 0, Take: 20}
)

var uniqueErr = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

// ─────────────────────────────────────────────────────────────────────────────
// where builder
// ─────────────────────────────────────────────────────────────────────────────

func TestWhere(t *testing.T) {
	var w where
	assert.Empty(t, w.clause())

	w.add("a = ?", 1)
	w.add("(b ILIKE ? OR c ILIKE ?)", "x", "y")
	limit := w.limit(10, 20)

	assert.Equal(t, "WHERE a = $1 AND (b ILIKE $2 OR c ILIKE $3)", w.clause())
	assert.Equal(t, "LIMIT $4 OFFSET $5", limit)
	assert.Equal(t, []any{1, "x", "y", 10, 20}, w.args)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(uniqueErr))
	assert.True(t, isUniqueViolation(errors.New("ERROR: duplicate key (SQLSTATE 23505)")))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

// ─────────────────────────────────────────────────────────────────────────────
// FarmRepository
// ─────────────────────────────────────────────────────────────────────────────

var farmCols = []string{
	"id", "owner_id", "name", "slug", "description", "city", "address",
	"latitude", "longitude", "geohash", "created_at", "updated_at",
}

func sampleFarm() domain.Farm {
	f := domain.Farm{
		ID:          1,
		OwnerID:     7,
		Name:        "Green Valley",
		Slug:        "green-valley",
		Description: "Organic vegetables",
		City:        "Trnava",
		Address:     "Poľná 1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.SetLocation(floatPtr(48.37), floatPtr(17.58))
	return f
}

func farmRow(f domain.Farm) []any {
	return []any{
		f.ID, f.OwnerID, f.Name, f.Slug, f.Description, f.City, f.Address,
		f.Latitude, f.Longitude, f.Geohash, f.CreatedAt, f.UpdatedAt,
	}
}

func TestFarmRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewFarmRepository(mock)

	f := sampleFarm()
	f.ID = 0
	mock.ExpectQuery("INSERT INTO farms").
		WithArgs(f.OwnerID, f.Name, f.Slug, f.Description, f.City, f.Address,
			f.Latitude, f.Longitude, f.Geohash, f.CreatedAt, f.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(12)))

	require.NoError(t, repo.Create(context.Background(), &f))
	assert.Equal(t, int64(12), f.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepository_Create_DuplicateSlug(t *testing.T) {
	mock := newMock(t)
	repo := NewFarmRepository(mock)

	f := sampleFarm()
	mock.ExpectQuery("INSERT INTO farms").
		WithArgs(f.OwnerID, f.Name, f.Slug, f.Description, f.City, f.Address,
			f.Latitude, f.Longitude, f.Geohash, f.CreatedAt, f.UpdatedAt).
		WillReturnError(uniqueErr)

	err := repo.Create(context.Background(), &f)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewFarmRepository(mock)

	f := sampleFarm()
	mock.ExpectQuery("SELECT .+ FROM farms WHERE id").
		WithArgs(f.ID).
		WillReturnRows(pgxmock.NewRows(farmCols).AddRow(farmRow(f)...))

	got, err := repo.GetByID(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewFarmRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM farms WHERE id").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), 99)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFarmRepository_Update_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewFarmRepository(mock)

	f := sampleFarm()
	mock.ExpectExec("UPDATE farms").
		WithArgs(f.Name, f.Description, f.City, f.Address, f.Latitude, f.Longitude, f.Geohash, f.UpdatedAt, f.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), &f)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepository_List_WithFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewFarmRepository(mock)

	f := sampleFarm()
	cells := domain.NearbyCells(48.37, 17.58, 3)
	page := pagination.Request{Page: 2, PageSize: 5, Skip: 5, Take: 5}

	mock.ExpectQuery(`SELECT .+ FROM farms WHERE city ILIKE \$1 AND left\(geohash, \$2::int\) = ANY\(\$3\) ORDER BY .+ LIMIT \$4 OFFSET \$5`).
		WithArgs("Trnava", len(cells[0]), cells, 5, 5).
		WillReturnRows(pgxmock.NewRows(append(farmCols, "total_count")).AddRow(append(farmRow(f), 6)...))

	farms, total, err := repo.List(context.Background(), repository.FarmFilter{
		City:            strPtr("Trnava"),
		GeohashPrefixes: cells,
		Page:            page,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, farms, 1)
	assert.Equal(t, "green-valley", farms[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFarmRepository_List_EmptyIsNotNil(t *testing.T) {
	mock := newMock(t)
	repo := NewFarmRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM farms").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(append(farmCols, "total_count")))

	farms, total, err := repo.List(context.Background(), repository.FarmFilter{Page: firstPage})
	require.NoError(t, err)
	assert.NotNil(t, farms)
	assert.Empty(t, farms)
	assert.Zero(t, total)
}

// ─────────────────────────────────────────────────────────────────────────────
// ProductRepository
// ─────────────────────────────────────────────────────────────────────────────

var productCols = []string{
	"id", "farm_id", "seller_name", "name", "description", "category", "price", "stock", "created_at", "updated_at",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:          3,
		FarmID:      1,
		SellerName:  "Green Valley",
		Name:        "Carrots",
		Description: "1 kg bunch",
		Category:    "vegetables",
		Price:       price("2.40"),
		Stock:       50,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func productRow(p domain.Product) []any {
	return []any{p.ID, p.FarmID, p.SellerName, p.Name, p.Description, p.Category, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt}
}

func TestProductRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectQuery("INSERT INTO products").
		WithArgs(p.FarmID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(30)))

	require.NoError(t, repo.Create(context.Background(), &p))
	assert.Equal(t, int64(30), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_JoinsFarmName(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	p := sampleProduct()
	mock.ExpectQuery("SELECT .+ FROM products p JOIN farms f ON f.id = p.farm_id WHERE p.id").
		WithArgs(p.ID).
		WillReturnRows(pgxmock.NewRows(productCols).AddRow(productRow(p)...))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Green Valley", got.SellerName)
	assert.True(t, p.Price.Equal(got.Price))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), apperrors.ErrNotFound)
}

func TestProductRepository_List_AllFilters(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	p := sampleProduct()
	minPrice, maxPrice := price("1"), price("5")

	mock.ExpectQuery(`WHERE p.farm_id = \$1 AND p.category = \$2 AND \(p.name ILIKE \$3 OR p.description ILIKE \$4\) AND p.price >= \$5 AND p.price <= \$6`).
		WithArgs(int64(1), "vegetables", "%carr%", "%carr%", minPrice, maxPrice, 20, 0).
		WillReturnRows(pgxmock.NewRows(append(productCols, "total_count")).AddRow(append(productRow(p), 1)...))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		FarmID:   int64Ptr(1),
		Category: strPtr("vegetables"),
		Search:   strPtr("carr"),
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
		Page:     firstPage,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_QueryError(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(20, 0).
		WillReturnError(errors.New("connection reset"))

	_, _, err := repo.List(context.Background(), repository.ProductFilter{Page: firstPage})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list products")
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
