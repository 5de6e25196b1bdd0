package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	"github.com/Ado-go/farmly-sub001/pkg/database"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

const (
	productColumns = `p.id, p.farm_id, f.name, p.name, p.description, p.category, p.price, p.stock, p.created_at, p.updated_at`
	productFrom    = `FROM products p JOIN farms f ON f.id = p.farm_id`
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a product and fills in its ID.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (farm_id, name, description, category, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		p.FarmID,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.Stock,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` ` + productFrom + ` WHERE p.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	var product domain.Product
	err = r.pool.QueryRow(ctx, query, id).Scan(productDest(&product)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}

// Update overwrites the editable fields of a product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (err error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, category = $3, price = $4, stock = $5, updated_at = $6
		WHERE id = $7`

	ctx, end := database.TraceQuery(ctx, "UpdateProduct", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, p.Name, p.Description, p.Category, p.Price, p.Stock, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (err error) {
	query := `DELETE FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteProduct", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// List returns products matching filter, newest first, with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (products []domain.Product, total int, err error) {
	var w where
	if filter.FarmID != nil {
		w.add("p.farm_id = ?", *filter.FarmID)
	}
	if filter.Category != nil {
		w.add("p.category = ?", *filter.Category)
	}
	if filter.Search != nil {
		w.add("(p.name ILIKE ? OR p.description ILIKE ?)", "%"+*filter.Search+"%", "%"+*filter.Search+"%")
	}
	if filter.MinPrice != nil {
		w.add("p.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		w.add("p.price <= ?", *filter.MaxPrice)
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		%s
		%s
		ORDER BY p.created_at DESC, p.id DESC
		%s`,
		productColumns, productFrom, w.clause(), w.limit(filter.Page.Take, filter.Page.Skip),
	)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(append(productDest(&p), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, total, nil
}

func productDest(p *domain.Product) []any {
	return []any{
		&p.ID, &p.FarmID, &p.SellerName, &p.Name, &p.Description, &p.Category,
		&p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	}
}
