package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
)

// ProductService implements the business logic for farm products.
type ProductService struct {
	repo   repository.ProductRepository
	farms  repository.FarmRepository
	logger *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repo repository.ProductRepository, farms repository.FarmRepository, logger *slog.Logger) *ProductService {
	return &ProductService{
		repo:   repo,
		farms:  farms,
		logger: logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	FarmID      int64
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
}

// UpdateProductInput holds the parameters for updating a product. Nil
// fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
}

// CreateProduct adds a product to a farm the actor manages.
func (s *ProductService) CreateProduct(ctx context.Context, actor domain.Actor, input *CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if err := validateProductFields(input.Category, input.Price, input.Stock); err != nil {
		return nil, err
	}

	farm, err := s.farms.GetByID(ctx, input.FarmID)
	if err != nil {
		return nil, fmt.Errorf("get farm: %w", err)
	}
	if !actor.CanManage(farm.OwnerID) {
		return nil, apperrors.Forbidden("only the farm owner can add products")
	}

	now := time.Now().UTC()
	product := &domain.Product{
		FarmID:      farm.ID,
		SellerName:  farm.Name,
		Name:        name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Stock:       input.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.Int64("farm_id", product.FarmID),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// UpdateProduct applies input to a product of a farm the actor manages.
func (s *ProductService) UpdateProduct(ctx context.Context, actor domain.Actor, id int64, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.managedProduct(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if err := validateProductFields(product.Category, product.Price, product.Stock); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes a product of a farm the actor manages.
func (s *ProductService) DeleteProduct(ctx context.Context, actor domain.Actor, id int64) error {
	if _, err := s.managedProduct(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	return nil
}

// ListProducts lists products matching filter.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, apperrors.InvalidInput("min_price must not exceed max_price")
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (s *ProductService) managedProduct(ctx context.Context, actor domain.Actor, id int64) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	farm, err := s.farms.GetByID(ctx, product.FarmID)
	if err != nil {
		return nil, fmt.Errorf("get farm: %w", err)
	}
	if !actor.CanManage(farm.OwnerID) {
		return nil, apperrors.Forbidden("only the farm owner can modify this product")
	}
	return product, nil
}

func validateProductFields(category string, price decimal.Decimal, stock int) error {
	if !slices.Contains(domain.Categories, category) {
		return apperrors.InvalidInput(fmt.Sprintf("category must be one of: %s", strings.Join(domain.Categories, ", ")))
	}
	if price.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if stock < 0 {
		return apperrors.InvalidInput("stock must not be negative")
	}
	return nil
}
