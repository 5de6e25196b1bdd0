package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ado-go/farmly-sub001/internal/domain"
	"github.com/Ado-go/farmly-sub001/internal/repository"
	apperrors "github.com/Ado-go/farmly-sub001/pkg/errors"
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
	"github.com/Ado-go/farmly-sub001/pkg/slug"
)

const (
	// maxSlugAttempts bounds how many suffixed slugs are tried for a farm.
	maxSlugAttempts = 5

	// DefaultNearbyRadiusKm is the search radius when a location is given
	// without one.
	DefaultNearbyRadiusKm = 25
)

// FarmService implements the business logic for farms.
type FarmService struct {
	repo   repository.FarmRepository
	logger *slog.Logger
}

// NewFarmService creates a new farm service.
func NewFarmService(repo repository.FarmRepository, logger *slog.Logger) *FarmService {
	return &FarmService{
		repo:   repo,
		logger: logger,
	}
}

// CreateFarmInput holds the parameters for creating a farm.
type CreateFarmInput struct {
	Name        string
	Description string
	City        string
	Address     string
	Latitude    *float64
	Longitude   *float64
}

// UpdateFarmInput holds the parameters for updating a farm. Nil fields are
// left unchanged.
type UpdateFarmInput struct {
	Name        *string
	Description *string
	City        *string
	Address     *string
	Latitude    *float64
	Longitude   *float64
}

// ListFarmsInput holds the filters for listing farms.
type ListFarmsInput struct {
	City      *string
	Latitude  *float64
	Longitude *float64
	RadiusKm  float64
	Page      pagination.Request
}

// CreateFarm creates a farm owned by the actor. The slug is derived from the
// name; a taken slug is retried with a numeric suffix.
func (s *FarmService) CreateFarm(ctx context.Context, actor domain.Actor, input *CreateFarmInput) (*domain.Farm, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("farm name is required")
	}
	if err := validateLocation(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}

	base := slug.Generate(name)
	if base == "" {
		base = "farm"
	}

	now := time.Now().UTC()
	farm := &domain.Farm{
		OwnerID:     actor.UserID,
		Name:        name,
		Description: input.Description,
		City:        strings.TrimSpace(input.City),
		Address:     input.Address,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	farm.SetLocation(input.Latitude, input.Longitude)

	for attempt := 1; ; attempt++ {
		farm.Slug = slug.WithSuffix(base, attempt)

		err := s.repo.Create(ctx, farm)
		if err == nil {
			break
		}
		if !errors.Is(err, apperrors.ErrAlreadyExists) || attempt == maxSlugAttempts {
			return nil, fmt.Errorf("create farm: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "farm created",
		slog.Int64("farm_id", farm.ID),
		slog.String("slug", farm.Slug),
		slog.Int64("owner_id", farm.OwnerID),
	)

	return farm, nil
}

// GetFarm retrieves a farm by its ID.
func (s *FarmService) GetFarm(ctx context.Context, id int64) (*domain.Farm, error) {
	farm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get farm: %w", err)
	}
	return farm, nil
}

// UpdateFarm applies input to a farm the actor manages. The slug never
// changes.
func (s *FarmService) UpdateFarm(ctx context.Context, actor domain.Actor, id int64, input *UpdateFarmInput) (*domain.Farm, error) {
	farm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get farm for update: %w", err)
	}
	if !actor.CanManage(farm.OwnerID) {
		return nil, apperrors.Forbidden("only the farm owner can update it")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("farm name must not be empty")
		}
		farm.Name = name
	}
	if input.Description != nil {
		farm.Description = *input.Description
	}
	if input.City != nil {
		farm.City = strings.TrimSpace(*input.City)
	}
	if input.Address != nil {
		farm.Address = *input.Address
	}
	if input.Latitude != nil || input.Longitude != nil {
		if err := validateLocation(input.Latitude, input.Longitude); err != nil {
			return nil, err
		}
		farm.SetLocation(input.Latitude, input.Longitude)
	}
	farm.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, farm); err != nil {
		return nil, fmt.Errorf("update farm: %w", err)
	}

	s.logger.InfoContext(ctx, "farm updated", slog.Int64("farm_id", farm.ID))
	return farm, nil
}

// ListFarms lists farms, optionally restricted to a city or to the area
// around a location.
func (s *FarmService) ListFarms(ctx context.Context, input ListFarmsInput) ([]domain.Farm, int, error) {
	filter := repository.FarmFilter{City: input.City, Page: input.Page}

	if input.Latitude != nil || input.Longitude != nil {
		if err := validateLocation(input.Latitude, input.Longitude); err != nil {
			return nil, 0, err
		}
		radius := input.RadiusKm
		if radius <= 0 {
			radius = DefaultNearbyRadiusKm
		}
		filter.GeohashPrefixes = domain.NearbyCells(*input.Latitude, *input.Longitude, radius)
	}

	farms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list farms: %w", err)
	}
	return farms, total, nil
}

func validateLocation(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return apperrors.InvalidInput("latitude and longitude must be given together")
	}
	if *lat < -90 || *lat > 90 {
		return apperrors.InvalidInput("latitude must be between -90 and 90")
	}
	if *lng < -180 || *lng > 180 {
		return apperrors.InvalidInput("longitude must be between -180 and 180")
	}
	return nil
}
