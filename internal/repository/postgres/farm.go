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

const farmColumns = `id, owner_id, name, slug, description, city, address, latitude, longitude, geohash, created_at, updated_at`

// FarmRepository implements repository.FarmRepository using PostgreSQL.
type FarmRepository struct {
	pool database.DBTX
}

// NewFarmRepository creates a new PostgreSQL-backed farm repository.
func NewFarmRepository(pool database.DBTX) *FarmRepository {
	return &FarmRepository{pool: pool}
}

// Create inserts a farm and fills in its ID.
func (r *FarmRepository) Create(ctx context.Context, f *domain.Farm) (err error) {
	query := `
		INSERT INTO farms (owner_id, name, slug, description, city, address, latitude, longitude, geohash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateFarm", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		f.OwnerID,
		f.Name,
		f.Slug,
		f.Description,
		f.City,
		f.Address,
		f.Latitude,
		f.Longitude,
		f.Geohash,
		f.CreatedAt,
		f.UpdatedAt,
	).Scan(&f.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("farm", "slug", f.Slug)
		}
		return fmt.Errorf("insert farm: %w", err)
	}
	return nil
}

// GetByID retrieves a farm by its ID.
func (r *FarmRepository) GetByID(ctx context.Context, id int64) (f *domain.Farm, err error) {
	query := `SELECT ` + farmColumns + ` FROM farms WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetFarm", query)
	defer func() { end(err) }()

	var farm domain.Farm
	err = r.pool.QueryRow(ctx, query, id).Scan(farmDest(&farm)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("farm", id)
		}
		return nil, fmt.Errorf("get farm: %w", err)
	}
	return &farm, nil
}

// Update overwrites the editable fields of a farm.
func (r *FarmRepository) Update(ctx context.Context, f *domain.Farm) (err error) {
	query := `
		UPDATE farms
		SET name = $1, description = $2, city = $3, address = $4, latitude = $5, longitude = $6, geohash = $7, updated_at = $8
		WHERE id = $9`

	ctx, end := database.TraceQuery(ctx, "UpdateFarm", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query,
		f.Name,
		f.Description,
		f.City,
		f.Address,
		f.Latitude,
		f.Longitude,
		f.Geohash,
		f.UpdatedAt,
		f.ID,
	)
	if err != nil {
		return fmt.Errorf("update farm: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("farm", f.ID)
	}
	return nil
}

// List returns farms matching filter, newest first, with the total count.
func (r *FarmRepository) List(ctx context.Context, filter repository.FarmFilter) (farms []domain.Farm, total int, err error) {
	var w where
	if filter.City != nil {
		w.add("city ILIKE ?", *filter.City)
	}
	if len(filter.GeohashPrefixes) > 0 {
		w.add("left(geohash, ?::int) = ANY(?)", len(filter.GeohashPrefixes[0]), filter.GeohashPrefixes)
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM farms
		%s
		ORDER BY created_at DESC, id DESC
		%s`,
		farmColumns, w.clause(), w.limit(filter.Page.Take, filter.Page.Skip),
	)

	ctx, end := database.TraceQuery(ctx, "ListFarms", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list farms: %w", err)
	}
	defer rows.Close()

	farms = []domain.Farm{}
	for rows.Next() {
		var f domain.Farm
		if err := rows.Scan(append(farmDest(&f), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan farm row: %w", err)
		}
		farms = append(farms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate farm rows: %w", err)
	}
	return farms, total, nil
}

func farmDest(f *domain.Farm) []any {
	return []any{
		&f.ID, &f.OwnerID, &f.Name, &f.Slug, &f.Description, &f.City, &f.Address,
		&f.Latitude, &f.Longitude, &f.Geohash, &f.CreatedAt, &f.UpdatedAt,
	}
}
