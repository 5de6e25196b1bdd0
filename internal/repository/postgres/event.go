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
	"github.com/Ado-go/farmly-sub001/pkg/pagination"
)

const (
	eventColumns = `id, organizer_id, title, description, location, starts_at, ends_at, created_at, updated_at`

	stallColumns = `s.id, s.event_id, s.product_id, p.farm_id, f.name, p.name, s.price, s.stock, s.created_at`
	stallFrom    = `FROM stall_products s JOIN products p ON p.id = s.product_id JOIN farms f ON f.id = p.farm_id`
)

// EventRepository implements repository.EventRepository using PostgreSQL.
type EventRepository struct {
	pool database.DBTX
}

// NewEventRepository creates a new PostgreSQL-backed event repository.
func NewEventRepository(pool database.DBTX) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create inserts an event and fills in its ID.
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) (err error) {
	query := `
		INSERT INTO events (organizer_id, title, description, location, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateEvent", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		e.OrganizerID,
		e.Title,
		e.Description,
		e.Location,
		e.StartsAt,
		e.EndsAt,
		e.CreatedAt,
		e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by its ID.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (e *domain.Event, err error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetEvent", query)
	defer func() { end(err) }()

	var event domain.Event
	err = r.pool.QueryRow(ctx, query, id).Scan(eventDest(&event)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("event", id)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// List returns events ordered by start time with the total count.
func (r *EventRepository) List(ctx context.Context, filter repository.EventFilter) (events []domain.Event, total int, err error) {
	var w where
	if filter.EndsAfter != nil {
		w.add("ends_at > ?", *filter.EndsAfter)
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM events
		%s
		ORDER BY starts_at ASC, id ASC
		%s`,
		eventColumns, w.clause(), w.limit(filter.Page.Take, filter.Page.Skip),
	)

	ctx, end := database.TraceQuery(ctx, "ListEvents", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events = []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(append(eventDest(&e), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, total, nil
}

// CreateStallProduct inserts a stall entry and fills in its ID.
func (r *EventRepository) CreateStallProduct(ctx context.Context, sp *domain.StallProduct) (err error) {
	query := `
		INSERT INTO stall_products (event_id, product_id, price, stock, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateStallProduct", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query, sp.EventID, sp.ProductID, sp.Price, sp.Stock, sp.CreatedAt).Scan(&sp.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("stall product", "product_id", fmt.Sprint(sp.ProductID))
		}
		return fmt.Errorf("insert stall product: %w", err)
	}
	return nil
}

// GetStallProduct retrieves the stall entry for productID at eventID.
func (r *EventRepository) GetStallProduct(ctx context.Context, eventID, productID int64) (sp *domain.StallProduct, err error) {
	query := `SELECT ` + stallColumns + ` ` + stallFrom + ` WHERE s.event_id = $1 AND s.product_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetStallProduct", query)
	defer func() { end(err) }()

	var stall domain.StallProduct
	err = r.pool.QueryRow(ctx, query, eventID, productID).Scan(stallDest(&stall)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("stall product", fmt.Sprintf("%d/%d", eventID, productID))
		}
		return nil, fmt.Errorf("get stall product: %w", err)
	}
	return &stall, nil
}

// ListStallProducts returns the stall entries of an event with the total count.
func (r *EventRepository) ListStallProducts(ctx context.Context, eventID int64, page pagination.Request) (stalls []domain.StallProduct, total int, err error) {
	var w where
	w.add("s.event_id = ?", eventID)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		%s
		%s
		ORDER BY f.name ASC, p.name ASC, s.id ASC
		%s`,
		stallColumns, stallFrom, w.clause(), w.limit(page.Take, page.Skip),
	)

	ctx, end := database.TraceQuery(ctx, "ListStallProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stall products: %w", err)
	}
	defer rows.Close()

	stalls = []domain.StallProduct{}
	for rows.Next() {
		var sp domain.StallProduct
		if err := rows.Scan(append(stallDest(&sp), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan stall product row: %w", err)
		}
		stalls = append(stalls, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate stall product rows: %w", err)
	}
	return stalls, total, nil
}

func eventDest(e *domain.Event) []any {
	return []any{
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.CreatedAt, &e.UpdatedAt,
	}
}

func stallDest(sp *domain.StallProduct) []any {
	return []any{
		&sp.ID, &sp.EventID, &sp.ProductID, &sp.FarmID, &sp.FarmName, &sp.ProductName,
		&sp.Price, &sp.Stock, &sp.CreatedAt,
	}
}
