package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/samenactief/backend/internal/app/models"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
)

// CenterRepository handles database operations for community centers
type CenterRepository struct{}

// NewCenterRepository creates a new CenterRepository
func NewCenterRepository() *CenterRepository {
	return &CenterRepository{}
}

func (r *CenterRepository) getOne(ctx context.Context, q db.Querier, where squirrel.Sqlizer) (*models.Center, error) {
	sql, args, err := squirrel.Select("id", "name", "village", "neighborhood", "address", "created_at", "updated_at").
		From("centers").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var c models.Center
	err = q.QueryRow(ctx, sql, args...).Scan(
		&c.ID, &c.Name, &c.Village, &c.Neighborhood, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCenterNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return &c, nil
}

// GetByID retrieves a center by ID
func (r *CenterRepository) GetByID(ctx context.Context, q db.Querier, id int64) (*models.Center, error) {
	return r.getOne(ctx, q, squirrel.Eq{"id": id})
}

// GetByName retrieves a center by its unique name
func (r *CenterRepository) GetByName(ctx context.Context, q db.Querier, name string) (*models.Center, error) {
	return r.getOne(ctx, q, squirrel.Eq{"name": name})
}

// Create inserts a center
func (r *CenterRepository) Create(ctx context.Context, q db.Querier, center *models.Center) error {
	sql, args, err := squirrel.Insert("centers").
		Columns("name", "village", "neighborhood", "address").
		Values(center.Name, center.Village, center.Neighborhood, center.Address).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&center.ID, &center.CreatedAt, &center.UpdatedAt); err != nil {
		return fmt.Errorf("error creating center: %w", err)
	}
	return nil
}
