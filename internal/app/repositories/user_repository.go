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
	"github.com/samenactief/backend/internal/pkg/dberrors"
)

var userColumns = []string{
	"id", "email", "password", "display_name", "village", "neighborhood",
	"anonymous_participation", "role_type", "center_id", "created_at", "updated_at",
}

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new UserRepository
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.Village, &u.Neighborhood,
		&u.AnonymousParticipation, &u.RoleType, &u.CenterID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) getOne(ctx context.Context, q db.Querier, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := squirrel.Select(userColumns...).
		From("users").
		Where(where).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanUser(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, q db.Querier, id int64) (*models.User, error) {
	return r.getOne(ctx, q, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, q db.Querier, email string) (*models.User, error) {
	return r.getOne(ctx, q, squirrel.Eq{"email": email})
}

// GetByIDs loads several users at once, keyed by ID. Unknown IDs are absent.
func (r *UserRepository) GetByIDs(ctx context.Context, q db.Querier, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	sql, args, err := squirrel.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": ids}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		users[user.ID] = user
	}
	return users, rows.Err()
}

// Create inserts a user. Password must already be hashed.
func (r *UserRepository) Create(ctx context.Context, q db.Querier, user *models.User) error {
	sql, args, err := squirrel.Insert("users").
		Columns("email", "password", "display_name", "village", "neighborhood",
			"anonymous_participation", "role_type", "center_id").
		Values(user.Email, user.Password, user.DisplayName, user.Village, user.Neighborhood,
			user.AnonymousParticipation, user.RoleType, user.CenterID).
		Suffix("RETURNING id, created_at, updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintUserEmail) {
			return apperrors.ErrEmailAlreadyExists
		}
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrCenterNotFound
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// UpdateProfile writes the resident-editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, q db.Querier, user *models.User) error {
	sql, args, err := squirrel.Update("users").
		Set("display_name", user.DisplayName).
		Set("village", user.Village).
		Set("neighborhood", user.Neighborhood).
		Set("anonymous_participation", user.AnonymousParticipation).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": user.ID}).
		Suffix("RETURNING updated_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}
