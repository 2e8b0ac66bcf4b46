package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/samenactief/backend/internal/app/models"
	appRepos "github.com/samenactief/backend/internal/app/repositories"
	"github.com/samenactief/backend/internal/db"
	"github.com/samenactief/backend/internal/pkg/apperrors"
	"github.com/samenactief/backend/internal/pkg/auth"
)

const (
	PlatformAdminEmail = "admin@samenactief.nl"
	CenterAdminEmail   = "beheer@delinde.samenactief.nl"
	DemoCenterName     = "Buurthuis De Linde"
	defaultPassword    = "Admin123!"
)

type userStore interface {
	GetByEmail(ctx context.Context, q db.Querier, email string) (*appModels.User, error)
	Create(ctx context.Context, q db.Querier, user *appModels.User) error
}

type centerStore interface {
	GetByName(ctx context.Context, q db.Querier, name string) (*appModels.Center, error)
	Create(ctx context.Context, q db.Querier, center *appModels.Center) error
}

// CreateDefaultData creates the platform admin, a demo center and its admin
// if they don't exist. Failures are collected so one bad row doesn't block the rest.
func CreateDefaultData(ctx context.Context, q db.Querier, repos *appRepos.Repositories, lgr zerolog.Logger) error {
	return createDefaultData(ctx, q, repos.UserRepository, repos.CenterRepository, auth.HashPassword, lgr)
}

func createDefaultData(
	ctx context.Context,
	q db.Querier,
	users userStore,
	centers centerStore,
	hash func(string) (string, error),
	lgr zerolog.Logger,
) error {
	lgr.Info().Msg("Checking/Creating default data (admins/demo center)...")
	var finalErr error

	center, err := centers.GetByName(ctx, q, DemoCenterName)
	if errors.Is(err, apperrors.ErrCenterNotFound) {
		center = &appModels.Center{
			Name:         DemoCenterName,
			Village:      "Ede",
			Neighborhood: "Veldhuizen",
			Address:      "Lindelaan 1",
		}
		if err = centers.Create(ctx, q, center); err == nil {
			lgr.Info().Int64("centerId", center.ID).Msg("Created demo center")
		}
	}
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating demo center")
		finalErr = errors.Join(finalErr, err)
		center = nil
	}

	admins := []*appModels.User{{
		Email:       PlatformAdminEmail,
		DisplayName: "Platformbeheer",
		RoleType:    appModels.RolePlatformAdmin,
	}}
	if center != nil {
		admins = append(admins, &appModels.User{
			Email:       CenterAdminEmail,
			DisplayName: "Beheer De Linde",
			Village:     center.Village,
			RoleType:    appModels.RoleCenterAdmin,
			CenterID:    &center.ID,
		})
	}

	for _, admin := range admins {
		_, err := users.GetByEmail(ctx, q, admin.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			lgr.Error().Err(err).Str("email", admin.Email).Msg("Error checking if admin user exists")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		hashed, err := hash(defaultPassword)
		if err != nil {
			lgr.Error().Err(err).Msg("Error hashing admin password")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		admin.Password = hashed
		if err := users.Create(ctx, q, admin); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Error().Err(err).Str("email", admin.Email).Msg("Error creating admin user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Str("email", admin.Email).Str("role", string(admin.RoleType)).Msg("Created default admin user")
	}

	return finalErr
}
