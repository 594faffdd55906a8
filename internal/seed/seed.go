package seed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/schoolrecords/internal/app/models"
	appRepos "github.com/yigit/schoolrecords/internal/app/repositories"
	appServices "github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

// Defaults describes the data a fresh installation starts with
type Defaults struct {
	AdminEmail    string
	AdminPassword string
	AcademicYear  string
}

// CreateDefaultData creates the first admin account and the first academic
// year if they don't exist. Empty settings are skipped.
func CreateDefaultData(ctx context.Context, svc *appServices.Services, roles appRepos.UserRoleRepository, defaults Defaults, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (admin account, academic year)...")
	var finalErr error // To collect potential errors without stopping the process

	// --- Default Admin User --- //
	if defaults.AdminEmail != "" && defaults.AdminPassword != "" {
		role, err := svc.Users.Register(ctx, defaults.AdminEmail, defaults.AdminPassword)
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			lgr.Info().Str("email", defaults.AdminEmail).Msg("Admin account already exists, skipping creation")
		case err != nil:
			lgr.Error().Err(err).Msg("Error creating admin account")
			finalErr = errors.Join(finalErr, err)
		default:
			if err := roles.UpdateRole(ctx, role.UserID, appModels.RoleAdmin, time.Now()); err != nil {
				lgr.Error().Err(err).Msg("Error granting admin role")
				finalErr = errors.Join(finalErr, err)
			} else {
				lgr.Info().Str("userID", role.UserID).Msg("Default admin account created successfully")
			}
		}
	}

	// --- Initial Academic Year --- //
	if defaults.AcademicYear != "" {
		_, err := svc.AcademicYears.Add(ctx, defaults.AcademicYear)
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			lgr.Info().Str("year", defaults.AcademicYear).Msg("Academic year already exists, skipping creation")
		case err != nil:
			lgr.Error().Err(err).Msg("Error creating academic year")
			finalErr = errors.Join(finalErr, err)
		default:
			lgr.Info().Str("year", defaults.AcademicYear).Msg("Default academic year created")
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
