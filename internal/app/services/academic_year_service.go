package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/kvstore"
	"github.com/yigit/schoolrecords/internal/pkg/validation"
)

// ActiveYearKeyPrefix prefixes the persisted selection of each session
const ActiveYearKeyPrefix = "activeAcademicYear:"

// AcademicYearService manages the catalog of selectable academic years
type AcademicYearService interface {
	Add(ctx context.Context, year string) (*models.AcademicYear, error)
	List(ctx context.Context) ([]models.AcademicYear, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, year string) (bool, error)
}

// academicYearServiceImpl implements the AcademicYearService interface
type academicYearServiceImpl struct {
	yearRepo repositories.AcademicYearRepository
	feed     changefeed.Feed
	logger   zerolog.Logger
}

// NewAcademicYearService creates a new academic year service instance
func NewAcademicYearService(yearRepo repositories.AcademicYearRepository, feed changefeed.Feed, logger zerolog.Logger) AcademicYearService {
	return &academicYearServiceImpl{
		yearRepo: yearRepo,
		feed:     feed,
		logger:   logger,
	}
}

func validateYear(year string) error {
	switch {
	case year == "":
		return apperrors.NewValidationError(apperrors.FieldError{Field: "year", Message: "is required"})
	case !validation.IsAcademicYear(year):
		return apperrors.NewValidationError(apperrors.FieldError{Field: "year", Message: "must look like 2024/2025"})
	}
	return nil
}

// Add inserts year into the catalog unless it is already listed.
//
// The existence check and the insert are separate statements, two concurrent
// calls for the same year can both succeed.
func (s *academicYearServiceImpl) Add(ctx context.Context, year string) (*models.AcademicYear, error) {
	year = strings.TrimSpace(year)
	if err := validateYear(year); err != nil {
		return nil, err
	}

	exists, err := s.yearRepo.ExistsByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflictError("academic year " + year + " already exists")
	}

	entry := &models.AcademicYear{
		ID:        uuid.New().String(),
		Year:      year,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.yearRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, entry)
	s.logger.Info().Str("year", year).Msg("Academic year added")
	return entry, nil
}

func (s *academicYearServiceImpl) List(ctx context.Context) ([]models.AcademicYear, error) {
	return s.yearRepo.List(ctx)
}

// Delete removes a catalog entry. Student records of that year are kept.
func (s *academicYearServiceImpl) Delete(ctx context.Context, id string) error {
	entry, err := s.yearRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.yearRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, entry)
	s.logger.Info().Str("year", entry.Year).Msg("Academic year deleted")
	return nil
}

func (s *academicYearServiceImpl) Exists(ctx context.Context, year string) (bool, error) {
	return s.yearRepo.ExistsByYear(ctx, year)
}

func (s *academicYearServiceImpl) publish(ctx context.Context, entry *models.AcademicYear) {
	err := s.feed.Publish(ctx, changefeed.Event{
		Topic:        changefeed.TopicAcademicYears,
		ID:           entry.ID,
		AcademicYear: entry.Year,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("year", entry.Year).Msg("Failed to publish academic year change")
	}
}

// YearSelector holds the active academic year of each session.
//
// The selection survives restarts through the key/value store and is not
// cleared on sign-out.
type YearSelector struct {
	store   kvstore.Store
	catalog AcademicYearService
}

// NewYearSelector creates a YearSelector
func NewYearSelector(store kvstore.Store, catalog AcademicYearService) *YearSelector {
	return &YearSelector{store: store, catalog: catalog}
}

// SetActive makes year the active year of session. The year must be in the catalog.
func (y *YearSelector) SetActive(ctx context.Context, session, year string) error {
	year = strings.TrimSpace(year)
	if err := validateYear(year); err != nil {
		return err
	}
	exists, err := y.catalog.Exists(ctx, year)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewResourceNotFoundError("academic year " + year + " is not available")
	}
	if err := y.store.Set(ctx, ActiveYearKeyPrefix+session, year); err != nil {
		return apperrors.NewStoreUnavailableError("save active academic year", err)
	}
	return nil
}

// Active returns the active year of session, or "" when none is selected
func (y *YearSelector) Active(ctx context.Context, session string) (string, error) {
	year, ok, err := y.store.Get(ctx, ActiveYearKeyPrefix+session)
	if err != nil {
		return "", apperrors.NewStoreUnavailableError("load active academic year", err)
	}
	if !ok {
		return "", nil
	}
	return year, nil
}

// Require returns the active year of session or ErrAcademicYearNotSelected
func (y *YearSelector) Require(ctx context.Context, session string) (string, error) {
	year, err := y.Active(ctx, session)
	if err != nil {
		return "", err
	}
	if year == "" {
		return "", apperrors.ErrAcademicYearNotSelected
	}
	return year, nil
}

// Clear forgets the selection of session
func (y *YearSelector) Clear(ctx context.Context, session string) error {
	if err := y.store.Delete(ctx, ActiveYearKeyPrefix+session); err != nil {
		return apperrors.NewStoreUnavailableError("clear active academic year", err)
	}
	return nil
}
