package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/helpers"
	"github.com/yigit/schoolrecords/internal/pkg/metrics"
	"github.com/yigit/schoolrecords/internal/pkg/validation"
)

// Fields a patch may never touch
var immutableStudentFields = map[string]bool{
	"id":           true,
	"academicYear": true,
	"createdAt":    true,
	"updatedAt":    true,
}

// StudentService defines the record store operations. Every query is scoped
// to one academic year.
type StudentService interface {
	Create(ctx context.Context, academicYear string, profile models.StudentProfile) (string, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	Update(ctx context.Context, id string, patch map[string]string) (*models.Student, error)
	Delete(ctx context.Context, id string) error
	ListPage(ctx context.Context, academicYear string, pageSize int, cursor string) (*models.StudentPage, error)
	Search(ctx context.Context, academicYear, query string, pageSize int, cursor string) (*models.StudentPage, error)
	ListAll(ctx context.Context, academicYear string) ([]models.Student, error)
	Count(ctx context.Context, academicYear string) (int, error)
	WatchCount(ctx context.Context, academicYear string) (<-chan int, func(), error)
}

// studentServiceImpl implements the StudentService interface
type studentServiceImpl struct {
	studentRepo repositories.StudentRepository
	feed        changefeed.Feed
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentService creates a new student service instance
func NewStudentService(studentRepo repositories.StudentRepository, feed changefeed.Feed, logger zerolog.Logger) StudentService {
	return &studentServiceImpl{
		studentRepo: studentRepo,
		feed:        feed,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func requireYear(academicYear string) error {
	if strings.TrimSpace(academicYear) == "" {
		return apperrors.ErrAcademicYearNotSelected
	}
	return nil
}

// Create validates profile and stores it as a new record of academicYear
func (s *studentServiceImpl) Create(ctx context.Context, academicYear string, profile models.StudentProfile) (string, error) {
	if err := requireYear(academicYear); err != nil {
		return "", err
	}
	if err := validation.Struct(profile); err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			s.logger.Debug().Strs("fields", verr.FieldNames()).Msg("Student profile rejected")
		}
		return "", err
	}

	now := s.now()
	student := &models.Student{
		ID:           uuid.New().String(),
		AcademicYear: academicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
		Profile:      profile,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		s.logger.Error().Err(err).Str("academicYear", academicYear).Msg("Failed to create student")
		return "", err
	}

	metrics.StudentWritten("create")
	s.publish(ctx, student.ID, academicYear)
	s.logger.Info().Str("studentID", student.ID).Str("academicYear", academicYear).Msg("Student created")
	return student.ID, nil
}

// Get returns a single record
func (s *studentServiceImpl) Get(ctx context.Context, id string) (*models.Student, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "id", Message: "is required"})
	}
	return s.studentRepo.GetByID(ctx, id)
}

// Update applies a partial patch keyed by profile field name. The patched
// record is validated as a whole before anything is written.
func (s *studentServiceImpl) Update(ctx context.Context, id string, patch map[string]string) (*models.Student, error) {
	verr := apperrors.NewValidationError()
	if len(patch) == 0 {
		verr.Add("_", "no fields to update")
	}
	for name := range patch {
		switch {
		case immutableStudentFields[name]:
			verr.Add(name, "cannot be changed")
		case !isStudentField(name):
			verr.Add(name, "is not a student field")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patched := current.Profile
	for name, value := range patch {
		patched.Set(name, value)
	}
	if err := validation.Struct(patched); err != nil {
		return nil, err
	}

	updated, err := s.studentRepo.UpdateFields(ctx, id, patch, s.now())
	if err != nil {
		return nil, err
	}

	metrics.StudentWritten("update")
	s.publish(ctx, id, updated.AcademicYear)
	return updated, nil
}

// Delete permanently removes a record. Callers enforce the admin role.
func (s *studentServiceImpl) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return err
	}

	metrics.StudentWritten("delete")
	s.publish(ctx, id, current.AcademicYear)
	s.logger.Info().Str("studentID", id).Msg("Student deleted")
	return nil
}

// ListPage returns one page of academicYear, newest first
func (s *studentServiceImpl) ListPage(ctx context.Context, academicYear string, pageSize int, cursor string) (*models.StudentPage, error) {
	return s.page(ctx, academicYear, "", pageSize, cursor)
}

// Search is ListPage narrowed to records whose name or NISN contains query
func (s *studentServiceImpl) Search(ctx context.Context, academicYear, query string, pageSize int, cursor string) (*models.StudentPage, error) {
	return s.page(ctx, academicYear, strings.TrimSpace(query), pageSize, cursor)
}

func (s *studentServiceImpl) page(ctx context.Context, academicYear, search string, pageSize int, cursor string) (*models.StudentPage, error) {
	if err := requireYear(academicYear); err != nil {
		return nil, err
	}
	after, err := helpers.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	size := helpers.NormalizePageSize(pageSize)

	// One extra row tells us whether another page exists.
	records, err := s.studentRepo.List(ctx, repositories.StudentQuery{
		AcademicYear: academicYear,
		Search:       search,
		After:        after,
		Limit:        size + 1,
	})
	if err != nil {
		return nil, err
	}

	page := &models.StudentPage{Records: records}
	if len(records) > size {
		page.Records = records[:size]
		page.HasMore = true
		last := page.Records[size-1]
		page.NextCursor = helpers.EncodeCursor(helpers.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	if page.Records == nil {
		page.Records = []models.Student{}
	}
	return page, nil
}

// ListAll returns every record of academicYear, newest first
func (s *studentServiceImpl) ListAll(ctx context.Context, academicYear string) ([]models.Student, error) {
	if err := requireYear(academicYear); err != nil {
		return nil, err
	}
	return s.studentRepo.ListAll(ctx, academicYear)
}

// Count returns the number of records of academicYear
func (s *studentServiceImpl) Count(ctx context.Context, academicYear string) (int, error) {
	if err := requireYear(academicYear); err != nil {
		return 0, err
	}
	return s.studentRepo.CountByYear(ctx, academicYear)
}

// WatchCount emits the record count of academicYear now and after every change to it
func (s *studentServiceImpl) WatchCount(ctx context.Context, academicYear string) (<-chan int, func(), error) {
	if err := requireYear(academicYear); err != nil {
		return nil, nil, err
	}
	return watch(ctx, s.feed, liveQuery[int]{
		topics: []changefeed.Topic{changefeed.TopicStudents},
		match:  matchYear(academicYear),
		load: func(ctx context.Context) (int, error) {
			return s.studentRepo.CountByYear(ctx, academicYear)
		},
		logger: s.logger,
	})
}

func (s *studentServiceImpl) publish(ctx context.Context, id, academicYear string) {
	err := s.feed.Publish(ctx, changefeed.Event{
		Topic:        changefeed.TopicStudents,
		ID:           id,
		AcademicYear: academicYear,
		At:           s.now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("studentID", id).Msg("Failed to publish student change")
	}
}

// matchYear accepts events of academicYear and events that carry no year
func matchYear(academicYear string) func(changefeed.Event) bool {
	return func(ev changefeed.Event) bool {
		return ev.AcademicYear == "" || ev.AcademicYear == academicYear
	}
}

func isStudentField(name string) bool {
	_, ok := models.LookupStudentField(name)
	return ok
}
