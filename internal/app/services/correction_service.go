package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/repositories"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
	"github.com/yigit/schoolrecords/internal/pkg/metrics"
	"github.com/yigit/schoolrecords/internal/pkg/validation"
)

// SubmitCorrectionInput is a proposed change to one field of a student record
type SubmitCorrectionInput struct {
	StudentID      string        `json:"studentId" validate:"required"`
	FieldToCorrect string        `json:"fieldToCorrect" validate:"required"`
	NewValue       string        `json:"newValue" validate:"required"`
	Notes          string        `json:"notes" validate:"required,min=10"`
	Requester      auth.Identity `json:"-" validate:"-"`
}

// CorrectionService defines the correction request workflow
type CorrectionService interface {
	Submit(ctx context.Context, in SubmitCorrectionInput) (string, error)
	Resolve(ctx context.Context, requestID string, decision models.Decision, resolver auth.Identity) (*models.CorrectionRequest, error)
	ListPending(ctx context.Context) (<-chan []models.CorrectionRequest, func(), error)
	PendingSnapshot(ctx context.Context) ([]models.CorrectionRequest, error)
	Get(ctx context.Context, id string) (*models.CorrectionRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CorrectionRequest, error)
	CountPending(ctx context.Context) (int, error)
}

// correctionServiceImpl implements the CorrectionService interface
type correctionServiceImpl struct {
	correctionRepo repositories.CorrectionRepository
	studentRepo    repositories.StudentRepository
	feed           changefeed.Feed
	logger         zerolog.Logger
	now            func() time.Time
}

// NewCorrectionService creates a new correction service instance
func NewCorrectionService(
	correctionRepo repositories.CorrectionRepository,
	studentRepo repositories.StudentRepository,
	feed changefeed.Feed,
	logger zerolog.Logger,
) CorrectionService {
	return &correctionServiceImpl{
		correctionRepo: correctionRepo,
		studentRepo:    studentRepo,
		feed:           feed,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *correctionServiceImpl) validateSubmission(in SubmitCorrectionInput) error {
	verr := apperrors.NewValidationError()
	if err := validation.Struct(in); err != nil {
		if !errors.As(err, &verr) {
			return err
		}
	}
	if in.FieldToCorrect != "" && !isStudentField(in.FieldToCorrect) {
		verr.Add("fieldToCorrect", "is not a correctable field")
	}
	return verr.OrNil()
}

// validateNewValue applies value to a copy of profile and checks the field's
// own rules, so an approved request always leaves a record Update accepts.
func validateNewValue(profile models.StudentProfile, field, value string) error {
	if !profile.Set(field, value) {
		return apperrors.NewValidationError(apperrors.FieldError{Field: "fieldToCorrect", Message: "is not a correctable field"})
	}
	err := validation.Struct(profile)
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	for _, fe := range verr.Fields {
		if fe.Field == field {
			return apperrors.NewValidationError(apperrors.FieldError{Field: "newValue", Message: fe.Message})
		}
	}
	return nil
}

// Submit records a pending request. The current value of the field is
// snapshotted as OldValue.
func (s *correctionServiceImpl) Submit(ctx context.Context, in SubmitCorrectionInput) (string, error) {
	if in.Requester.UserID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	in.StudentID = strings.TrimSpace(in.StudentID)
	if err := s.validateSubmission(in); err != nil {
		return "", err
	}

	student, err := s.studentRepo.GetByID(ctx, in.StudentID)
	if err != nil {
		return "", err
	}
	if err := validateNewValue(student.Profile, in.FieldToCorrect, in.NewValue); err != nil {
		return "", err
	}
	oldValue, _ := student.Profile.Get(in.FieldToCorrect)

	req := &models.CorrectionRequest{
		ID:                  uuid.New().String(),
		StudentID:           student.ID,
		StudentName:         student.Profile.FullName,
		RequestedByUserID:   in.Requester.UserID,
		RequestedByUserName: in.Requester.DisplayName(),
		FieldToCorrect:      in.FieldToCorrect,
		OldValue:            oldValue,
		NewValue:            in.NewValue,
		Notes:               in.Notes,
		Status:              models.CorrectionPending,
		RequestDate:         s.now(),
	}
	if err := s.correctionRepo.Create(ctx, req); err != nil {
		s.logger.Error().Err(err).Str("studentID", student.ID).Msg("Failed to submit correction request")
		return "", err
	}

	metrics.CorrectionSubmitted()
	s.publish(ctx, changefeed.TopicCorrections, req.ID, "")
	s.logger.Info().
		Str("requestID", req.ID).
		Str("studentID", student.ID).
		Str("field", req.FieldToCorrect).
		Msg("Correction request submitted")
	return req.ID, nil
}

// Resolve approves or rejects a pending request. On approval the student
// field and the request status are written in one transaction.
func (s *correctionServiceImpl) Resolve(ctx context.Context, requestID string, decision models.Decision, resolver auth.Identity) (*models.CorrectionRequest, error) {
	if resolver.UserID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	status, ok := decision.Status()
	if !ok {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "decision", Message: "must be approve or reject"})
	}

	resolved, err := s.correctionRepo.Resolve(ctx, requestID, status, resolver.UserID, s.now())
	if err != nil {
		if !errors.Is(err, apperrors.ErrAlreadyResolved) && !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error().Err(err).Str("requestID", requestID).Msg("Failed to resolve correction request")
		}
		return nil, err
	}

	metrics.CorrectionResolved(string(decision))
	s.publish(ctx, changefeed.TopicCorrections, resolved.ID, "")
	if status == models.CorrectionApproved {
		s.publish(ctx, changefeed.TopicStudents, resolved.StudentID, "")
	}
	s.logger.Info().
		Str("requestID", resolved.ID).
		Str("status", string(resolved.Status)).
		Str("resolvedBy", resolver.UserID).
		Msg("Correction request resolved")
	return resolved, nil
}

// ListPending emits the pending set, newest first, now and after every change
func (s *correctionServiceImpl) ListPending(ctx context.Context) (<-chan []models.CorrectionRequest, func(), error) {
	return watch(ctx, s.feed, liveQuery[[]models.CorrectionRequest]{
		topics: []changefeed.Topic{changefeed.TopicCorrections},
		load:   s.PendingSnapshot,
		logger: s.logger,
	})
}

// PendingSnapshot returns the pending set once, newest first
func (s *correctionServiceImpl) PendingSnapshot(ctx context.Context) ([]models.CorrectionRequest, error) {
	pending, err := s.correctionRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	sortByRequestDate(pending)
	return pending, nil
}

func (s *correctionServiceImpl) Get(ctx context.Context, id string) (*models.CorrectionRequest, error) {
	return s.correctionRepo.GetByID(ctx, id)
}

// ListByStudent returns every request filed against a student, newest first
func (s *correctionServiceImpl) ListByStudent(ctx context.Context, studentID string) ([]models.CorrectionRequest, error) {
	requests, err := s.correctionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	sortByRequestDate(requests)
	return requests, nil
}

func (s *correctionServiceImpl) CountPending(ctx context.Context) (int, error) {
	return s.correctionRepo.CountPending(ctx)
}

func (s *correctionServiceImpl) publish(ctx context.Context, topic changefeed.Topic, id, academicYear string) {
	err := s.feed.Publish(ctx, changefeed.Event{Topic: topic, ID: id, AcademicYear: academicYear, At: s.now()})
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", string(topic)).Str("id", id).Msg("Failed to publish change")
	}
}

func sortByRequestDate(requests []models.CorrectionRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		if requests[i].RequestDate.Equal(requests[j].RequestDate) {
			return requests[i].ID > requests[j].ID
		}
		return requests[i].RequestDate.After(requests[j].RequestDate)
	})
}
