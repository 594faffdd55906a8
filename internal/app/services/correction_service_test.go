package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
	"github.com/yigit/schoolrecords/internal/pkg/auth"
)

var teacher = auth.Identity{UserID: "teacher-1", Email: "guru@sekolah.id"}

func submitFatherName(t *testing.T, env *testEnv, studentID string) string {
	t.Helper()
	id, err := env.svc.Corrections.Submit(context.Background(), SubmitCorrectionInput{
		StudentID:      studentID,
		FieldToCorrect: "fatherName",
		NewValue:       "Ahmad",
		Notes:          "Typo in father's name",
		Requester:      teacher,
	})
	require.NoError(t, err)
	return id
}

func TestApproveCorrectionUpdatesRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := adminIdentity(t, env)

	studentID, err := env.svc.Students.Create(ctx, testYear, validProfile("Andi"))
	require.NoError(t, err)

	requestID := submitFatherName(t, env, studentID)
	req, err := env.svc.Corrections.Get(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, "Budi", req.OldValue)
	assert.Equal(t, "Andi", req.StudentName)
	assert.Equal(t, "guru@sekolah.id", req.RequestedByUserName)
	assert.Equal(t, models.CorrectionPending, req.Status)

	resolved, err := env.svc.Corrections.Resolve(ctx, requestID, models.DecisionApprove, admin)
	require.NoError(t, err)
	assert.Equal(t, models.CorrectionApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedByUserID)
	assert.Equal(t, admin.UserID, *resolved.ResolvedByUserID)
	assert.NotNil(t, resolved.ResolutionDate)

	student, err := env.svc.Students.Get(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, "Ahmad", student.Profile.FatherName)

	_, err = env.svc.Corrections.Resolve(ctx, requestID, models.DecisionReject, admin)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyResolved))

	again, err := env.svc.Corrections.Get(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, models.CorrectionApproved, again.Status)
}

func TestRejectCorrectionLeavesRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := adminIdentity(t, env)

	studentID, err := env.svc.Students.Create(ctx, testYear, validProfile("Andi"))
	require.NoError(t, err)
	requestID := submitFatherName(t, env, studentID)

	resolved, err := env.svc.Corrections.Resolve(ctx, requestID, models.DecisionReject, admin)
	require.NoError(t, err)
	assert.Equal(t, models.CorrectionRejected, resolved.Status)

	student, err := env.svc.Students.Get(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, "Budi", student.Profile.FatherName)

	_, err = env.svc.Corrections.Resolve(ctx, requestID, models.DecisionApprove, admin)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyResolved))

	student, err = env.svc.Students.Get(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, "Budi", student.Profile.FatherName)
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	studentID, err := env.svc.Students.Create(ctx, testYear, validProfile("Andi"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     SubmitCorrectionInput
		fields []string
	}{
		{
			name:   "short notes",
			in:     SubmitCorrectionInput{StudentID: studentID, FieldToCorrect: "fatherName", NewValue: "Ahmad", Notes: "typo"},
			fields: []string{"notes"},
		},
		{
			name:   "unknown field and empty value",
			in:     SubmitCorrectionInput{StudentID: studentID, FieldToCorrect: "academicYear", Notes: "wrong academic year"},
			fields: []string{"fieldToCorrect", "newValue"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Requester = teacher
			_, err := env.svc.Corrections.Submit(ctx, tt.in)
			var verr *apperrors.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.fields, verr.FieldNames())
		})
	}

	_, err = env.svc.Corrections.Submit(ctx, SubmitCorrectionInput{
		StudentID: "missing", FieldToCorrect: "kelas", NewValue: "7A", Notes: "class is wrong here", Requester: teacher,
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = env.svc.Corrections.Submit(ctx, SubmitCorrectionInput{
		StudentID: studentID, FieldToCorrect: "kelas", NewValue: "7A", Notes: "class is wrong here",
	})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
}

func TestSubmitRejectsValueFailingFieldRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	studentID, err := env.svc.Students.Create(ctx, testYear, validProfile("Andi"))
	require.NoError(t, err)

	tests := []struct {
		field   string
		value   string
		message string
	}{
		{field: "nisn", value: "abc", message: "must contain digits only"},
		{field: "birthDate", value: "15-07-2010", message: "must be a date in YYYY-MM-DD format"},
		{field: "fullName", value: "A", message: "must be at least 2 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			_, err := env.svc.Corrections.Submit(ctx, SubmitCorrectionInput{
				StudentID: studentID, FieldToCorrect: tt.field, NewValue: tt.value,
				Notes: "value on the certificate differs", Requester: teacher,
			})
			var verr *apperrors.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			require.Equal(t, []string{"newValue"}, verr.FieldNames())
			assert.Equal(t, tt.message, verr.Fields[0].Message)
		})
	}

	pending, err := env.svc.Corrections.PendingSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = env.svc.Corrections.Submit(ctx, SubmitCorrectionInput{
		StudentID: studentID, FieldToCorrect: "nisn", NewValue: "0071234567",
		Notes: "value on the certificate differs", Requester: teacher,
	})
	assert.NoError(t, err)
}

func TestSubmitSnapshotsEmptyOldValue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	studentID, err := env.svc.Students.Create(ctx, testYear, validProfile("Andi"))
	require.NoError(t, err)

	id, err := env.svc.Corrections.Submit(ctx, SubmitCorrectionInput{
		StudentID: studentID, FieldToCorrect: "kelas", NewValue: "7A", Notes: "class was never filled in",
		Requester: auth.Identity{UserID: "u-2"},
	})
	require.NoError(t, err)

	req, err := env.svc.Corrections.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "", req.OldValue)
	assert.Equal(t, "Unknown User", req.RequestedByUserName)
}

func TestResolveUnknownDecisionAndRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := adminIdentity(t, env)

	_, err := env.svc.Corrections.Resolve(ctx, "r1", models.Decision("maybe"), admin)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, err = env.svc.Corrections.Resolve(ctx, "missing", models.DecisionApprove, admin)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestListPendingIsLiveAndNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := adminIdentity(t, env)
	env.svc.Corrections.(*correctionServiceImpl).now = stepClock(time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC))

	studentID, err := env.svc.Students.Create(ctx, testYear, validProfile("Andi"))
	require.NoError(t, err)
	first := submitFatherName(t, env, studentID)

	pending, cancel, err := env.svc.Corrections.ListPending(ctx)
	require.NoError(t, err)
	defer cancel()

	snapshot := receive(t, pending)
	require.Len(t, snapshot, 1)

	second := submitFatherName(t, env, studentID)
	snapshot = receive(t, pending)
	require.Len(t, snapshot, 2)
	assert.Equal(t, second, snapshot[0].ID)
	assert.Equal(t, first, snapshot[1].ID)

	_, err = env.svc.Corrections.Resolve(ctx, second, models.DecisionReject, admin)
	require.NoError(t, err)
	snapshot = receive(t, pending)
	require.Len(t, snapshot, 1)
	assert.Equal(t, first, snapshot[0].ID)

	n, err := env.svc.Corrections.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	history, err := env.svc.Corrections.ListByStudent(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second, history[0].ID)
}
