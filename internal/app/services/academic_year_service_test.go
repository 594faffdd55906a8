package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolrecords/internal/pkg/apperrors"
)

func TestAcademicYearCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AcademicYears.Add(ctx, "2023/2024")
	require.NoError(t, err)
	added, err := env.svc.AcademicYears.Add(ctx, " 2024/2025 ")
	require.NoError(t, err)
	assert.Equal(t, "2024/2025", added.Year)

	_, err = env.svc.AcademicYears.Add(ctx, "2024/2025")
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	for _, bad := range []string{"", "2024-2025", "24/25"} {
		_, err = env.svc.AcademicYears.Add(ctx, bad)
		assert.True(t, errors.Is(err, apperrors.ErrValidationFailed), bad)
	}

	years, err := env.svc.AcademicYears.List(ctx)
	require.NoError(t, err)
	require.Len(t, years, 2)
	assert.Equal(t, "2024/2025", years[0].Year)

	require.NoError(t, env.svc.AcademicYears.Delete(ctx, added.ID))
	assert.True(t, errors.Is(env.svc.AcademicYears.Delete(ctx, added.ID), apperrors.ErrNotFound))
}

func TestYearSelector(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	selector := env.svc.YearSelector

	_, err := selector.Require(ctx, "u1")
	assert.True(t, errors.Is(err, apperrors.ErrPreconditionFailed))

	active, err := selector.Active(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "", active)

	err = selector.SetActive(ctx, "u1", testYear)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	err = selector.SetActive(ctx, "u1", "2024")
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, err = env.svc.AcademicYears.Add(ctx, testYear)
	require.NoError(t, err)
	require.NoError(t, selector.SetActive(ctx, "u1", testYear))

	year, err := selector.Require(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, testYear, year)

	stored, ok, err := env.kv.Get(ctx, ActiveYearKeyPrefix+"u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testYear, stored)

	// Sessions are independent.
	_, err = selector.Require(ctx, "u2")
	assert.True(t, errors.Is(err, apperrors.ErrPreconditionFailed))

	require.NoError(t, selector.Clear(ctx, "u1"))
	_, err = selector.Require(ctx, "u1")
	assert.True(t, errors.Is(err, apperrors.ErrPreconditionFailed))
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	studentID, err := env.svc.Students.Create(ctx, testYear, validProfile("Andi"))
	require.NoError(t, err)
	_, err = env.svc.Students.Create(ctx, "2023/2024", validProfile("Budi"))
	require.NoError(t, err)

	stats, cancel, err := env.svc.Dashboard.WatchStats(ctx, testYear)
	require.NoError(t, err)
	defer cancel()

	first := receive(t, stats)
	assert.Equal(t, 1, first.StudentCount)
	assert.Equal(t, 0, first.PendingRequestsCount)

	submitFatherName(t, env, studentID)
	next := receive(t, stats)
	assert.Equal(t, 1, next.StudentCount)
	assert.Equal(t, 1, next.PendingRequestsCount)

	_, _, err = env.svc.Dashboard.WatchStats(ctx, "")
	assert.True(t, errors.Is(err, apperrors.ErrPreconditionFailed))
}
