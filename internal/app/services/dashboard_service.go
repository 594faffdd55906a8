package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/pkg/changefeed"
)

// DashboardService summarizes an academic year
type DashboardService interface {
	Stats(ctx context.Context, academicYear string) (*models.DashboardStats, error)
	WatchStats(ctx context.Context, academicYear string) (<-chan models.DashboardStats, func(), error)
}

type dashboardServiceImpl struct {
	students    StudentService
	corrections CorrectionService
	feed        changefeed.Feed
	logger      zerolog.Logger
}

// NewDashboardService creates a new dashboard service instance
func NewDashboardService(students StudentService, corrections CorrectionService, feed changefeed.Feed, logger zerolog.Logger) DashboardService {
	return &dashboardServiceImpl{
		students:    students,
		corrections: corrections,
		feed:        feed,
		logger:      logger,
	}
}

func (s *dashboardServiceImpl) Stats(ctx context.Context, academicYear string) (*models.DashboardStats, error) {
	count, err := s.students.Count(ctx, academicYear)
	if err != nil {
		return nil, err
	}
	pending, err := s.corrections.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	return &models.DashboardStats{
		AcademicYear:         academicYear,
		StudentCount:         count,
		PendingRequestsCount: pending,
	}, nil
}

// WatchStats emits the stats now and after every change to students of the
// year or to correction requests
func (s *dashboardServiceImpl) WatchStats(ctx context.Context, academicYear string) (<-chan models.DashboardStats, func(), error) {
	if err := requireYear(academicYear); err != nil {
		return nil, nil, err
	}
	yearMatch := matchYear(academicYear)
	return watch(ctx, s.feed, liveQuery[models.DashboardStats]{
		topics: []changefeed.Topic{changefeed.TopicStudents, changefeed.TopicCorrections},
		match: func(ev changefeed.Event) bool {
			return ev.Topic == changefeed.TopicCorrections || yearMatch(ev)
		},
		load: func(ctx context.Context) (models.DashboardStats, error) {
			stats, err := s.Stats(ctx, academicYear)
			if err != nil {
				return models.DashboardStats{}, err
			}
			return *stats, nil
		},
		logger: s.logger,
	})
}
