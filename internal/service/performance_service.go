package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

// UserReader loads user accounts.
type UserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// TeacherGroupReader lists groups led by a teacher.
type TeacherGroupReader interface {
	IDsByTeacher(ctx context.Context, teacherID string) ([]string, error)
}

// TeacherSubmissionReader lists submissions on a teacher's tasks.
type TeacherSubmissionReader interface {
	ListForTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.TeacherSubmission, error)
}

// AttendanceSessionReader lists attendance sessions for groups.
type AttendanceSessionReader interface {
	SessionsByGroups(ctx context.Context, groupIDs []string, from, to time.Time) ([]models.AttendanceSession, error)
}

// PerformanceMetricReader lists stored staff metrics.
type PerformanceMetricReader interface {
	ListMetrics(ctx context.Context, teacherID, period string) ([]models.PerformanceMetric, error)
}

// PerformanceService builds teacher performance summaries.
type PerformanceService struct {
	users       UserReader
	groups      TeacherGroupReader
	submissions TeacherSubmissionReader
	attendance  AttendanceSessionReader
	stored      PerformanceMetricReader
	calculator  *PerformanceCalculator
	policy      Policy
	cache       *CacheService
	cacheTTL    time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// PerformanceServiceDeps groups the collaborators of PerformanceService.
type PerformanceServiceDeps struct {
	Users       UserReader
	Groups      TeacherGroupReader
	Submissions TeacherSubmissionReader
	Attendance  AttendanceSessionReader
	Stored      PerformanceMetricReader
	Cache       *CacheService
	CacheTTL    time.Duration
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// NewPerformanceService constructs a PerformanceService.
func NewPerformanceService(deps PerformanceServiceDeps, policy Policy) *PerformanceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceService{
		users:       deps.Users,
		groups:      deps.Groups,
		submissions: deps.Submissions,
		attendance:  deps.Attendance,
		stored:      deps.Stored,
		calculator:  NewPerformanceCalculator(policy),
		policy:      policy,
		cache:       deps.Cache,
		cacheTTL:    deps.CacheTTL,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// TeacherSummary returns the classified summary for a teacher and YYYY-MM period (current month when empty).
// The boolean reports whether the result came from cache; only closed periods are cached.
func (s *PerformanceService) TeacherSummary(ctx context.Context, caller models.Caller, teacherID, periodLabel string) (*dto.TeacherPerformanceSummary, bool, error) {
	now := s.now().UTC()
	period := models.PeriodOf(now)
	if periodLabel != "" {
		parsed, err := models.ParsePeriod(periodLabel)
		if err != nil {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		period = parsed
	}

	teacher, err := s.authorize(ctx, caller, teacherID)
	if err != nil {
		return nil, false, err
	}

	build := func(ctx context.Context) (dto.TeacherPerformanceSummary, error) {
		input, err := s.load(ctx, *teacher, period)
		if err != nil {
			return dto.TeacherPerformanceSummary{}, err
		}
		input.Now = now
		perf := s.calculator.Calculate(input)

		var overallTier *models.PerformanceTier
		if perf.OverallScore != nil {
			tier := s.calculator.Classify(*perf.OverallScore, s.policy.DefaultTarget)
			overallTier = &tier
		}
		return dto.NewTeacherPerformanceSummary(perf, overallTier), nil
	}

	if !period.Closed(now) {
		summary, err := build(ctx)
		if err != nil {
			return nil, false, err
		}
		return &summary, false, nil
	}
	summary, hit, err := cached(ctx, s.cache, PerformanceCacheKey(teacher.ID, period.Label), s.cacheTTL, build)
	if err != nil {
		return nil, false, err
	}
	return &summary, hit, nil
}

func (s *PerformanceService) authorize(ctx context.Context, caller models.Caller, teacherID string) (*models.User, error) {
	switch caller.Role {
	case models.RoleTeacher:
		if teacherID != caller.ID {
			return nil, appErrors.AccessDenied()
		}
	case models.RoleAdmin:
	default:
		return nil, appErrors.AccessDenied()
	}

	teacher, err := s.users.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.AccessDenied()
		}
		return nil, internalError(err, "failed to load teacher")
	}
	if teacher == nil || teacher.Role != models.RoleTeacher {
		return nil, appErrors.AccessDenied()
	}
	if caller.Role == models.RoleAdmin && (caller.SchoolID == "" || teacher.SchoolID != caller.SchoolID) {
		return nil, appErrors.AccessDenied()
	}
	return teacher, nil
}

func (s *PerformanceService) load(ctx context.Context, teacher models.User, period models.Period) (PerformanceInput, error) {
	input := PerformanceInput{Teacher: teacher, Period: period}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subs, err := s.submissions.ListForTeacher(gctx, teacher.ID, period.Start, period.End)
		if err != nil {
			return err
		}
		input.Submissions = subs
		return nil
	})
	g.Go(func() error {
		groupIDs, err := s.groups.IDsByTeacher(gctx, teacher.ID)
		if err != nil {
			return err
		}
		sessions, err := s.attendance.SessionsByGroups(gctx, groupIDs, period.Start, period.End)
		if err != nil {
			return err
		}
		input.GroupIDs = groupIDs
		input.Sessions = sessions
		return nil
	})
	g.Go(func() error {
		stored, err := s.stored.ListMetrics(gctx, teacher.ID, period.Label)
		if err != nil {
			return err
		}
		input.Stored = stored
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("load teacher performance", zap.String("teacher_id", teacher.ID), zap.String("period", period.Label), zap.Error(err))
		return PerformanceInput{}, internalError(err, "failed to load performance data")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("teacher_performance", time.Since(start))
	}
	return input, nil
}
