package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

// ScopeResolver resolves the students a caller may see.
type ScopeResolver interface {
	Resolve(ctx context.Context, caller models.Caller, filter ScopeFilter) (Scope, error)
}

// SnapshotProvider loads the records behind a scope.
type SnapshotProvider interface {
	Load(ctx context.Context, scope Scope) (*AcademicSnapshot, error)
}

// GradesService builds grade and progress views for scoped students.
type GradesService struct {
	scoper     ScopeResolver
	loader     SnapshotProvider
	aggregator *SubjectAggregator
	rollup     *Rollup
	logger     *zap.Logger
}

// NewGradesService constructs a GradesService.
func NewGradesService(scoper ScopeResolver, loader SnapshotProvider, policy Policy, logger *zap.Logger) *GradesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradesService{
		scoper:     scoper,
		loader:     loader,
		aggregator: NewSubjectAggregator(NewNormalizer(logger)),
		rollup:     NewRollup(policy),
		logger:     logger,
	}
}

// StudentGrades returns the grade view for one student in the caller's scope.
func (s *GradesService) StudentGrades(ctx context.Context, caller models.Caller, studentID string) (*dto.StudentGrades, error) {
	rollup, err := s.StudentRollup(ctx, caller, studentID)
	if err != nil {
		return nil, err
	}
	view := dto.NewStudentGrades(*rollup)
	return &view, nil
}

// ListStudentGrades returns grade views for every student in scope, optionally narrowed to a group.
func (s *GradesService) ListStudentGrades(ctx context.Context, caller models.Caller, groupID string) (*dto.StudentGradesList, error) {
	scope, err := s.scoper.Resolve(ctx, caller, ScopeFilter{GroupID: groupID})
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return &dto.StudentGradesList{Empty: true, Students: []dto.StudentGrades{}}, nil
	}

	rollups, err := s.rollups(ctx, scope)
	if err != nil {
		return nil, err
	}
	result := &dto.StudentGradesList{Empty: len(rollups) == 0, Students: make([]dto.StudentGrades, 0, len(rollups))}
	for _, rollup := range rollups {
		result.Students = append(result.Students, dto.NewStudentGrades(rollup))
	}
	return result, nil
}

// Progress returns the progress summary with concerns and strengths for one student.
func (s *GradesService) Progress(ctx context.Context, caller models.Caller, studentID string) (*dto.ProgressSummary, error) {
	rollup, err := s.StudentRollup(ctx, caller, studentID)
	if err != nil {
		return nil, err
	}
	view := dto.NewProgressSummary(*rollup)
	view.Empty = rollup.TotalTasks == 0
	return &view, nil
}

// StudentRollup returns the full-precision rollup for one student.
func (s *GradesService) StudentRollup(ctx context.Context, caller models.Caller, studentID string) (*models.StudentRollup, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	scope, err := s.scoper.Resolve(ctx, caller, ScopeFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	rollups, err := s.rollups(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(rollups) == 0 {
		return nil, appErrors.AccessDenied()
	}
	return &rollups[0], nil
}

func (s *GradesService) rollups(ctx context.Context, scope Scope) ([]models.StudentRollup, error) {
	snapshot, err := s.loader.Load(ctx, scope)
	if err != nil {
		s.logger.Error("load academic snapshot", zap.Int("students", len(scope.StudentIDs)), zap.Error(err))
		return nil, err
	}

	rollups := make([]models.StudentRollup, 0, len(snapshot.Students))
	for _, student := range snapshot.Students {
		subjects := s.aggregator.Aggregate(student, snapshot.Tasks, snapshot.Submissions, snapshot.Subjects)
		rollups = append(rollups, s.rollup.Build(student, subjects))
	}
	return rollups, nil
}
