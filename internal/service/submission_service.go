package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

// SubmissionStore reads and grades submissions.
type SubmissionStore interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	UpdateGrade(ctx context.Context, sub *models.Submission) error
}

// TaskLookup loads a single task.
type TaskLookup interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
}

// SubmissionService implements the grading write path.
type SubmissionService struct {
	submissions SubmissionStore
	tasks       TaskLookup
	notifier    Notifier
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(submissions SubmissionStore, tasks TaskLookup, notifier Notifier, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		submissions: submissions,
		tasks:       tasks,
		notifier:    notifier,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Grade reviews a submission on a task owned by the calling teacher. Scores must lie in [0, maxScore];
// an omitted score records a reviewed-but-not-scored submission.
func (s *SubmissionService) Grade(ctx context.Context, caller models.Caller, submissionID string, req models.GradeSubmissionRequest) (*dto.GradeSubmissionResponse, error) {
	if caller.Role != models.RoleTeacher {
		return nil, appErrors.AccessDenied()
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, s.lookupError(err, "failed to load submission")
	}
	task, err := s.tasks.FindByID(ctx, sub.TaskID)
	if err != nil {
		return nil, s.lookupError(err, "failed to load task")
	}
	if task.TeacherID != caller.ID {
		return nil, appErrors.AccessDenied()
	}
	if task.Status != models.TaskStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grading is closed for this task")
	}

	maxScore := effectiveMaxScore(task.MaxScore)
	if req.Score != nil && *req.Score > maxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score must be between 0 and "+strconv.FormatFloat(maxScore, 'f', -1, 64))
	}

	reviewedAt := s.now().UTC()
	sub.Status = models.SubmissionStatusReviewed
	sub.Score = req.Score
	sub.Feedback = req.Feedback
	sub.ReviewedAt = &reviewedAt
	if err := s.submissions.UpdateGrade(ctx, sub); err != nil {
		return nil, s.lookupError(err, "failed to grade submission")
	}

	s.afterGrade(ctx, caller, *task, *sub)

	var percentage *float64
	if sub.Score != nil {
		value := *sub.Score / maxScore * 100
		percentage = dto.Round1Ptr(&value)
	}
	return &dto.GradeSubmissionResponse{
		SubmissionID: sub.ID,
		Status:       sub.Status,
		Score:        sub.Score,
		MaxScore:     maxScore,
		Percentage:   percentage,
		ReviewedAt:   reviewedAt.Format(time.RFC3339),
	}, nil
}

// afterGrade publishes the grade event and drops cached staff summaries. Failures are logged only.
func (s *SubmissionService) afterGrade(ctx context.Context, caller models.Caller, task models.Task, sub models.Submission) {
	if s.notifier != nil {
		event := models.NotificationEvent{
			Type:     models.EventGradeReviewed,
			SchoolID: task.SchoolID,
			Payload: models.GradeReviewedPayload{
				SubmissionID: sub.ID,
				TaskID:       task.ID,
				TaskTitle:    task.Title,
				StudentID:    sub.StudentID,
				ReviewedBy:   caller.ID,
				Score:        sub.Score,
				MaxScore:     effectiveMaxScore(task.MaxScore),
				Feedback:     sub.Feedback,
			},
		}
		if err := s.notifier.Publish(ctx, event); err != nil {
			s.logger.Warn("publish grade event", zap.String("submission_id", sub.ID), zap.Error(err))
		}
	}
	if err := s.cache.InvalidateTeacher(ctx, task.TeacherID); err != nil {
		s.logger.Warn("invalidate performance cache", zap.String("teacher_id", task.TeacherID), zap.Error(err))
	}
}

func (s *SubmissionService) lookupError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.AccessDenied()
	}
	return internalError(err, message)
}
