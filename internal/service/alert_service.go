package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-insights-api/internal/dto"
	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

// AlertService produces alert views and digests for the caller's scope.
type AlertService struct {
	scoper    ScopeResolver
	loader    SnapshotProvider
	generator *AlertGenerator
	notifier  Notifier
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewAlertService constructs an AlertService.
func NewAlertService(scoper ScopeResolver, loader SnapshotProvider, notifier Notifier, policy Policy, metrics *MetricsService, logger *zap.Logger) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{
		scoper:    scoper,
		loader:    loader,
		generator: NewAlertGenerator(policy),
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns prioritized alerts and their summary for the caller.
func (s *AlertService) List(ctx context.Context, caller models.Caller, filter ScopeFilter) (*dto.AlertsResponse, error) {
	alerts, empty, err := s.generate(ctx, caller, filter)
	if err != nil {
		return nil, err
	}
	resp := dto.NewAlertsResponse(alerts, SummarizeAlerts(alerts))
	resp.Empty = empty
	return &resp, nil
}

// Dispatch publishes one alert digest per student that currently has alerts.
func (s *AlertService) Dispatch(ctx context.Context, caller models.Caller, filter ScopeFilter) (*dto.DispatchAlertsResponse, error) {
	if caller.Role != models.RoleAdmin && caller.Role != models.RoleTeacher {
		return nil, appErrors.AccessDenied()
	}
	if s.notifier == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "notifications are not configured")
	}
	alerts, _, err := s.generate(ctx, caller, filter)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0)
	digests := make(map[string]*models.AlertDigestPayload)
	for _, alert := range alerts {
		digest, ok := digests[alert.StudentID]
		if !ok {
			digest = &models.AlertDigestPayload{StudentID: alert.StudentID, StudentName: alert.StudentName}
			digests[alert.StudentID] = digest
			order = append(order, alert.StudentID)
		}
		digest.Items = append(digest.Items, models.AlertDigestItem{
			Type:      alert.Type,
			Priority:  alert.Priority,
			TaskID:    alert.TaskID,
			TaskTitle: alert.TaskTitle,
			DueDate:   alert.DueDate,
		})
	}

	result := &dto.DispatchAlertsResponse{Students: len(order)}
	for _, studentID := range order {
		event := models.NotificationEvent{Type: models.EventAlertDigest, SchoolID: caller.SchoolID, Payload: *digests[studentID]}
		if err := s.notifier.Publish(ctx, event); err != nil {
			result.Failed++
			s.logger.Warn("publish alert digest", zap.String("student_id", studentID), zap.Error(err))
			continue
		}
		result.Queued++
	}
	return result, nil
}

func (s *AlertService) generate(ctx context.Context, caller models.Caller, filter ScopeFilter) ([]models.Alert, bool, error) {
	scope, err := s.scoper.Resolve(ctx, caller, filter)
	if err != nil {
		return nil, false, err
	}
	if scope.Empty() {
		return []models.Alert{}, true, nil
	}
	snapshot, err := s.loader.Load(ctx, scope)
	if err != nil {
		s.logger.Error("load alert snapshot", zap.Error(err))
		return nil, false, err
	}

	alerts := s.generator.Generate(AlertInput{
		Viewer:      caller,
		Students:    snapshot.Students,
		Tasks:       snapshot.Tasks,
		Submissions: snapshot.Submissions,
		Subjects:    snapshot.Subjects,
		Now:         s.now().UTC(),
	})
	s.metrics.RecordAlerts(alerts)
	return alerts, len(snapshot.Students) == 0, nil
}
