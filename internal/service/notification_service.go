package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/pkg/config"
	"github.com/noah-isme/sma-insights-api/pkg/jobs"
)

// Notifier accepts plain events for outbound delivery.
type Notifier interface {
	Publish(ctx context.Context, event models.NotificationEvent) error
}

// NotificationSink hands a single event to the delivery collaborator.
type NotificationSink interface {
	Deliver(ctx context.Context, event models.NotificationEvent) error
}

// LogSink records events in the structured log. It stands in for the external mailer.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Deliver logs the event.
func (s *LogSink) Deliver(_ context.Context, event models.NotificationEvent) error {
	s.logger.Info("notification emitted",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("school_id", event.SchoolID),
		zap.Time("occurred_at", event.OccurredAt),
		zap.Any("payload", event.Payload))
	return nil
}

// NotificationService publishes events through an in-process worker queue.
type NotificationService struct {
	queue   *jobs.Queue
	sink    NotificationSink
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService constructs the service and its queue. Call Start before publishing.
func NewNotificationService(cfg config.NotificationsConfig, sink NotificationSink, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = NewLogSink(logger)
	}
	svc := &NotificationService{sink: sink, metrics: metrics, logger: logger, now: time.Now}
	svc.queue = jobs.NewQueue("notifications", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnResult:   svc.recordResult,
	})
	return svc
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Shutdown drains pending notifications until ctx expires.
func (s *NotificationService) Shutdown(ctx context.Context) error {
	return s.queue.Shutdown(ctx)
}

// Publish stamps the event and enqueues it.
func (s *NotificationService) Publish(ctx context.Context, event models.NotificationEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if err := s.queue.Enqueue(ctx, jobs.Job{ID: event.ID, Type: string(event.Type), Payload: event}); err != nil {
		s.metrics.RecordNotification(event.Type, NotificationRejected)
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	s.metrics.RecordNotification(event.Type, NotificationQueued)
	return nil
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.sink.Deliver(ctx, event)
}

func (s *NotificationService) recordResult(job jobs.Job, err error) {
	outcome := NotificationDelivered
	if err != nil {
		outcome = NotificationFailed
	}
	s.metrics.RecordNotification(models.EventType(job.Type), outcome)
}
