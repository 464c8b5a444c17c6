package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

// Normalizer converts raw scores into 0-100 percentages.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer constructs a Normalizer.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// NormalizedScore returns score/maxScore*100, or nil when the submission carries no reviewed score.
// Scores above the task maximum are returned unclamped and logged.
func (n *Normalizer) NormalizedScore(sub models.Submission, task models.Task) *float64 {
	if !sub.Scored() {
		return nil
	}
	value := percentOf(*sub.Score, task.MaxScore, func(maxScore float64) {
		n.logger.Warn("task max score not positive, using default",
			zap.String("task_id", task.ID),
			zap.Float64("max_score", maxScore),
			zap.String("code", appErrors.ErrInvalidState.Code))
	})
	if *sub.Score > effectiveMaxScore(task.MaxScore) {
		n.logger.Warn("submission score exceeds task maximum",
			zap.String("submission_id", sub.ID),
			zap.String("task_id", task.ID),
			zap.Float64("score", *sub.Score),
			zap.Float64("max_score", task.MaxScore),
			zap.String("code", appErrors.ErrInvalidState.Code))
	}
	return &value
}

// CountsTowardTotal reports whether a task belongs in a student's denominator.
func CountsTowardTotal(task models.Task, student models.Student) bool {
	if task.GroupID != student.GroupID {
		return false
	}
	return task.Status == models.TaskStatusPublished || task.Status == models.TaskStatusClosed
}

func effectiveMaxScore(maxScore float64) float64 {
	if maxScore <= 0 {
		return models.DefaultMaxScore
	}
	return maxScore
}

func percentOf(score, maxScore float64, onDefault func(float64)) float64 {
	if maxScore <= 0 && onDefault != nil {
		onDefault(maxScore)
	}
	return score / effectiveMaxScore(maxScore) * 100
}

// completionRate returns completed/total*100 with a zero guard.
func completionRate(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	rate := float64(completed) / float64(total) * 100
	if rate > 100 {
		return 100
	}
	return rate
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}
