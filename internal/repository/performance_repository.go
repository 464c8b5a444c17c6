package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// PerformanceRepository reads stored staff metrics.
type PerformanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository constructs a PerformanceRepository.
func NewPerformanceRepository(db *sqlx.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// ListMetrics returns the stored metric rows of a teacher for a period label.
func (r *PerformanceRepository) ListMetrics(ctx context.Context, teacherID, period string) ([]models.PerformanceMetric, error) {
	const query = `SELECT id, teacher_id, school_id, category, value, target, period
        FROM performance_metrics WHERE teacher_id = $1 AND period = $2 ORDER BY category, id`
	var metrics []models.PerformanceMetric
	if err := r.db.SelectContext(ctx, &metrics, query, teacherID, period); err != nil {
		return nil, fmt.Errorf("list performance metrics: %w", err)
	}
	return metrics, nil
}
