package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// AttendanceRepository reads daily attendance.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// SessionsByGroups returns the distinct (group, date) pairs with attendance taken in [from, to).
func (r *AttendanceRepository) SessionsByGroups(ctx context.Context, groupIDs []string, from, to time.Time) ([]models.AttendanceSession, error) {
	if len(groupIDs) == 0 {
		return []models.AttendanceSession{}, nil
	}
	const query = `SELECT DISTINCT group_id, date FROM attendances
        WHERE group_id = ANY($1) AND date >= $2 AND date < $3
        ORDER BY date, group_id`
	var sessions []models.AttendanceSession
	if err := r.db.SelectContext(ctx, &sessions, query, pq.Array(groupIDs), from, to); err != nil {
		return nil, fmt.Errorf("list attendance sessions: %w", err)
	}
	return sessions, nil
}
