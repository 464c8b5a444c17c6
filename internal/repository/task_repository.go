package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// TaskRepository reads tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, school_id, group_id, subject_id, teacher_id, title, status, due_date, max_score, created_at`

// ListByGroups returns tasks of the given groups, optionally filtered by status.
func (r *TaskRepository) ListByGroups(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if len(filter.GroupIDs) == 0 {
		return []models.Task{}, nil
	}
	args := []interface{}{pq.Array(filter.GroupIDs)}
	conditions := []string{"group_id = ANY($1)"}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}

	query := fmt.Sprintf("SELECT %s FROM tasks WHERE %s ORDER BY due_date NULLS LAST, id", taskColumns, strings.Join(conditions, " AND "))
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// FindByID fetches a task. sql.ErrNoRows is returned unwrapped when missing.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}
