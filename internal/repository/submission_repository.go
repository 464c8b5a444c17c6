package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// SubmissionRepository reads and grades submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, task_id, student_id, status, score, feedback, submitted_at, reviewed_at, is_late`

// ListByStudents returns every submission of the given students.
func (r *SubmissionRepository) ListByStudents(ctx context.Context, studentIDs []string) ([]models.Submission, error) {
	if len(studentIDs) == 0 {
		return []models.Submission{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE student_id = ANY($1) ORDER BY submitted_at, id", submissionColumns)
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// ListForTeacher returns submissions received on the teacher's tasks within [from, to).
func (r *SubmissionRepository) ListForTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.TeacherSubmission, error) {
	const query = `SELECT s.id AS submission_id, s.task_id, s.status, s.score, t.max_score, s.submitted_at, s.reviewed_at
        FROM submissions s
        JOIN tasks t ON t.id = s.task_id
        WHERE t.teacher_id = $1 AND s.submitted_at >= $2 AND s.submitted_at < $3
        ORDER BY s.submitted_at, s.id`
	var subs []models.TeacherSubmission
	if err := r.db.SelectContext(ctx, &subs, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list teacher submissions: %w", err)
	}
	return subs, nil
}

// FindByID fetches a submission. sql.ErrNoRows is returned unwrapped when missing.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return &sub, nil
}

// UpdateGrade marks the submission reviewed with the provided score and feedback.
func (r *SubmissionRepository) UpdateGrade(ctx context.Context, sub *models.Submission) error {
	const query = `UPDATE submissions SET status = :status, score = :score, feedback = :feedback, reviewed_at = :reviewed_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, sub)
	if err != nil {
		return fmt.Errorf("update submission grade: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission grade rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
