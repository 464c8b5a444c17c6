package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// StudentRepository resolves students and their relationships.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// IDsByParent returns active students linked to the parent.
func (r *StudentRepository) IDsByParent(ctx context.Context, parentID string) ([]string, error) {
	const query = `SELECT s.id FROM students s
        JOIN student_parents sp ON sp.student_id = s.id
        WHERE sp.parent_id = $1 AND s.active = TRUE ORDER BY s.id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, parentID); err != nil {
		return nil, fmt.Errorf("list students by parent: %w", err)
	}
	return ids, nil
}

// IDsByTeacher returns active students in groups led by the teacher.
func (r *StudentRepository) IDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	const query = `SELECT s.id FROM students s
        JOIN groups g ON g.id = s.group_id
        WHERE g.teacher_id = $1 AND s.active = TRUE ORDER BY s.id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, teacherID); err != nil {
		return nil, fmt.Errorf("list students by teacher: %w", err)
	}
	return ids, nil
}

// IDsBySchool returns active students of a school.
func (r *StudentRepository) IDsBySchool(ctx context.Context, schoolID string) ([]string, error) {
	const query = `SELECT id FROM students WHERE school_id = $1 AND active = TRUE ORDER BY id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, schoolID); err != nil {
		return nil, fmt.Errorf("list students by school: %w", err)
	}
	return ids, nil
}

// IDsByGroup returns active members of a group.
func (r *StudentRepository) IDsByGroup(ctx context.Context, groupID string) ([]string, error) {
	const query = `SELECT id FROM students WHERE group_id = $1 AND active = TRUE ORDER BY id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, groupID); err != nil {
		return nil, fmt.Errorf("list students by group: %w", err)
	}
	return ids, nil
}

// ListByIDs loads the student records for the provided IDs ordered by name.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}
	const query = `SELECT id, school_id, group_id, full_name, active FROM students
        WHERE id = ANY($1) AND active = TRUE ORDER BY full_name, id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	return students, nil
}
