package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// GroupRepository reads homeroom groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// FindByID fetches a group. sql.ErrNoRows is returned unwrapped when missing.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, school_id, name, teacher_id FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

// IDsByTeacher lists groups led by the teacher.
func (r *GroupRepository) IDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	const query = `SELECT id FROM groups WHERE teacher_id = $1 ORDER BY id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, teacherID); err != nil {
		return nil, fmt.Errorf("list groups by teacher: %w", err)
	}
	return ids, nil
}
