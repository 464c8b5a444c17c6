package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// SubjectRepository reads school subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListBySchools returns subjects of the provided schools.
func (r *SubjectRepository) ListBySchools(ctx context.Context, schoolIDs []string) ([]models.Subject, error) {
	if len(schoolIDs) == 0 {
		return []models.Subject{}, nil
	}
	const query = `SELECT id, school_id, name, color FROM subjects WHERE school_id = ANY($1) ORDER BY name, id`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, pq.Array(schoolIDs)); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
