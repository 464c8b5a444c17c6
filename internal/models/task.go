package models

import "time"

// TaskStatus describes the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusDraft     TaskStatus = "DRAFT"
	TaskStatusPublished TaskStatus = "PUBLISHED"
	TaskStatusClosed    TaskStatus = "CLOSED"
)

// DefaultMaxScore applies when a task carries no usable maximum.
const DefaultMaxScore = 100.0

// Task is an assignment issued to a group.
type Task struct {
	ID        string     `db:"id" json:"id"`
	SchoolID  string     `db:"school_id" json:"school_id"`
	GroupID   string     `db:"group_id" json:"group_id"`
	SubjectID *string    `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID string     `db:"teacher_id" json:"teacher_id"`
	Title     string     `db:"title" json:"title"`
	Status    TaskStatus `db:"status" json:"status"`
	DueDate   *time.Time `db:"due_date" json:"due_date,omitempty"`
	MaxScore  float64    `db:"max_score" json:"max_score"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// TaskFilter scopes task listing queries.
type TaskFilter struct {
	GroupIDs []string
	Statuses []TaskStatus
}
