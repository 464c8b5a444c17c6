package models

import "time"

// SubmissionStatus describes the review state of a submission.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusReviewed SubmissionStatus = "REVIEWED"
)

// Submission belongs to exactly one (task, student) pair.
type Submission struct {
	ID          string           `db:"id" json:"id"`
	TaskID      string           `db:"task_id" json:"task_id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	Status      SubmissionStatus `db:"status" json:"status"`
	Score       *float64         `db:"score" json:"score,omitempty"`
	Feedback    *string          `db:"feedback" json:"feedback,omitempty"`
	SubmittedAt time.Time        `db:"submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	IsLate      bool             `db:"is_late" json:"is_late"`
}

// Scored reports whether the submission contributes to averages.
func (s Submission) Scored() bool {
	return s.Status == SubmissionStatusReviewed && s.Score != nil
}

// GradeSubmissionRequest is the payload accepted by the grading write path.
type GradeSubmissionRequest struct {
	Score    *float64 `json:"score" validate:"omitempty,gte=0"`
	Feedback *string  `json:"feedback" validate:"omitempty,max=2000"`
}

// TeacherSubmission joins a submission with the task attributes needed for staff metrics.
type TeacherSubmission struct {
	SubmissionID string           `db:"submission_id"`
	TaskID       string           `db:"task_id"`
	Status       SubmissionStatus `db:"status"`
	Score        *float64         `db:"score"`
	MaxScore     float64          `db:"max_score"`
	SubmittedAt  time.Time        `db:"submitted_at"`
	ReviewedAt   *time.Time       `db:"reviewed_at"`
}
