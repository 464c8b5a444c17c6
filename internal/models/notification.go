package models

import "time"

// EventType names the plain events handed to the notification collaborator.
type EventType string

const (
	EventGradeReviewed EventType = "grade.reviewed"
	EventAlertDigest   EventType = "alert.digest"
)

// NotificationEvent is the envelope emitted by the engine.
type NotificationEvent struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	SchoolID   string      `json:"school_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// GradeReviewedPayload describes who was graded, on what, and with which score.
type GradeReviewedPayload struct {
	SubmissionID string   `json:"submission_id"`
	TaskID       string   `json:"task_id"`
	TaskTitle    string   `json:"task_title"`
	StudentID    string   `json:"student_id"`
	ReviewedBy   string   `json:"reviewed_by"`
	Score        *float64 `json:"score,omitempty"`
	MaxScore     float64  `json:"max_score"`
	Feedback     *string  `json:"feedback,omitempty"`
}

// AlertDigestPayload lists the current alerts of a single student.
type AlertDigestPayload struct {
	StudentID   string            `json:"student_id"`
	StudentName string            `json:"student_name"`
	Items       []AlertDigestItem `json:"items"`
}

// AlertDigestItem is the minimal alert data included in a digest.
type AlertDigestItem struct {
	Type      AlertType     `json:"type"`
	Priority  AlertPriority `json:"priority"`
	TaskID    string        `json:"task_id"`
	TaskTitle string        `json:"task_title"`
	DueDate   *time.Time    `json:"due_date,omitempty"`
}
