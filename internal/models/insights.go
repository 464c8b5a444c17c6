package models

import "time"

// Trend is the direction between the two most recent period averages.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// PeriodAverage is a nullable average for one calendar month.
type PeriodAverage struct {
	Period  string
	Average *float64
}

// SubjectAggregate holds per-subject totals for one student at full precision.
type SubjectAggregate struct {
	SubjectID      string
	SubjectName    string
	Color          string
	TotalTasks     int
	CompletedTasks int
	GradedTasks    int
	LateCount      int
	Average        *float64
	CompletionRate float64
	History        []PeriodAverage
	Trend          Trend
}

// StudentRollup combines subject aggregates into a student-level summary.
type StudentRollup struct {
	Student          Student
	Subjects         []SubjectAggregate
	OverallAverage   *float64
	TotalTasks       int
	CompletedTasks   int
	TotalGradedTasks int
	LateSubmissions  int
	CompletionRate   float64
	AreasOfConcern   []SubjectAggregate
	Strengths        []SubjectAggregate
}

// AlertType classifies a generated alert.
type AlertType string

const (
	AlertOverdue       AlertType = "VENCIDA"
	AlertUpcoming      AlertType = "PROXIMA"
	AlertPendingReview AlertType = "PENDIENTE_CALIFICAR"
)

// AlertPriority ranks alerts for display.
type AlertPriority string

const (
	PriorityHigh   AlertPriority = "HIGH"
	PriorityMedium AlertPriority = "MEDIUM"
	PriorityLow    AlertPriority = "LOW"
)

// Rank orders priorities HIGH < MEDIUM < LOW.
func (p AlertPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Alert is a derived, time-sensitive academic event.
type Alert struct {
	ID          string
	Type        AlertType
	Priority    AlertPriority
	TaskID      string
	TaskTitle   string
	StudentID   string
	StudentName string
	SubjectName string
	DueDate     *time.Time
}

// AlertSummary counts alerts per priority.
type AlertSummary struct {
	Total  int
	High   int
	Medium int
	Low    int
}
