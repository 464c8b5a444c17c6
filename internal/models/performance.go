package models

import (
	"fmt"
	"time"
)

// MetricCategory enumerates the staff performance categories.
type MetricCategory string

const (
	MetricAttendance     MetricCategory = "ATTENDANCE"
	MetricTaskCompletion MetricCategory = "TASK_COMPLETION"
	MetricCommunication  MetricCategory = "COMMUNICATION"
	MetricStudentGrades  MetricCategory = "STUDENT_GRADES"
	MetricPunctuality    MetricCategory = "PUNCTUALITY"
)

// MetricCategories lists categories in presentation order.
var MetricCategories = []MetricCategory{
	MetricAttendance,
	MetricTaskCompletion,
	MetricCommunication,
	MetricStudentGrades,
	MetricPunctuality,
}

// PerformanceMetric is a stored staff metric row.
type PerformanceMetric struct {
	ID        string         `db:"id" json:"id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	SchoolID  string         `db:"school_id" json:"school_id"`
	Category  MetricCategory `db:"category" json:"category"`
	Value     float64        `db:"value" json:"value"`
	Target    *float64       `db:"target" json:"target,omitempty"`
	Period    string         `db:"period" json:"period"`
}

// PerformanceTier is the three-tier classification against a target.
type PerformanceTier string

const (
	TierOnTarget    PerformanceTier = "ON_TARGET"
	TierNearTarget  PerformanceTier = "NEAR_TARGET"
	TierBelowTarget PerformanceTier = "BELOW_TARGET"
)

// MetricSource tells whether a category value was derived from raw records or read from storage.
type MetricSource string

const (
	MetricSourceComputed MetricSource = "computed"
	MetricSourceStored   MetricSource = "stored"
)

// CategoryScore holds one category value at full precision.
type CategoryScore struct {
	Category MetricCategory
	Value    float64
	Target   float64
	Tier     PerformanceTier
	Source   MetricSource
}

// TeacherPerformance is the computed summary for a teacher and period.
type TeacherPerformance struct {
	Teacher      User
	Period       Period
	Categories   []CategoryScore
	OverallScore *float64
}

// Period is a calendar month used as the staff reporting window.
type Period struct {
	Label string
	Start time.Time
	End   time.Time
}

// PeriodLayout is the YYYY-MM label format.
const PeriodLayout = "2006-01"

// ParsePeriod converts a YYYY-MM label into a half-open [Start, End) UTC window.
func ParsePeriod(label string) (Period, error) {
	start, err := time.Parse(PeriodLayout, label)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", label)
	}
	return Period{Label: label, Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// PeriodOf returns the monthly period containing t.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Label: start.Format(PeriodLayout), Start: start, End: start.AddDate(0, 1, 0)}
}

// Closed reports whether the whole period lies before now.
func (p Period) Closed(now time.Time) bool {
	return !now.Before(p.End)
}
