package service

import (
	"time"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// PerformanceInput is the raw data a teacher summary is computed from.
type PerformanceInput struct {
	Teacher     models.User
	Period      models.Period
	Now         time.Time
	Submissions []models.TeacherSubmission
	Sessions    []models.AttendanceSession
	GroupIDs    []string
	Stored      []models.PerformanceMetric
}

// PerformanceCalculator turns raw staff activity into classified category scores.
type PerformanceCalculator struct {
	policy Policy
}

// NewPerformanceCalculator constructs a PerformanceCalculator.
func NewPerformanceCalculator(policy Policy) *PerformanceCalculator {
	return &PerformanceCalculator{policy: policy}
}

// Calculate computes every category with data. Categories without data are omitted.
func (c *PerformanceCalculator) Calculate(in PerformanceInput) models.TeacherPerformance {
	computed := make(map[models.MetricCategory]float64)
	if v, ok := taskCompletion(in.Submissions); ok {
		computed[models.MetricTaskCompletion] = v
	}
	if v, ok := studentGrades(in.Submissions); ok {
		computed[models.MetricStudentGrades] = v
	}
	if v, ok := punctuality(in.Submissions, c.policy.GradingWindow); ok {
		computed[models.MetricPunctuality] = v
	}
	if v, ok := attendanceCoverage(in.Sessions, in.GroupIDs, in.Period, in.Now); ok {
		computed[models.MetricAttendance] = v
	}

	stored := make(map[models.MetricCategory]models.PerformanceMetric, len(in.Stored))
	for _, metric := range in.Stored {
		if metric.Period != in.Period.Label {
			continue
		}
		stored[metric.Category] = metric
	}

	result := models.TeacherPerformance{Teacher: in.Teacher, Period: in.Period}
	values := make([]float64, 0, len(models.MetricCategories))
	for _, category := range models.MetricCategories {
		target := c.policy.DefaultTarget
		row, hasStored := stored[category]
		if hasStored && row.Target != nil && *row.Target > 0 {
			target = *row.Target
		}

		score := models.CategoryScore{Category: category, Target: target}
		if value, ok := computed[category]; ok {
			score.Value = value
			score.Source = models.MetricSourceComputed
		} else if hasStored {
			score.Value = row.Value
			score.Source = models.MetricSourceStored
		} else {
			continue
		}
		score.Tier = c.Classify(score.Value, score.Target)
		result.Categories = append(result.Categories, score)
		values = append(values, score.Value)
	}
	result.OverallScore = mean(values)
	return result
}

// Classify applies the three-tier comparison against a target.
func (c *PerformanceCalculator) Classify(value, target float64) models.PerformanceTier {
	if target <= 0 {
		target = c.policy.DefaultTarget
	}
	switch {
	case value >= target:
		return models.TierOnTarget
	case value >= c.policy.NearTargetRatio*target:
		return models.TierNearTarget
	default:
		return models.TierBelowTarget
	}
}

func taskCompletion(subs []models.TeacherSubmission) (float64, bool) {
	if len(subs) == 0 {
		return 0, false
	}
	reviewed := 0
	for _, sub := range subs {
		if sub.Status == models.SubmissionStatusReviewed {
			reviewed++
		}
	}
	return float64(reviewed) / float64(len(subs)) * 100, true
}

func studentGrades(subs []models.TeacherSubmission) (float64, bool) {
	scores := make([]float64, 0, len(subs))
	for _, sub := range subs {
		if sub.Status != models.SubmissionStatusReviewed || sub.Score == nil {
			continue
		}
		scores = append(scores, percentOf(*sub.Score, sub.MaxScore, nil))
	}
	avg := mean(scores)
	if avg == nil {
		return 0, false
	}
	return *avg, true
}

func punctuality(subs []models.TeacherSubmission, window time.Duration) (float64, bool) {
	reviewed, onTime := 0, 0
	for _, sub := range subs {
		if sub.Status != models.SubmissionStatusReviewed || sub.ReviewedAt == nil {
			continue
		}
		reviewed++
		if sub.ReviewedAt.Sub(sub.SubmittedAt) <= window {
			onTime++
		}
	}
	if reviewed == 0 {
		return 0, false
	}
	return float64(onTime) / float64(reviewed) * 100, true
}

// attendanceCoverage is recorded weekday sessions over expected sessions
// (weekdays elapsed in the period times the number of groups). No recorded session means no data.
func attendanceCoverage(sessions []models.AttendanceSession, groupIDs []string, period models.Period, now time.Time) (float64, bool) {
	if len(groupIDs) == 0 {
		return 0, false
	}
	end := period.End
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if today.Before(end) {
		end = today
	}
	days := weekdaysBetween(period.Start, end)
	if days == 0 {
		return 0, false
	}

	groups := make(map[string]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		groups[id] = struct{}{}
	}
	recorded := make(map[string]struct{})
	for _, session := range sessions {
		day := session.Date.UTC()
		if _, ok := groups[session.GroupID]; !ok {
			continue
		}
		if day.Before(period.Start) || !day.Before(end) || isWeekend(day) {
			continue
		}
		recorded[session.GroupID+"|"+day.Format("2006-01-02")] = struct{}{}
	}

	if len(recorded) == 0 {
		return 0, false
	}
	expected := days * len(groups)
	return float64(len(recorded)) / float64(expected) * 100, true
}

func weekdaysBetween(start, end time.Time) int {
	count := 0
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		if !isWeekend(day) {
			count++
		}
	}
	return count
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
