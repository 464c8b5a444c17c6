package service

import (
	"sort"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

// Rollup combines subject aggregates into one student summary.
type Rollup struct {
	policy Policy
}

// NewRollup constructs a Rollup.
func NewRollup(policy Policy) *Rollup {
	return &Rollup{policy: policy}
}

// Build rolls up subject aggregates. Subjects with a null average are excluded from the overall average.
func (r *Rollup) Build(student models.Student, subjects []models.SubjectAggregate) models.StudentRollup {
	rollup := models.StudentRollup{Student: student, Subjects: subjects}

	averages := make([]float64, 0, len(subjects))
	for _, subject := range subjects {
		rollup.TotalTasks += subject.TotalTasks
		rollup.CompletedTasks += subject.CompletedTasks
		rollup.TotalGradedTasks += subject.GradedTasks
		rollup.LateSubmissions += subject.LateCount
		if subject.Average != nil {
			averages = append(averages, *subject.Average)
		}
	}
	rollup.OverallAverage = mean(averages)
	rollup.CompletionRate = completionRate(rollup.CompletedTasks, rollup.TotalTasks)
	rollup.AreasOfConcern = r.concerns(subjects)
	rollup.Strengths = r.strengths(subjects)
	return rollup
}

func (r *Rollup) concerns(subjects []models.SubjectAggregate) []models.SubjectAggregate {
	selected := make([]models.SubjectAggregate, 0)
	for _, subject := range subjects {
		low := subject.Average != nil && *subject.Average < r.policy.ConcernThreshold
		if low || subject.Trend == models.TrendDown {
			selected = append(selected, subject)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return lessAverage(selected[i], selected[j], true)
	})
	return r.limit(selected)
}

func (r *Rollup) strengths(subjects []models.SubjectAggregate) []models.SubjectAggregate {
	selected := make([]models.SubjectAggregate, 0)
	for _, subject := range subjects {
		high := subject.Average != nil && *subject.Average >= r.policy.StrengthThreshold
		if high || subject.Trend == models.TrendUp {
			selected = append(selected, subject)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return lessAverage(selected[i], selected[j], false)
	})
	return r.limit(selected)
}

func (r *Rollup) limit(subjects []models.SubjectAggregate) []models.SubjectAggregate {
	if r.policy.HighlightLimit > 0 && len(subjects) > r.policy.HighlightLimit {
		return subjects[:r.policy.HighlightLimit]
	}
	return subjects
}

// lessAverage orders by average (ascending or descending) with null averages last.
func lessAverage(left, right models.SubjectAggregate, ascending bool) bool {
	if (left.Average == nil) != (right.Average == nil) {
		return right.Average == nil
	}
	if left.Average != nil && *left.Average != *right.Average {
		if ascending {
			return *left.Average < *right.Average
		}
		return *left.Average > *right.Average
	}
	return left.SubjectName < right.SubjectName
}
