package service

import (
	"sort"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

const (
	// UnassignedSubjectName labels the bucket for tasks without a subject.
	UnassignedSubjectName = "Sin materia"
	// UnassignedSubjectColor is the neutral gray used for that bucket and unknown subjects.
	UnassignedSubjectColor = "#9CA3AF"
)

// SubjectAggregator groups a student's tasks by subject and reduces them to aggregates.
type SubjectAggregator struct {
	normalizer *Normalizer
}

// NewSubjectAggregator constructs a SubjectAggregator.
func NewSubjectAggregator(normalizer *Normalizer) *SubjectAggregator {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	return &SubjectAggregator{normalizer: normalizer}
}

type subjectBucket struct {
	aggregate models.SubjectAggregate
	scores    []float64
	periods   map[string][]float64
}

// Aggregate builds one aggregate per subject for the student. Buckets are ordered by subject
// name with the unassigned bucket last.
func (a *SubjectAggregator) Aggregate(student models.Student, tasks []models.Task, submissions []models.Submission, subjects map[string]models.Subject) []models.SubjectAggregate {
	byTask := latestSubmissionByTask(student.ID, submissions)

	buckets := make(map[string]*subjectBucket)
	for _, task := range tasks {
		if !CountsTowardTotal(task, student) {
			continue
		}
		key := ""
		if task.SubjectID != nil {
			key = *task.SubjectID
		}
		bucket, ok := buckets[key]
		if !ok {
			bucket = newSubjectBucket(key, subjects)
			buckets[key] = bucket
		}

		bucket.aggregate.TotalTasks++
		sub, ok := byTask[task.ID]
		if !ok {
			continue
		}
		bucket.aggregate.CompletedTasks++
		if sub.IsLate {
			bucket.aggregate.LateCount++
		}
		score := a.normalizer.NormalizedScore(sub, task)
		if score == nil {
			continue
		}
		bucket.aggregate.GradedTasks++
		bucket.scores = append(bucket.scores, *score)
		period := periodLabel(task, sub)
		bucket.periods[period] = append(bucket.periods[period], *score)
	}

	result := make([]models.SubjectAggregate, 0, len(buckets))
	for _, bucket := range buckets {
		agg := bucket.aggregate
		agg.Average = mean(bucket.scores)
		agg.CompletionRate = completionRate(agg.CompletedTasks, agg.TotalTasks)
		agg.History = periodHistory(bucket.periods)
		agg.Trend = TrendOf(agg.History)
		result = append(result, agg)
	}

	sort.Slice(result, func(i, j int) bool {
		left, right := result[i], result[j]
		if (left.SubjectID == "") != (right.SubjectID == "") {
			return right.SubjectID == ""
		}
		if left.SubjectName != right.SubjectName {
			return left.SubjectName < right.SubjectName
		}
		return left.SubjectID < right.SubjectID
	})
	return result
}

// TrendOf compares the last two non-null period averages.
func TrendOf(history []models.PeriodAverage) models.Trend {
	values := make([]float64, 0, len(history))
	for _, point := range history {
		if point.Average != nil {
			values = append(values, *point.Average)
		}
	}
	if len(values) < 2 {
		return models.TrendFlat
	}
	latest, previous := values[len(values)-1], values[len(values)-2]
	switch {
	case latest > previous:
		return models.TrendUp
	case latest < previous:
		return models.TrendDown
	default:
		return models.TrendFlat
	}
}

func newSubjectBucket(subjectID string, subjects map[string]models.Subject) *subjectBucket {
	agg := models.SubjectAggregate{SubjectID: subjectID, SubjectName: UnassignedSubjectName, Color: UnassignedSubjectColor}
	if subjectID != "" {
		agg.SubjectName = subjectID
		if subject, ok := subjects[subjectID]; ok {
			agg.SubjectName = subject.Name
			if subject.Color != "" {
				agg.Color = subject.Color
			}
		}
	}
	return &subjectBucket{aggregate: agg, periods: make(map[string][]float64)}
}

// latestSubmissionByTask keeps one submission per task for the student, preferring the most recent.
func latestSubmissionByTask(studentID string, submissions []models.Submission) map[string]models.Submission {
	byTask := make(map[string]models.Submission)
	for _, sub := range submissions {
		if sub.StudentID != studentID {
			continue
		}
		if existing, ok := byTask[sub.TaskID]; ok && !sub.SubmittedAt.After(existing.SubmittedAt) {
			continue
		}
		byTask[sub.TaskID] = sub
	}
	return byTask
}

// periodLabel buckets a scored submission by the month of the task due date,
// falling back to the review and then the submission time.
func periodLabel(task models.Task, sub models.Submission) string {
	switch {
	case task.DueDate != nil:
		return task.DueDate.UTC().Format(models.PeriodLayout)
	case sub.ReviewedAt != nil:
		return sub.ReviewedAt.UTC().Format(models.PeriodLayout)
	default:
		return sub.SubmittedAt.UTC().Format(models.PeriodLayout)
	}
}

func periodHistory(periods map[string][]float64) []models.PeriodAverage {
	labels := make([]string, 0, len(periods))
	for label := range periods {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	history := make([]models.PeriodAverage, 0, len(labels))
	for _, label := range labels {
		history = append(history, models.PeriodAverage{Period: label, Average: mean(periods[label])})
	}
	return history
}
