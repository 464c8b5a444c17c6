package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/pkg/config"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }
func ptrTime(t time.Time) *time.Time {
	return &t
}

var (
	fixedNow   = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	studentAna = models.Student{ID: "stu-ana", SchoolID: "school-1", GroupID: "grp-1", FullName: "Ana Ruiz", Active: true}
)

func publishedTask(id, subjectID string, due time.Time, maxScore float64) models.Task {
	task := models.Task{ID: id, SchoolID: "school-1", GroupID: "grp-1", TeacherID: "t-1", Title: "Tarea " + id, Status: models.TaskStatusPublished, DueDate: ptrTime(due), MaxScore: maxScore}
	if subjectID != "" {
		task.SubjectID = ptrString(subjectID)
	}
	return task
}

func reviewed(taskID, studentID string, score float64, submitted time.Time) models.Submission {
	return models.Submission{ID: "sub-" + taskID + "-" + studentID, TaskID: taskID, StudentID: studentID, Status: models.SubmissionStatusReviewed, Score: ptrFloat(score), SubmittedAt: submitted, ReviewedAt: ptrTime(submitted.Add(time.Hour))}
}

func pending(taskID, studentID string, submitted time.Time) models.Submission {
	return models.Submission{ID: "sub-" + taskID + "-" + studentID, TaskID: taskID, StudentID: studentID, Status: models.SubmissionStatusPending, SubmittedAt: submitted}
}

func TestNormalizedScore(t *testing.T) {
	n := NewNormalizer(nil)
	task := models.Task{ID: "t", MaxScore: 20}

	assert.Nil(t, n.NormalizedScore(pending("t", "s", fixedNow), task))

	score := n.NormalizedScore(reviewed("t", "s", 15, fixedNow), task)
	require.NotNil(t, score)
	assert.InDelta(t, 75.0, *score, 1e-9)

	defaulted := n.NormalizedScore(reviewed("t", "s", 40, fixedNow), models.Task{ID: "t"})
	require.NotNil(t, defaulted)
	assert.InDelta(t, 40.0, *defaulted, 1e-9)

	over := n.NormalizedScore(reviewed("t", "s", 25, fixedNow), task)
	require.NotNil(t, over)
	assert.InDelta(t, 125.0, *over, 1e-9)
}

func TestCompletionRateBounds(t *testing.T) {
	assert.Equal(t, 0.0, completionRate(0, 0))
	assert.Equal(t, 0.0, completionRate(0, 5))
	assert.Equal(t, 0.0, completionRate(3, 0))
	assert.Equal(t, 100.0, completionRate(7, 5))
	assert.InDelta(t, 66.666, completionRate(2, 3), 0.001)
}

func TestAggregateNullPropagationAndExclusion(t *testing.T) {
	due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		publishedTask("a1", "subj-a", due, 100),
		publishedTask("a2", "subj-a", due, 100),
		publishedTask("b1", "subj-b", due, 100),
	}
	subs := []models.Submission{
		reviewed("a1", studentAna.ID, 80, due),
		reviewed("a2", studentAna.ID, 90, due),
	}
	subjects := map[string]models.Subject{
		"subj-a": {ID: "subj-a", Name: "Algebra", Color: "#2563EB"},
		"subj-b": {ID: "subj-b", Name: "Biologia"},
	}

	aggregates := NewSubjectAggregator(nil).Aggregate(studentAna, tasks, subs, subjects)
	require.Len(t, aggregates, 2)

	algebra, biology := aggregates[0], aggregates[1]
	assert.Equal(t, "Algebra", algebra.SubjectName)
	require.NotNil(t, algebra.Average)
	assert.InDelta(t, 85.0, *algebra.Average, 1e-9)
	assert.Equal(t, 100.0, algebra.CompletionRate)

	assert.Equal(t, "Biologia", biology.SubjectName)
	assert.Nil(t, biology.Average)
	assert.Equal(t, UnassignedSubjectColor, biology.Color)
	assert.Equal(t, 0.0, biology.CompletionRate)

	rollup := NewRollup(DefaultPolicy()).Build(studentAna, aggregates)
	require.NotNil(t, rollup.OverallAverage)
	assert.InDelta(t, 85.0, *rollup.OverallAverage, 1e-9)
	assert.Equal(t, 3, rollup.TotalTasks)
	assert.Equal(t, 2, rollup.TotalGradedTasks)

	withoutB := NewRollup(DefaultPolicy()).Build(studentAna, aggregates[:1])
	assert.Equal(t, *withoutB.OverallAverage, *rollup.OverallAverage)
}

func TestAggregateSkipsDraftsAndOtherGroups(t *testing.T) {
	due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	draft := publishedTask("d1", "", due, 100)
	draft.Status = models.TaskStatusDraft
	foreign := publishedTask("f1", "", due, 100)
	foreign.GroupID = "grp-2"
	closed := publishedTask("c1", "", due, 100)
	closed.Status = models.TaskStatusClosed

	aggregates := NewSubjectAggregator(nil).Aggregate(studentAna, []models.Task{draft, foreign, closed}, nil, nil)

	require.Len(t, aggregates, 1)
	assert.Equal(t, UnassignedSubjectName, aggregates[0].SubjectName)
	assert.Equal(t, 1, aggregates[0].TotalTasks)
	assert.Nil(t, aggregates[0].Average)
}

func TestAggregateUnassignedBucketSortsLast(t *testing.T) {
	due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{publishedTask("u1", "", due, 100), publishedTask("z1", "subj-z", due, 100)}
	subjects := map[string]models.Subject{"subj-z": {ID: "subj-z", Name: "Zoologia", Color: "#111111"}}

	aggregates := NewSubjectAggregator(nil).Aggregate(studentAna, tasks, nil, subjects)

	require.Len(t, aggregates, 2)
	assert.Equal(t, "Zoologia", aggregates[0].SubjectName)
	assert.Equal(t, UnassignedSubjectName, aggregates[1].SubjectName)
}

func TestTrendOf(t *testing.T) {
	history := func(values ...float64) []models.PeriodAverage {
		points := make([]models.PeriodAverage, 0, len(values))
		for i, v := range values {
			points = append(points, models.PeriodAverage{Period: time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC).Format(models.PeriodLayout), Average: ptrFloat(v)})
		}
		return points
	}

	assert.Equal(t, models.TrendDown, TrendOf(history(70, 75, 72)))
	assert.Equal(t, models.TrendUp, TrendOf(history(70, 75)))
	assert.Equal(t, models.TrendFlat, TrendOf(history(70)))
	assert.Equal(t, models.TrendFlat, TrendOf(history(70, 70)))
	assert.Equal(t, models.TrendFlat, TrendOf(nil))
}

func TestAggregateTrendAcrossMonths(t *testing.T) {
	tasks := []models.Task{
		publishedTask("m3", "subj-a", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 100),
		publishedTask("m4", "subj-a", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), 100),
		publishedTask("m5", "subj-a", time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), 100),
	}
	subs := []models.Submission{
		reviewed("m3", studentAna.ID, 70, fixedNow),
		reviewed("m4", studentAna.ID, 75, fixedNow),
		reviewed("m5", studentAna.ID, 72, fixedNow),
	}

	aggregates := NewSubjectAggregator(nil).Aggregate(studentAna, tasks, subs, nil)

	require.Len(t, aggregates, 1)
	require.Len(t, aggregates[0].History, 3)
	assert.Equal(t, "2024-03", aggregates[0].History[0].Period)
	assert.Equal(t, models.TrendDown, aggregates[0].Trend)
}

func TestRollupHighlights(t *testing.T) {
	subjects := []models.SubjectAggregate{
		{SubjectID: "a", SubjectName: "Arte", Average: ptrFloat(95), Trend: models.TrendFlat},
		{SubjectID: "b", SubjectName: "Biologia", Average: ptrFloat(60), Trend: models.TrendFlat},
		{SubjectID: "c", SubjectName: "Civica", Average: ptrFloat(50), Trend: models.TrendFlat},
		{SubjectID: "d", SubjectName: "Dibujo", Average: nil, Trend: models.TrendDown},
		{SubjectID: "e", SubjectName: "Etica", Average: ptrFloat(80), Trend: models.TrendUp},
	}
	policy := DefaultPolicy()

	rollup := NewRollup(policy).Build(studentAna, subjects)

	names := func(list []models.SubjectAggregate) []string {
		out := make([]string, 0, len(list))
		for _, s := range list {
			out = append(out, s.SubjectName)
		}
		return out
	}
	assert.Equal(t, []string{"Civica", "Biologia", "Dibujo"}, names(rollup.AreasOfConcern))
	assert.Equal(t, []string{"Arte", "Etica"}, names(rollup.Strengths))

	policy.HighlightLimit = 1
	limited := NewRollup(policy).Build(studentAna, subjects)
	assert.Equal(t, []string{"Civica"}, names(limited.AreasOfConcern))
}

func TestRollupAllNullAverages(t *testing.T) {
	rollup := NewRollup(DefaultPolicy()).Build(studentAna, []models.SubjectAggregate{{SubjectName: "Arte", TotalTasks: 2}})

	assert.Nil(t, rollup.OverallAverage)
	assert.Equal(t, 0.0, rollup.CompletionRate)
	assert.False(t, math.IsNaN(rollup.CompletionRate))
}

func alertFixture() AlertInput {
	yesterday := fixedNow.Add(-24 * time.Hour)
	inTwoDays := fixedNow.Add(48 * time.Hour)
	inTwelveHours := fixedNow.Add(12 * time.Hour)
	nextMonth := fixedNow.AddDate(0, 1, 0)

	students := []models.Student{studentAna, {ID: "stu-ben", SchoolID: "school-1", GroupID: "grp-1", FullName: "Ben Soto", Active: true}}
	tasks := []models.Task{
		publishedTask("overdue", "subj-a", yesterday, 100),
		publishedTask("soon", "subj-a", inTwoDays, 100),
		publishedTask("tonight", "", inTwelveHours, 100),
		publishedTask("later", "subj-a", nextMonth, 100),
	}
	closed := publishedTask("closed", "subj-a", yesterday, 100)
	closed.Status = models.TaskStatusClosed
	tasks = append(tasks, closed)

	subs := []models.Submission{
		pending("overdue", "stu-ben", yesterday),
		reviewed("soon", "stu-ben", 90, fixedNow),
		reviewed("tonight", "stu-ben", 90, fixedNow),
	}
	return AlertInput{
		Viewer:      models.Caller{ID: "parent-1", Role: models.RoleParent, SchoolID: "school-1"},
		Students:    students,
		Tasks:       tasks,
		Submissions: subs,
		Subjects:    map[string]models.Subject{"subj-a": {ID: "subj-a", Name: "Algebra"}},
		Now:         fixedNow,
	}
}

func TestAlertGeneratorClassifiesDueDates(t *testing.T) {
	alerts := NewAlertGenerator(DefaultPolicy()).Generate(alertFixture())

	require.Len(t, alerts, 3)
	assert.Equal(t, models.AlertOverdue, alerts[0].Type)
	assert.Equal(t, models.PriorityHigh, alerts[0].Priority)
	assert.Equal(t, "overdue", alerts[0].TaskID)
	assert.Equal(t, studentAna.ID, alerts[0].StudentID)

	assert.Equal(t, models.AlertUpcoming, alerts[1].Type)
	assert.Equal(t, models.PriorityHigh, alerts[1].Priority)
	assert.Equal(t, "tonight", alerts[1].TaskID)
	assert.Equal(t, UnassignedSubjectName, alerts[1].SubjectName)

	assert.Equal(t, models.AlertUpcoming, alerts[2].Type)
	assert.Equal(t, models.PriorityMedium, alerts[2].Priority)
	assert.Equal(t, "soon", alerts[2].TaskID)
	assert.Equal(t, "Algebra", alerts[2].SubjectName)
}

func TestAlertGeneratorOutputIsSorted(t *testing.T) {
	alerts := NewAlertGenerator(DefaultPolicy()).Generate(alertFixture())

	for i := 1; i < len(alerts); i++ {
		assert.False(t, lessAlert(alerts[i], alerts[i-1]), "alerts out of order at %d", i)
	}
}

func TestAlertGeneratorPendingReviewForOwningTeacher(t *testing.T) {
	in := alertFixture()
	in.Viewer = models.Caller{ID: "t-1", Role: models.RoleTeacher, SchoolID: "school-1"}

	alerts := NewAlertGenerator(DefaultPolicy()).Generate(in)

	var pendingReview []models.Alert
	for _, alert := range alerts {
		if alert.Type == models.AlertPendingReview {
			pendingReview = append(pendingReview, alert)
		}
	}
	require.Len(t, pendingReview, 1)
	assert.Equal(t, "stu-ben", pendingReview[0].StudentID)
	assert.Equal(t, models.PriorityMedium, pendingReview[0].Priority)

	in.Viewer.ID = "t-2"
	for _, alert := range NewAlertGenerator(DefaultPolicy()).Generate(in) {
		assert.NotEqual(t, models.AlertPendingReview, alert.Type)
	}
}

func TestAlertGeneratorDeterministic(t *testing.T) {
	gen := NewAlertGenerator(DefaultPolicy())
	in := alertFixture()
	first := gen.Generate(in)

	in.Tasks[0], in.Tasks[len(in.Tasks)-1] = in.Tasks[len(in.Tasks)-1], in.Tasks[0]
	in.Students[0], in.Students[1] = in.Students[1], in.Students[0]
	second := gen.Generate(in)

	assert.Equal(t, first, second)
	assert.Equal(t, first[0].ID, alertID(alertKey{alertType: first[0].Type, taskID: first[0].TaskID, studentID: first[0].StudentID}))
}

func TestSummarizeAlerts(t *testing.T) {
	summary := SummarizeAlerts([]models.Alert{{Priority: models.PriorityHigh}, {Priority: models.PriorityMedium}, {Priority: models.PriorityHigh}, {Priority: models.PriorityLow}})

	assert.Equal(t, models.AlertSummary{Total: 4, High: 2, Medium: 1, Low: 1}, summary)
}

func teacherSubmissions(total, reviewedCount int, base time.Time) []models.TeacherSubmission {
	subs := make([]models.TeacherSubmission, 0, total)
	for i := 0; i < total; i++ {
		sub := models.TeacherSubmission{SubmissionID: string(rune('a' + i)), TaskID: "task", Status: models.SubmissionStatusPending, MaxScore: 20, SubmittedAt: base}
		if i < reviewedCount {
			sub.Status = models.SubmissionStatusReviewed
			sub.Score = ptrFloat(16)
			sub.ReviewedAt = ptrTime(base.Add(48 * time.Hour))
		}
		subs = append(subs, sub)
	}
	return subs
}

func categoryByName(perf models.TeacherPerformance, category models.MetricCategory) (models.CategoryScore, bool) {
	for _, score := range perf.Categories {
		if score.Category == category {
			return score, true
		}
	}
	return models.CategoryScore{}, false
}

func TestPerformanceCalculatorTaskCompletionNearTarget(t *testing.T) {
	period, err := models.ParsePeriod("2024-05")
	require.NoError(t, err)
	calc := NewPerformanceCalculator(DefaultPolicy())

	perf := calc.Calculate(PerformanceInput{
		Teacher:     models.User{ID: "t-1", Role: models.RoleTeacher},
		Period:      period,
		Now:         fixedNow,
		Submissions: teacherSubmissions(10, 7, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)),
	})

	completion, ok := categoryByName(perf, models.MetricTaskCompletion)
	require.True(t, ok)
	assert.InDelta(t, 70.0, completion.Value, 1e-9)
	assert.Equal(t, models.TierNearTarget, completion.Tier)
	assert.Equal(t, models.MetricSourceComputed, completion.Source)

	grades, ok := categoryByName(perf, models.MetricStudentGrades)
	require.True(t, ok)
	assert.InDelta(t, 80.0, grades.Value, 1e-9)
	assert.Equal(t, models.TierOnTarget, grades.Tier)

	punctual, ok := categoryByName(perf, models.MetricPunctuality)
	require.True(t, ok)
	assert.Equal(t, 100.0, punctual.Value)

	_, ok = categoryByName(perf, models.MetricCommunication)
	assert.False(t, ok)
	_, ok = categoryByName(perf, models.MetricAttendance)
	assert.False(t, ok)
}

func TestPerformanceCalculatorClassifyBoundaries(t *testing.T) {
	calc := NewPerformanceCalculator(DefaultPolicy())

	assert.Equal(t, models.TierOnTarget, calc.Classify(80, 80))
	assert.Equal(t, models.TierNearTarget, calc.Classify(64, 80))
	assert.Equal(t, models.TierBelowTarget, calc.Classify(63.9, 80))
	assert.Equal(t, models.TierOnTarget, calc.Classify(80, 0))
}

func TestPerformanceCalculatorStoredFallbackAndTarget(t *testing.T) {
	period, err := models.ParsePeriod("2024-05")
	require.NoError(t, err)
	calc := NewPerformanceCalculator(DefaultPolicy())

	perf := calc.Calculate(PerformanceInput{
		Period:      period,
		Now:         fixedNow,
		Submissions: teacherSubmissions(4, 4, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)),
		Stored: []models.PerformanceMetric{
			{Category: models.MetricCommunication, Value: 60, Target: ptrFloat(90), Period: "2024-05"},
			{Category: models.MetricTaskCompletion, Value: 10, Target: ptrFloat(95), Period: "2024-05"},
			{Category: models.MetricAttendance, Value: 99, Period: "2024-04"},
		},
	})

	communication, ok := categoryByName(perf, models.MetricCommunication)
	require.True(t, ok)
	assert.Equal(t, models.MetricSourceStored, communication.Source)
	assert.Equal(t, 90.0, communication.Target)
	assert.Equal(t, models.TierBelowTarget, communication.Tier)

	completion, ok := categoryByName(perf, models.MetricTaskCompletion)
	require.True(t, ok)
	assert.Equal(t, 100.0, completion.Value)
	assert.Equal(t, 95.0, completion.Target)

	_, ok = categoryByName(perf, models.MetricAttendance)
	assert.False(t, ok)
	require.NotNil(t, perf.OverallScore)
}

func TestPerformanceCalculatorAttendanceCoverage(t *testing.T) {
	period, err := models.ParsePeriod("2024-05")
	require.NoError(t, err)
	calc := NewPerformanceCalculator(DefaultPolicy())
	// 2024-05-01 is a Wednesday; up to the 3rd there are three weekdays.
	now := time.Date(2024, 5, 3, 15, 0, 0, 0, time.UTC)
	sessions := []models.AttendanceSession{
		{GroupID: "grp-1", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{GroupID: "grp-1", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{GroupID: "grp-1", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{GroupID: "grp-9", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
	}

	perf := calc.Calculate(PerformanceInput{Period: period, Now: now, Sessions: sessions, GroupIDs: []string{"grp-1"}})

	attendance, ok := categoryByName(perf, models.MetricAttendance)
	require.True(t, ok)
	assert.InDelta(t, 66.666, attendance.Value, 0.001)

	empty := calc.Calculate(PerformanceInput{Period: period, Now: now, GroupIDs: []string{"grp-1"}})
	assert.Empty(t, empty.Categories)
	assert.Nil(t, empty.OverallScore)
}

func TestPolicyFromConfig(t *testing.T) {
	policy := PolicyFromConfig(config.InsightsConfig{HighlightLimit: 3})
	assert.Equal(t, DefaultPolicy(), policy)

	custom := PolicyFromConfig(config.InsightsConfig{ConcernThreshold: 65, UpcomingWindowDays: 2, NearTargetRatio: 1.5})
	assert.Equal(t, 65.0, custom.ConcernThreshold)
	assert.Equal(t, 48*time.Hour, custom.UpcomingWindow)
	assert.Equal(t, 0.8, custom.NearTargetRatio)
	assert.Equal(t, 0, custom.HighlightLimit)
}
