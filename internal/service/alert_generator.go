package service

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

var alertNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sma-insights/alerts"))

// AlertInput is the snapshot an alert run is computed from.
type AlertInput struct {
	Viewer      models.Caller
	Students    []models.Student
	Tasks       []models.Task
	Submissions []models.Submission
	Subjects    map[string]models.Subject
	Now         time.Time
}

// AlertGenerator derives prioritized alerts from task due dates and review backlogs.
type AlertGenerator struct {
	policy Policy
}

// NewAlertGenerator constructs an AlertGenerator.
func NewAlertGenerator(policy Policy) *AlertGenerator {
	return &AlertGenerator{policy: policy}
}

type alertKey struct {
	alertType models.AlertType
	taskID    string
	studentID string
}

// Generate returns deduplicated alerts sorted by priority, due date, type, task and student.
// The output depends only on the input snapshot.
func (g *AlertGenerator) Generate(in AlertInput) []models.Alert {
	studentsByGroup := make(map[string][]models.Student)
	for _, student := range in.Students {
		studentsByGroup[student.GroupID] = append(studentsByGroup[student.GroupID], student)
	}
	submissions := make(map[[2]string]models.Submission, len(in.Submissions))
	for _, sub := range in.Submissions {
		key := [2]string{sub.TaskID, sub.StudentID}
		if existing, ok := submissions[key]; ok && !sub.SubmittedAt.After(existing.SubmittedAt) {
			continue
		}
		submissions[key] = sub
	}

	horizon := in.Now.Add(g.policy.UpcomingWindow)
	seen := make(map[alertKey]models.Alert)
	emit := func(alertType models.AlertType, priority models.AlertPriority, task models.Task, student models.Student) {
		key := alertKey{alertType: alertType, taskID: task.ID, studentID: student.ID}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = models.Alert{
			ID:          alertID(key),
			Type:        alertType,
			Priority:    priority,
			TaskID:      task.ID,
			TaskTitle:   task.Title,
			StudentID:   student.ID,
			StudentName: student.FullName,
			SubjectName: subjectNameOf(task, in.Subjects),
			DueDate:     task.DueDate,
		}
	}

	for _, task := range in.Tasks {
		if task.Status != models.TaskStatusPublished {
			continue
		}
		for _, student := range studentsByGroup[task.GroupID] {
			sub, submitted := submissions[[2]string{task.ID, student.ID}]
			if !submitted {
				if task.DueDate == nil {
					continue
				}
				due := *task.DueDate
				switch {
				case due.Before(in.Now):
					emit(models.AlertOverdue, models.PriorityHigh, task, student)
				case !due.After(horizon):
					priority := models.PriorityMedium
					if due.Sub(in.Now) <= 24*time.Hour {
						priority = models.PriorityHigh
					}
					emit(models.AlertUpcoming, priority, task, student)
				}
				continue
			}
			if sub.Status == models.SubmissionStatusPending && in.Viewer.Role == models.RoleTeacher && task.TeacherID == in.Viewer.ID {
				emit(models.AlertPendingReview, models.PriorityMedium, task, student)
			}
		}
	}

	alerts := make([]models.Alert, 0, len(seen))
	for _, alert := range seen {
		alerts = append(alerts, alert)
	}
	sort.Slice(alerts, func(i, j int) bool { return lessAlert(alerts[i], alerts[j]) })
	return alerts
}

// SummarizeAlerts derives per-priority counts from an alert list.
func SummarizeAlerts(alerts []models.Alert) models.AlertSummary {
	summary := models.AlertSummary{Total: len(alerts)}
	for _, alert := range alerts {
		switch alert.Priority {
		case models.PriorityHigh:
			summary.High++
		case models.PriorityMedium:
			summary.Medium++
		default:
			summary.Low++
		}
	}
	return summary
}

func lessAlert(left, right models.Alert) bool {
	if left.Priority.Rank() != right.Priority.Rank() {
		return left.Priority.Rank() < right.Priority.Rank()
	}
	switch {
	case left.DueDate == nil && right.DueDate != nil:
		return false
	case left.DueDate != nil && right.DueDate == nil:
		return true
	case left.DueDate != nil && !left.DueDate.Equal(*right.DueDate):
		return left.DueDate.Before(*right.DueDate)
	}
	if left.Type != right.Type {
		return left.Type < right.Type
	}
	if left.TaskID != right.TaskID {
		return left.TaskID < right.TaskID
	}
	return left.StudentID < right.StudentID
}

func alertID(key alertKey) string {
	name := string(key.alertType) + "|" + key.taskID + "|" + key.studentID
	return uuid.NewSHA1(alertNamespace, []byte(name)).String()
}

func subjectNameOf(task models.Task, subjects map[string]models.Subject) string {
	if task.SubjectID == nil {
		return UnassignedSubjectName
	}
	if subject, ok := subjects[*task.SubjectID]; ok {
		return subject.Name
	}
	return *task.SubjectID
}
