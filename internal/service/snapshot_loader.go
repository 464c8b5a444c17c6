package service

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

// StudentReader loads student records.
type StudentReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// TaskReader loads tasks by group.
type TaskReader interface {
	ListByGroups(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
}

// SubmissionReader loads submissions by student.
type SubmissionReader interface {
	ListByStudents(ctx context.Context, studentIDs []string) ([]models.Submission, error)
}

// SubjectReader loads subjects by school.
type SubjectReader interface {
	ListBySchools(ctx context.Context, schoolIDs []string) ([]models.Subject, error)
}

// AcademicSnapshot is the read-only record set aggregation runs on.
type AcademicSnapshot struct {
	Students    []models.Student
	Tasks       []models.Task
	Submissions []models.Submission
	Subjects    map[string]models.Subject
}

// SnapshotLoader fetches the records behind a scope, issuing independent reads concurrently.
type SnapshotLoader struct {
	students    StudentReader
	tasks       TaskReader
	submissions SubmissionReader
	subjects    SubjectReader
	metrics     *MetricsService
}

// NewSnapshotLoader constructs a SnapshotLoader.
func NewSnapshotLoader(students StudentReader, tasks TaskReader, submissions SubmissionReader, subjects SubjectReader, metrics *MetricsService) *SnapshotLoader {
	return &SnapshotLoader{students: students, tasks: tasks, submissions: submissions, subjects: subjects, metrics: metrics}
}

var reportableStatuses = []models.TaskStatus{models.TaskStatusPublished, models.TaskStatusClosed}

// Load reads students of the scope followed by their tasks, submissions and subjects in parallel.
func (l *SnapshotLoader) Load(ctx context.Context, scope Scope) (*AcademicSnapshot, error) {
	snapshot := &AcademicSnapshot{Subjects: map[string]models.Subject{}}
	if scope.Empty() {
		return snapshot, nil
	}

	start := time.Now()
	students, err := l.students.ListByIDs(ctx, scope.StudentIDs)
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	l.observe("snapshot_students", start)
	snapshot.Students = students
	if len(students) == 0 {
		return snapshot, nil
	}

	groupIDs, schoolIDs := distinctGroupsAndSchools(students)
	studentIDs := make([]string, 0, len(students))
	for _, student := range students {
		studentIDs = append(studentIDs, student.ID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		tasks, err := l.tasks.ListByGroups(gctx, models.TaskFilter{GroupIDs: groupIDs, Statuses: reportableStatuses})
		if err != nil {
			return err
		}
		l.observe("snapshot_tasks", start)
		snapshot.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		subs, err := l.submissions.ListByStudents(gctx, studentIDs)
		if err != nil {
			return err
		}
		l.observe("snapshot_submissions", start)
		snapshot.Submissions = subs
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		subjects, err := l.subjects.ListBySchools(gctx, schoolIDs)
		if err != nil {
			return err
		}
		l.observe("snapshot_subjects", start)
		for _, subject := range subjects {
			snapshot.Subjects[subject.ID] = subject
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, internalError(err, "failed to load academic records")
	}
	return snapshot, nil
}

func (l *SnapshotLoader) observe(label string, start time.Time) {
	if l.metrics != nil {
		l.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

func distinctGroupsAndSchools(students []models.Student) ([]string, []string) {
	groups := make(map[string]struct{})
	schools := make(map[string]struct{})
	for _, student := range students {
		groups[student.GroupID] = struct{}{}
		schools[student.SchoolID] = struct{}{}
	}
	return sortedKeys(groups), sortedKeys(schools)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		if key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
