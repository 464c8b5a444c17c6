package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sma-insights-api/internal/models"
	appErrors "github.com/noah-isme/sma-insights-api/pkg/errors"
)

type fakeScopeStudents struct {
	byParent  map[string][]string
	byTeacher map[string][]string
	bySchool  map[string][]string
	byGroup   map[string][]string
	err       error
}

func (f *fakeScopeStudents) IDsByParent(_ context.Context, id string) ([]string, error) {
	return f.byParent[id], f.err
}

func (f *fakeScopeStudents) IDsByTeacher(_ context.Context, id string) ([]string, error) {
	return f.byTeacher[id], f.err
}

func (f *fakeScopeStudents) IDsBySchool(_ context.Context, id string) ([]string, error) {
	return f.bySchool[id], f.err
}

func (f *fakeScopeStudents) IDsByGroup(_ context.Context, id string) ([]string, error) {
	return f.byGroup[id], f.err
}

type fakeGroupStore struct {
	groups map[string]models.Group
}

func (f *fakeGroupStore) FindByID(_ context.Context, id string) (*models.Group, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &group, nil
}

func (f *fakeGroupStore) IDsByTeacher(_ context.Context, teacherID string) ([]string, error) {
	var ids []string
	for _, group := range f.groups {
		if group.TeacherID == teacherID {
			ids = append(ids, group.ID)
		}
	}
	return ids, nil
}

type fakeAcademicStore struct {
	students    []models.Student
	tasks       []models.Task
	submissions []models.Submission
	subjects    []models.Subject
	err         error
}

func (f *fakeAcademicStore) ListByIDs(_ context.Context, ids []string) ([]models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var result []models.Student
	for _, student := range f.students {
		if _, ok := wanted[student.ID]; ok {
			result = append(result, student)
		}
	}
	return result, nil
}

func (f *fakeAcademicStore) ListByGroups(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	groups := make(map[string]struct{}, len(filter.GroupIDs))
	for _, id := range filter.GroupIDs {
		groups[id] = struct{}{}
	}
	var result []models.Task
	for _, task := range f.tasks {
		if _, ok := groups[task.GroupID]; !ok {
			continue
		}
		for _, status := range filter.Statuses {
			if task.Status == status {
				result = append(result, task)
				break
			}
		}
	}
	return result, nil
}

func (f *fakeAcademicStore) ListByStudents(_ context.Context, ids []string) ([]models.Submission, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var result []models.Submission
	for _, sub := range f.submissions {
		if _, ok := wanted[sub.StudentID]; ok {
			result = append(result, sub)
		}
	}
	return result, nil
}

func (f *fakeAcademicStore) ListBySchools(_ context.Context, _ []string) ([]models.Subject, error) {
	return f.subjects, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.NotificationEvent
	err    error
}

func (r *recordingNotifier) Publish(_ context.Context, event models.NotificationEvent) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func schoolFixture() (*fakeScopeStudents, *fakeGroupStore) {
	students := &fakeScopeStudents{
		byParent:  map[string][]string{"parent-1": {"stu-ana", "stu-ana"}, "parent-2": {"stu-ben"}},
		byTeacher: map[string][]string{"t-1": {"stu-ben", "stu-ana"}},
		bySchool:  map[string][]string{"school-1": {"stu-ana", "stu-ben", "stu-cai"}},
		byGroup:   map[string][]string{"grp-1": {"stu-ana", "stu-ben"}, "grp-2": {"stu-cai"}},
	}
	groups := &fakeGroupStore{groups: map[string]models.Group{
		"grp-1": {ID: "grp-1", SchoolID: "school-1", Name: "1A", TeacherID: "t-1"},
		"grp-2": {ID: "grp-2", SchoolID: "school-1", Name: "1B", TeacherID: "t-2"},
		"grp-x": {ID: "grp-x", SchoolID: "school-9", Name: "9Z", TeacherID: "t-9"},
	}}
	return students, groups
}
