package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-insights-api/internal/models"
)

func academicFixture() *fakeAcademicStore {
	due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	ben := models.Student{ID: "stu-ben", SchoolID: "school-1", GroupID: "grp-1", FullName: "Ben Soto", Active: true}
	return &fakeAcademicStore{
		students: []models.Student{studentAna, ben},
		tasks: []models.Task{
			publishedTask("a1", "subj-a", due, 100),
			publishedTask("a2", "subj-a", due, 100),
			publishedTask("b1", "subj-b", due, 100),
		},
		submissions: []models.Submission{
			reviewed("a1", studentAna.ID, 80, due),
			reviewed("a2", studentAna.ID, 90, due),
			pending("b1", studentAna.ID, due),
			reviewed("a1", ben.ID, 40, due),
		},
		subjects: []models.Subject{
			{ID: "subj-a", SchoolID: "school-1", Name: "Algebra", Color: "#2563EB"},
			{ID: "subj-b", SchoolID: "school-1", Name: "Biologia", Color: "#16A34A"},
		},
	}
}

func newGradesFixture() *GradesService {
	students, groups := schoolFixture()
	store := academicFixture()
	loader := NewSnapshotLoader(store, store, store, store, nil)
	return NewGradesService(NewAccessScoper(students, groups, nil), loader, DefaultPolicy(), nil)
}

func TestGradesServiceStudentGradesScenario(t *testing.T) {
	svc := newGradesFixture()

	view, err := svc.StudentGrades(context.Background(), parentOne, "stu-ana")

	require.NoError(t, err)
	require.NotNil(t, view.OverallAverage)
	assert.Equal(t, 85.0, *view.OverallAverage)
	require.Len(t, view.Subjects, 2)
	assert.Equal(t, 85.0, *view.Subjects[0].Average)
	assert.Nil(t, view.Subjects[1].Average)
	assert.Equal(t, 100.0, view.CompletionRate)
	assert.Equal(t, 2, view.TotalGradedTasks)
}

func TestGradesServiceForbidsOtherFamily(t *testing.T) {
	svc := newGradesFixture()

	_, err := svc.StudentGrades(context.Background(), parentOne, "stu-ben")

	assertForbidden(t, err)
}

func TestGradesServiceListEmptyScope(t *testing.T) {
	svc := newGradesFixture()

	list, err := svc.ListStudentGrades(context.Background(), models.Caller{ID: "parent-9", Role: models.RoleParent, SchoolID: "school-1"}, "")

	require.NoError(t, err)
	assert.True(t, list.Empty)
	assert.Empty(t, list.Students)
}

func TestGradesServiceListForTeacher(t *testing.T) {
	svc := newGradesFixture()

	list, err := svc.ListStudentGrades(context.Background(), teacherT1, "grp-1")

	require.NoError(t, err)
	assert.False(t, list.Empty)
	require.Len(t, list.Students, 2)
	ben := list.Students[1]
	assert.Equal(t, "stu-ben", ben.StudentID)
	require.NotNil(t, ben.OverallAverage)
	assert.Equal(t, 40.0, *ben.OverallAverage)
}

func TestGradesServiceProgressHighlights(t *testing.T) {
	svc := newGradesFixture()

	progress, err := svc.Progress(context.Background(), teacherT1, "stu-ben")

	require.NoError(t, err)
	assert.False(t, progress.Empty)
	require.Len(t, progress.AreasOfConcern, 1)
	assert.Equal(t, "Algebra", progress.AreasOfConcern[0].SubjectName)
	assert.Empty(t, progress.Strengths)
}

func TestGradesServiceRequiresStudentID(t *testing.T) {
	svc := newGradesFixture()

	_, err := svc.Progress(context.Background(), parentOne, "")

	require.Error(t, err)
}
