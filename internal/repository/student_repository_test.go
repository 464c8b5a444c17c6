package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentIDsBySchool(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students WHERE school_id = $1 AND active = TRUE ORDER BY id")).
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-ana").AddRow("stu-ben"))

	ids, err := repo.IDsBySchool(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"stu-ana", "stu-ben"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentIDsByParent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("JOIN student_parents sp ON sp.student_id = s.id").
		WithArgs("parent-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("stu-ana"))

	ids, err := repo.IDsByParent(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"stu-ana"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentIDsByTeacherWrapsErrors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	boom := errors.New("connection refused")
	mock.ExpectQuery("JOIN groups g ON g.id = s.group_id").WithArgs("t-1").WillReturnError(boom)

	_, err := repo.IDsByTeacher(context.Background(), "t-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "list students by teacher")
}

func TestStudentListByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "group_id", "full_name", "active"}).
		AddRow("stu-ana", "school-1", "grp-1", "Ana Ruiz", true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = ANY($1) AND active = TRUE")).
		WillReturnRows(rows)

	students, err := repo.ListByIDs(context.Background(), []string{"stu-ana"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ana Ruiz", students[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentListByIDsEmptyInput(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	students, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}
