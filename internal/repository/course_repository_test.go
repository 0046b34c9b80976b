package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekit/planner-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "subject", "number", "title", "credits", "description", "prerequisites", "created_at", "updated_at"})
}

func TestCourseRepositoryListFiltersBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject, number, title, credits, description, prerequisites, created_at, updated_at FROM courses WHERE 1=1 AND subject = $1")).
		WithArgs("CS").
		WillReturnRows(courseRows().
			AddRow("course-1", "CS", "1331", "Intro to Object Oriented Programming", 3, "", []byte("null"), time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE 1=1 AND subject = $1")).
		WithArgs("CS").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{Subject: "cs"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS", courses[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, subject, number, title, credits, description, prerequisites, created_at, updated_at FROM courses WHERE id = $1")).
		WithArgs("course-1").
		WillReturnRows(courseRows().
			AddRow("course-1", "CS", "1332", "Data Structures", 3, "", []byte(`["and",{"id":"CS1331"}]`), time.Now(), time.Now()))

	course, err := repo.FindByID(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "1332", course.Number)
	assert.NotEmpty(t, course.Prerequisites)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT subject FROM courses ORDER BY subject ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"subject"}).AddRow("CS").AddRow("MATH"))

	subjects, err := repo.ListSubjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CS", "MATH"}, subjects)
	assert.NoError(t, mock.ExpectationsWereMet())
}
