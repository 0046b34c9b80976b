package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	"github.com/coursekit/planner-api/internal/service"
)

type courseRepoFake struct {
	courses map[string]*models.Course
}

func (f courseRepoFake) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, course := range f.courses {
		out = append(out, *course)
	}
	return out, len(out), nil
}

func (f courseRepoFake) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := f.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

func (f courseRepoFake) ListSubjects(ctx context.Context) ([]string, error) {
	return []string{"CS"}, nil
}

func newCourseHandlerFixture() *CourseHandler {
	courses := courseRepoFake{courses: map[string]*models.Course{
		"cs-1332": {
			ID: "cs-1332", Subject: "CS", Number: "1332", Title: "Data Structures",
			Prerequisites: []byte(`{"id": "CS 1331", "grade": "C"}`),
		},
	}}
	sections := sectionReaderFake{sections: map[string]models.Section{}}
	svc := service.NewCatalogService(courses, sections, nil, zap.NewNop())
	return NewCourseHandler(svc)
}

func TestCourseHandlerGetDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/cs-1332?term=term-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "cs-1332"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.CourseDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "CS 1331", envelope.Data.PrereqText)
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/nope", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCourseHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/courses?subject=CS&page=1&limit=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data       []models.Course    `json:"data"`
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 10, envelope.Pagination.PageSize)
}
