package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/planner-api/internal/middleware"
	"github.com/coursekit/planner-api/internal/models"
	"github.com/coursekit/planner-api/internal/service"
	"github.com/coursekit/planner-api/pkg/response"
)

// CourseHandler exposes catalog browsing endpoints.
type CourseHandler struct {
	service *service.CatalogService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(svc *service.CatalogService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List catalog courses
// @Description List courses with optional subject, term and search filters
// @Tags Catalog
// @Produce json
// @Param term query string false "Limit to courses with sections in this term"
// @Param subject query string false "Filter by subject code"
// @Param q query string false "Search course code and title"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.TermID = c.Query("term")
	filter.Subject = c.Query("subject")
	filter.Search = c.Query("q")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	courses, pagination, err := h.service.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course detail
// @Description Course with its sections for a term and rendered prerequisites
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Param term query string false "Term to list sections for"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	detail, cacheHit, err := h.service.GetCourseDetail(c.Request.Context(), c.Param("id"), c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, detail, nil, middleware.ExtractMeta(c))
}

// Subjects godoc
// @Summary List subject codes
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CourseHandler) Subjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
