package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/coursekit/planner-api/internal/models"
	appErrors "github.com/coursekit/planner-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListSubjects(ctx context.Context) ([]string, error)
}

type sectionReader interface {
	ListByCourse(ctx context.Context, courseID, termID string) ([]models.Section, error)
	FindByCRN(ctx context.Context, termID, crn string) (*models.Section, error)
	FindByCRNs(ctx context.Context, termID string, crns []string) ([]models.Section, error)
}

// CatalogService serves course catalog reads, backed by an optional Redis
// cache for the hot list/detail paths.
type CatalogService struct {
	courses  courseRepository
	sections sectionReader
	cache    *CacheService
	logger   *zap.Logger
}

// NewCatalogService instantiates CatalogService.
func NewCatalogService(courses courseRepository, sections sectionReader, cache *CacheService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{courses: courses, sections: sections, cache: cache, logger: logger}
}

// ListCourses returns catalog courses with pagination metadata.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

// ListSubjects returns the distinct subject codes in the catalog.
func (s *CatalogService) ListSubjects(ctx context.Context) ([]string, error) {
	subjects, err := s.courses.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// GetCourseDetail returns a course, its sections for the term, and the
// rendered prerequisite string. The boolean reports whether the detail was
// served from cache.
func (s *CatalogService) GetCourseDetail(ctx context.Context, courseID, termID string) (*models.CourseDetail, bool, error) {
	cacheKey := fmt.Sprintf("catalog:course:%s:%s", courseID, termID)
	var cached models.CourseDetail
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	sections, err := s.sections.ListByCourse(ctx, courseID, termID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}

	detail := &models.CourseDetail{Course: *course, Sections: sections}

	clause, err := models.DecodePrereqs(course.Prerequisites)
	if err != nil {
		// Malformed prerequisite feeds should not hide the course itself.
		s.logger.Warn("skipping malformed prerequisites", zap.String("course_id", courseID), zap.Error(err))
	} else if clause != nil {
		detail.PrereqText = models.RenderPrereq(clause, false, false)
	}

	if err := s.cache.Set(ctx, cacheKey, detail, 0); err != nil {
		s.logger.Warn("course detail cache write failed", zap.String("course_id", courseID), zap.Error(err))
	}

	return detail, false, nil
}
