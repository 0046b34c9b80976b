package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/coursekit/planner-api/internal/models"
)

// CourseRepository provides read access to the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "id, subject, number, title, credits, description, prerequisites, created_at, updated_at"

// List returns catalog courses with optional filtering and pagination.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("subject = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Subject))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(subject || ' ' || number ILIKE $%d OR title ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM sections s WHERE s.course_id = courses.id AND s.term_id = $%d)", len(args)+1))
		args = append(args, filter.TermID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"subject":    true,
		"number":     true,
		"title":      true,
		"credits":    true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "subject"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, number ASC LIMIT %d OFFSET %d", courseColumns, base, sortBy, order, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// FindByID loads a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListSubjects returns the distinct subject codes present in the catalog.
func (r *CourseRepository) ListSubjects(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT subject FROM courses ORDER BY subject ASC`
	var subjects []string
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
