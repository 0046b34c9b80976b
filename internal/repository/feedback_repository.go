package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coursekit/planner-api/internal/models"
)

// FeedbackRepository persists feedback widget submissions.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

const feedbackColumns = "id, user_id, rating, comment, path, user_agent, created_at"

// Create stores a feedback submission.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	feedback.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO feedback (id, user_id, rating, comment, path, user_agent, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, feedback.ID, feedback.UserID, feedback.Rating, feedback.Comment, feedback.Path, feedback.UserAgent, feedback.CreatedAt); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// List returns feedback entries for the admin view.
func (r *FeedbackRepository) List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error) {
	base := "FROM feedback WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", len(args)+1))
		args = append(args, *filter.MinRating)
	}
	if filter.MaxRating != nil {
		conditions = append(conditions, fmt.Sprintf("rating <= $%d", len(args)+1))
		args = append(args, *filter.MaxRating)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy != "rating" && sortBy != "created_at" {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", feedbackColumns, base, sortBy, order, size, offset)
	var entries []models.Feedback
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	return entries, total, nil
}
