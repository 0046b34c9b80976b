package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/coursekit/planner-api/internal/models"
)

// ScheduleRepository persists students' saved schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = "id, user_id, term_id, name, crns, created_at, updated_at"

// List returns a user's saved schedules with pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error) {
	base := "FROM schedules WHERE user_id = $1"
	args := []interface{}{filter.UserID}

	if filter.TermID != "" {
		base += fmt.Sprintf(" AND term_id = $%d", len(args)+1)
		args = append(args, filter.TermID)
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "updated_at"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", scheduleColumns, base, sortBy, order, size, offset)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a new schedule.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, user_id, term_id, name, crns, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, schedule.ID, schedule.UserID, schedule.TermID, schedule.Name, pq.Array(schedule.CRNs), schedule.CreatedAt, schedule.UpdatedAt); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update rewrites the schedule's name and section list.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET name = $2, crns = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, schedule.ID, schedule.Name, pq.Array(schedule.CRNs), schedule.UpdatedAt); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM schedules WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
