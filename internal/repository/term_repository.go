package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/coursekit/planner-api/internal/models"
)

// TermRepository provides read access to academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository creates a new term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = "id, code, name, start_date, end_date, current, created_at, updated_at"

// List returns all known terms, newest first.
func (r *TermRepository) List(ctx context.Context) ([]models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms ORDER BY start_date DESC", termColumns)
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

// FindByID loads a term by id.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindCurrent loads the term flagged as the active registration term.
func (r *TermRepository) FindCurrent(ctx context.Context) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE current = TRUE ORDER BY start_date DESC LIMIT 1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query); err != nil {
		return nil, err
	}
	return &term, nil
}
