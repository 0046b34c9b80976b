package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/coursekit/planner-api/internal/models"
)

// SectionRepository provides read access to course sections. Meeting patterns
// live in a JSONB column and are decoded into the in-memory model on load.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new section repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

type sectionRow struct {
	models.Section
	MeetingsJSON types.JSONText `db:"meetings"`
}

const sectionColumns = "crn, course_id, term_id, code, instructor, campus, credits, meetings, created_at, updated_at"

func (row sectionRow) toSection() (models.Section, error) {
	section := row.Section
	if len(row.MeetingsJSON) > 0 {
		if err := json.Unmarshal(row.MeetingsJSON, &section.Meetings); err != nil {
			return models.Section{}, fmt.Errorf("decode meetings for crn %s: %w", row.CRN, err)
		}
	}
	return section, nil
}

// ListByCourse returns the sections offered for a course within a term.
func (r *SectionRepository) ListByCourse(ctx context.Context, courseID, termID string) ([]models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE course_id = $1 AND term_id = $2 ORDER BY code ASC", sectionColumns)
	var rows []sectionRow
	if err := r.db.SelectContext(ctx, &rows, query, courseID, termID); err != nil {
		return nil, fmt.Errorf("list sections by course: %w", err)
	}
	return decodeSections(rows)
}

// FindByCRN loads a single section by term and CRN.
func (r *SectionRepository) FindByCRN(ctx context.Context, termID, crn string) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE term_id = $1 AND crn = $2", sectionColumns)
	var row sectionRow
	if err := r.db.GetContext(ctx, &row, query, termID, crn); err != nil {
		return nil, err
	}
	section, err := row.toSection()
	if err != nil {
		return nil, err
	}
	return &section, nil
}

// FindByCRNs loads the sections for a set of CRNs within a term. Missing CRNs
// are silently absent from the result; the caller decides whether that is an
// error.
func (r *SectionRepository) FindByCRNs(ctx context.Context, termID string, crns []string) ([]models.Section, error) {
	if len(crns) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM sections WHERE term_id = $1 AND crn = ANY($2) ORDER BY crn ASC", sectionColumns)
	var rows []sectionRow
	if err := r.db.SelectContext(ctx, &rows, query, termID, pq.Array(crns)); err != nil {
		return nil, fmt.Errorf("find sections by crns: %w", err)
	}
	return decodeSections(rows)
}

func decodeSections(rows []sectionRow) ([]models.Section, error) {
	sections := make([]models.Section, 0, len(rows))
	for _, row := range rows {
		section, err := row.toSection()
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}
