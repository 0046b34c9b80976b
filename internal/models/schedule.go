package models

import (
	"time"

	"github.com/lib/pq"
)

// Schedule is a student's saved selection of sections for one term.
type Schedule struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	TermID    string         `db:"term_id" json:"term_id"`
	Name      string         `db:"name" json:"name"`
	CRNs      pq.StringArray `db:"crns" json:"crns"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleDetail joins a saved schedule with its resolved sections.
type ScheduleDetail struct {
	Schedule
	Sections []Section `json:"sections"`
}

// ScheduleFilter describes query params for listing a user's schedules.
type ScheduleFilter struct {
	UserID    string
	TermID    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateScheduleRequest creates a new saved schedule.
type CreateScheduleRequest struct {
	TermID string   `json:"term_id" validate:"required"`
	Name   string   `json:"name" validate:"required,max=120"`
	CRNs   []string `json:"crns" validate:"omitempty,dive,required"`
}

// UpdateScheduleRequest renames a schedule or replaces its section list.
type UpdateScheduleRequest struct {
	Name *string   `json:"name,omitempty" validate:"omitempty,max=120"`
	CRNs *[]string `json:"crns,omitempty" validate:"omitempty,dive,required"`
}

// AddSectionRequest adds one section to a saved schedule.
type AddSectionRequest struct {
	CRN string `json:"crn" validate:"required"`
}

// ScheduleConflictError is returned when adding a section would collide with
// one already on the schedule.
type ScheduleConflictError struct {
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Conflicts []SectionConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
