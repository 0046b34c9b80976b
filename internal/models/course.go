package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Course is one catalog entry, identified by subject and number ("CS 1331").
type Course struct {
	ID            string         `db:"id" json:"id"`
	Subject       string         `db:"subject" json:"subject"`
	Number        string         `db:"number" json:"number"`
	Title         string         `db:"title" json:"title"`
	Credits       int            `db:"credits" json:"credits"`
	Description   string         `db:"description" json:"description"`
	Prerequisites types.JSONText `db:"prerequisites" json:"prerequisites,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseDetail joins a course with its sections and the rendered prerequisite
// string for detail views.
type CourseDetail struct {
	Course
	PrereqText string    `json:"prereq_text,omitempty"`
	Sections   []Section `json:"sections"`
}

// CourseFilter describes query params for listing catalog courses.
type CourseFilter struct {
	TermID    string
	Subject   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
