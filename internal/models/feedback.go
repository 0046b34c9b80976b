package models

import "time"

// Feedback is one submission from the in-app feedback widget: a 0-5 rating
// plus free-form comment. UserID is nil for anonymous submissions.
type Feedback struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	Path      string    `db:"path" json:"path"`
	UserAgent string    `db:"user_agent" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeedbackFilter describes query params for the admin feedback listing.
type FeedbackFilter struct {
	MinRating *int
	MaxRating *int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
