package models

import (
	"strings"
	"time"
)

// Weekday codes follow the catalog's single-letter convention. Thursday is R
// so every weekday stays one character; the catalog carries no weekend
// meetings.
const (
	DayMonday    = 'M'
	DayTuesday   = 'T'
	DayWednesday = 'W'
	DayThursday  = 'R'
	DayFriday    = 'F'
)

// WeekdayCodes lists the valid codes in week order.
const WeekdayCodes = "MTWRF"

// Meeting is one recurring weekly occurrence of a period on a set of
// weekdays, valid between DateStart and DateEnd. A nil Period marks an
// untimed (TBA) meeting.
type Meeting struct {
	Days      string    `json:"days"`
	Period    *Period   `json:"period,omitempty"`
	Location  string    `json:"location,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	DateStart time.Time `json:"date_start"`
	DateEnd   time.Time `json:"date_end"`
}

// Timed reports whether the meeting has a concrete period. Untimed meetings
// never participate in conflict tests.
func (m Meeting) Timed() bool {
	return m.Period != nil
}

// SharesDay reports whether both meetings occur on at least one common
// weekday.
func (m Meeting) SharesDay(other Meeting) bool {
	for _, day := range m.Days {
		if strings.ContainsRune(other.Days, day) {
			return true
		}
	}
	return false
}

// ConflictsWith reports whether the two meetings collide: a shared weekday
// and overlapping periods. Either meeting being untimed means no conflict.
func (m Meeting) ConflictsWith(other Meeting) bool {
	if !m.Timed() || !other.Timed() {
		return false
	}
	return m.SharesDay(other) && m.Period.Overlaps(*other.Period)
}

// Section is one offering of a course: an ordered sequence of meetings,
// immutable once loaded from the catalog.
type Section struct {
	CRN        string    `db:"crn" json:"crn"`
	CourseID   string    `db:"course_id" json:"course_id"`
	TermID     string    `db:"term_id" json:"term_id"`
	Code       string    `db:"code" json:"code"`
	Instructor string    `db:"instructor" json:"instructor"`
	Campus     string    `db:"campus" json:"campus"`
	Credits    int       `db:"credits" json:"credits"`
	Meetings   []Meeting `db:"-" json:"meetings"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ConflictsWith reports whether any meeting of s collides with any meeting of
// other. A single overlapping pair is enough; the test is symmetric in its
// arguments.
func (s Section) ConflictsWith(other Section) bool {
	for _, a := range s.Meetings {
		for _, b := range other.Meetings {
			if a.ConflictsWith(b) {
				return true
			}
		}
	}
	return false
}

// SectionConflict names one overlapping pair found while validating a
// schedule.
type SectionConflict struct {
	CRN         string `json:"crn"`
	OtherCRN    string `json:"other_crn"`
	Days        string `json:"days"`
	Period      string `json:"period"`
	OtherDays   string `json:"other_days"`
	OtherPeriod string `json:"other_period"`
}

// SectionFilter describes query params for listing sections.
type SectionFilter struct {
	TermID     string
	CourseID   string
	Instructor string
	Campus     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
