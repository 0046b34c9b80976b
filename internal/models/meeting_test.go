package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func timedMeeting(days string, start, end TimeOfDay) Meeting {
	return Meeting{Days: days, Period: &Period{Start: start, End: end}}
}

func TestMeetingSharesDay(t *testing.T) {
	assert.True(t, timedMeeting("MWF", 0, 1).SharesDay(timedMeeting("F", 0, 1)))
	assert.False(t, timedMeeting("MW", 0, 1).SharesDay(timedMeeting("TR", 0, 1)))
	assert.False(t, Meeting{Days: ""}.SharesDay(timedMeeting("MWF", 0, 1)))
}

func TestSectionConflictsTouchingBoundary(t *testing.T) {
	// Mon/Wed 9:00-9:50 against Mon/Wed 9:50-10:40: back to back, no overlap.
	a := Section{CRN: "80001", Meetings: []Meeting{timedMeeting("MW", 540, 590)}}
	b := Section{CRN: "80002", Meetings: []Meeting{timedMeeting("MW", 590, 640)}}

	assert.False(t, a.ConflictsWith(b))
	assert.False(t, b.ConflictsWith(a))
}

func TestSectionConflictsOverlap(t *testing.T) {
	a := Section{CRN: "80001", Meetings: []Meeting{timedMeeting("MW", 540, 590)}}
	c := Section{CRN: "80003", Meetings: []Meeting{timedMeeting("M", 570, 620)}}

	assert.True(t, a.ConflictsWith(c))
	assert.True(t, c.ConflictsWith(a), "conflict test is commutative")
}

func TestSectionConflictsDisjointDays(t *testing.T) {
	a := Section{Meetings: []Meeting{timedMeeting("MW", 540, 590)}}
	b := Section{Meetings: []Meeting{timedMeeting("TR", 540, 590)}}

	assert.False(t, a.ConflictsWith(b))
}

func TestUntimedSectionNeverConflicts(t *testing.T) {
	tba := Section{CRN: "80004", Meetings: []Meeting{{Days: "MWF"}}}
	timed := Section{CRN: "80005", Meetings: []Meeting{timedMeeting("MWF", 0, MinutesPerDay)}}

	assert.False(t, tba.ConflictsWith(timed))
	assert.False(t, timed.ConflictsWith(tba))
	assert.False(t, tba.ConflictsWith(tba))
}

func TestSectionConflictsAnyMeetingPair(t *testing.T) {
	// Lecture misses, lab hits: a single overlapping pair is enough.
	a := Section{Meetings: []Meeting{
		timedMeeting("MW", 540, 590),
		timedMeeting("F", 600, 770),
	}}
	b := Section{Meetings: []Meeting{
		timedMeeting("TR", 540, 590),
		timedMeeting("F", 700, 750),
	}}

	assert.True(t, a.ConflictsWith(b))
	assert.True(t, b.ConflictsWith(a))
}
