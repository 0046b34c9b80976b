package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TimeOfDay counts minutes since midnight, valid in [0, 1440). All schedule
// comparisons and arithmetic operate on this integer form; wall-clock strings
// only appear at parse and format boundaries.
type TimeOfDay int

// MinutesPerDay bounds a TimeOfDay value.
const MinutesPerDay = 24 * 60

var timeOfDayPattern = regexp.MustCompile(`^\s*(\d{1,2}):(\d{2})\s*([ap])m?\s*$`)

// ParseTimeOfDay converts a wall-clock string such as "2:30 pm" into minutes
// since midnight. The meridiem marker is case-insensitive and reduced to its
// first letter. Input that does not match the pattern returns an error so
// callers can tell midnight from a failed parse.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	m := timeOfDayPattern.FindStringSubmatch(strings.ToLower(raw))
	if m == nil {
		return 0, fmt.Errorf("unrecognized time %q", raw)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", raw)
	}

	total := (hour%12)*60 + minute
	if m[3] == "p" {
		total += 12 * 60
	}
	return TimeOfDay(total), nil
}

// ParseTimeOfDayLenient behaves like ParseTimeOfDay but yields 0 (midnight)
// for malformed input. Catalog feeds occasionally carry blank or garbage time
// cells; the importer treats those rows as midnight rather than dropping them.
func ParseTimeOfDayLenient(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		return 0
	}
	return t
}

// Format renders the value on a 12-hour clock with zero-padded minutes, e.g.
// "2:30pm". Hour 0 and hour 12 both display as 12. When withMeridiem is
// false the am/pm suffix is omitted.
func (t TimeOfDay) Format(withMeridiem bool) string {
	hour, minute := int(t)/60, int(t)%60
	out := fmt.Sprintf("%d:%02d", clockHour(hour), minute)
	if withMeridiem {
		out += meridiem(hour)
	}
	return out
}

// FormatShort produces compact hour-only labels like "2pm" for axis and
// gridline rendering. Minutes are dropped, not rounded.
func (t TimeOfDay) FormatShort() string {
	hour := int(t) / 60
	return fmt.Sprintf("%d%s", clockHour(hour), meridiem(hour))
}

func clockHour(hour int) int {
	h := hour % 12
	if h == 0 {
		return 12
	}
	return h
}

func meridiem(hour int) string {
	if hour < 12 {
		return "am"
	}
	return "pm"
}

// Period is one contiguous interval within a single day, start strictly
// before end.
type Period struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Overlaps reports whether two half-open intervals [Start, End) intersect.
// Touching endpoints do not overlap: a period ending at the exact minute
// another starts leaves no shared minute.
func (p Period) Overlaps(other Period) bool {
	return p.Start < other.End && other.Start < p.End
}

// String renders "<start> - <end>" with the meridiem only on the end time,
// matching how the period appears on schedule cards. A nil period denotes an
// untimed meeting and renders as the TBA placeholder.
func (p *Period) String() string {
	if p == nil {
		return "TBA"
	}
	return p.Start.Format(false) + " - " + p.End.Format(true)
}
