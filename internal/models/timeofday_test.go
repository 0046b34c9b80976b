package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
	}{
		{"2:30 pm", 870},
		{"2:30pm", 870},
		{"2:30 PM", 870},
		{"12:00 am", 0},
		{"12:00 pm", 720},
		{"9:05 am", 545},
		{"11:59 pm", 1439},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseTimeOfDayRejectsMalformed(t *testing.T) {
	for _, in := range []string{"invalid", "", "25:00 pm", "2:75 pm", "2 pm", "14:00"} {
		_, err := ParseTimeOfDay(in)
		assert.Error(t, err, in)
	}
}

func TestParseTimeOfDayLenientFallsBackToMidnight(t *testing.T) {
	assert.Equal(t, TimeOfDay(0), ParseTimeOfDayLenient("invalid"))
	assert.Equal(t, TimeOfDay(870), ParseTimeOfDayLenient("2:30 pm"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12:00am", TimeOfDay(0).Format(true))
	assert.Equal(t, "12:00pm", TimeOfDay(720).Format(true))
	assert.Equal(t, "2:30pm", TimeOfDay(870).Format(true))
	assert.Equal(t, "2:30", TimeOfDay(870).Format(false))
	assert.Equal(t, "9:05am", TimeOfDay(545).Format(true))
}

func TestFormatShort(t *testing.T) {
	assert.Equal(t, "2pm", TimeOfDay(870).FormatShort())
	assert.Equal(t, "9am", TimeOfDay(540).FormatShort())
	assert.Equal(t, "12am", TimeOfDay(0).FormatShort())
	assert.Equal(t, "12pm", TimeOfDay(720).FormatShort())
}

func TestFormatParseRoundTrip(t *testing.T) {
	// Every canonical "h:mm am|pm" string survives a parse/format cycle.
	for minutes := 0; minutes < MinutesPerDay; minutes += 5 {
		rendered := TimeOfDay(minutes).Format(true)
		parsed, err := ParseTimeOfDay(rendered)
		require.NoError(t, err, rendered)
		assert.Equal(t, TimeOfDay(minutes), parsed, rendered)
	}
}

func TestPeriodString(t *testing.T) {
	p := &Period{Start: 540, End: 590}
	assert.Equal(t, "9:00 - 9:50am", p.String())

	var missing *Period
	assert.Equal(t, "TBA", missing.String())
}

func TestPeriodOverlaps(t *testing.T) {
	morning := Period{Start: 540, End: 590}

	assert.False(t, morning.Overlaps(Period{Start: 590, End: 640}), "touching endpoints do not overlap")
	assert.False(t, (Period{Start: 590, End: 640}).Overlaps(morning))
	assert.True(t, morning.Overlaps(Period{Start: 570, End: 620}))
	assert.True(t, (Period{Start: 570, End: 620}).Overlaps(morning))
	assert.True(t, morning.Overlaps(morning))
}
