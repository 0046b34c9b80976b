package export

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is one weekly-recurring entry destined for an iCalendar file.
// Start and End carry the first occurrence as floating local times; RepeatDays
// uses iCalendar BYDAY codes and Until bounds the recurrence.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	RepeatDays  []string
	Until       time.Time
}

// ICSExporter serializes calendar events through the golang-ical library; the
// iCalendar wire format itself is the library's concern.
type ICSExporter struct {
	ProductID string
}

// NewICSExporter builds an ICS exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{ProductID: "-//coursekit//planner-api//EN"}
}

const icsTimeLayout = "20060102T150405"

// Render produces the serialized calendar.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("ics requires at least one event")
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.ProductID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(time.Now().UTC())
		event.SetSummary(ev.Summary)
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			event.SetLocation(ev.Location)
		}
		// Floating local times: schedule data is wall clock, not zoned.
		event.SetProperty(ics.ComponentPropertyDtStart, ev.Start.Format(icsTimeLayout))
		event.SetProperty(ics.ComponentPropertyDtEnd, ev.End.Format(icsTimeLayout))
		if len(ev.RepeatDays) > 0 && !ev.Until.IsZero() {
			event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
				strings.Join(ev.RepeatDays, ","), ev.Until.UTC().Format(icsTimeLayout)+"Z"))
		}
	}

	return []byte(cal.Serialize()), nil
}
