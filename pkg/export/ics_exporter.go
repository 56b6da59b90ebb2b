package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is a single VEVENT in an exported calendar.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Category    string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders events as an iCalendar (RFC 5545) document.
type ICSExporter struct {
	productID string
	now       func() time.Time
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{productID: "-//academy-api//weekly-schedule//EN", now: time.Now}
}

// Render serialises the events into a published calendar named name.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := e.now().UTC()
	for _, ev := range events {
		if !ev.End.After(ev.Start) {
			return nil, fmt.Errorf("event %s ends before it starts", ev.UID)
		}
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(ev.Start)
		event.SetEndAt(ev.End)
		event.SetSummary(ev.Summary)
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
		if ev.Category != "" {
			event.AddProperty(ics.ComponentPropertyCategories, ev.Category)
		}
	}
	return []byte(cal.Serialize()), nil
}
