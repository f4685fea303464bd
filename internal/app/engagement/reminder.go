package engagement

import (
	"strings"
	"time"

	"github.com/relook-app/relook/internal/domain"
)

// defaultEventHour is used when an event carries a date but no time.
const defaultEventHour = 9

var eventDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

var eventTimeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3 PM",
	"3PM",
}

// ParseEventTime resolves an event's date and optional time into a due
// time in loc. An RFC 3339 date wins over the separate time field.
// Returns false when the date is missing or unparseable.
func ParseEventTime(ev domain.EventPayload, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	date := strings.TrimSpace(ev.Date)
	if date == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t.In(loc), true
	}

	var day time.Time
	ok := false
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, date, loc); err == nil {
			day, ok = t, true
			break
		}
	}
	if !ok {
		return time.Time{}, false
	}

	hour, minute := defaultEventHour, 0
	if clock := strings.ToUpper(strings.TrimSpace(ev.Time)); clock != "" {
		for _, layout := range eventTimeLayouts {
			if t, err := time.Parse(layout, clock); err == nil {
				hour, minute = t.Hour(), t.Minute()
				break
			}
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), true
}
