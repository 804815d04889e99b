package models

import (
	"strings"
	"time"

	"meetslot/internal/scheduling"
)

// Event represents a standard calendar event.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	ID          string    // Unique identifier for the event (e.g., from the source calendar)
	Title       string    // Summary or title of the event
	Description string    // Detailed description of the event
	StartTime   time.Time // Start time of the event
	EndTime     time.Time // End time of the event
	Location    string    // Location of the event
	Organizer   string    // Organizer's email
	Attendees   []string  // Normalized attendee ids (see NormalizeAttendee)
	Source      string    // The source of the event (e.g., "google-primary")
	UID         string    // The iCalendar UID
	AllDay      bool      // Date-only event
	Transparent bool      // Marked as "free", does not block anyone
}

// NormalizeAttendee turns "MAILTO:Alice@Example.com" and "alice@example.com"
// into the same id.
func NormalizeAttendee(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= len("mailto:") && strings.EqualFold(s[:len("mailto:")], "mailto:") {
		s = s[len("mailto:"):]
	}
	return strings.ToLower(s)
}

// AddAttendee appends id unless the event already lists it.
func (e *Event) AddAttendee(id string) {
	id = NormalizeAttendee(id)
	if id == "" {
		return
	}
	for _, a := range e.Attendees {
		if a == id {
			return
		}
	}
	e.Attendees = append(e.Attendees, id)
}

// DayBounds returns local midnight of day and of the following day, in day's location.
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

// DayRange clips the event to the day containing day and returns the covered
// minutes. The boolean is false when nothing of the event falls on that day.
func (e *Event) DayRange(day time.Time) (scheduling.TimeRange, bool) {
	dayStart, dayEnd := DayBounds(day)
	start, end := e.StartTime, e.EndTime
	if start.Before(dayStart) {
		start = dayStart
	}
	if end.After(dayEnd) {
		end = dayEnd
	}
	if !start.Before(end) {
		return scheduling.TimeRange{}, false
	}

	startMin := minutesSince(dayStart, start, false)
	endMin := minutesSince(dayStart, end, true)
	if endMin > scheduling.WholeDay.End() {
		endMin = scheduling.WholeDay.End()
	}
	if startMin >= endMin {
		return scheduling.TimeRange{}, false
	}
	return scheduling.FromStartEnd(startMin, endMin, false), true
}

// minutesSince counts whole minutes from dayStart to t. Partial minutes round
// outward so a clipped event never shrinks.
func minutesSince(dayStart, t time.Time, roundUp bool) int {
	d := t.Sub(dayStart)
	m := int(d / time.Minute)
	if roundUp && d%time.Minute != 0 {
		m++
	}
	return m
}

// ToScheduling projects events onto the day containing day. Transparent
// events and events that miss the day are dropped.
func ToScheduling(events []*Event, day time.Time) []scheduling.Event {
	out := make([]scheduling.Event, 0, len(events))
	for _, e := range events {
		if e == nil || e.Transparent {
			continue
		}
		when, ok := e.DayRange(day)
		if !ok {
			continue
		}
		attendees := make(scheduling.AttendeeSet, len(e.Attendees))
		for _, a := range e.Attendees {
			attendees[NormalizeAttendee(a)] = struct{}{}
		}
		out = append(out, scheduling.Event{Title: e.Title, When: when, Attendees: attendees})
	}
	return out
}
