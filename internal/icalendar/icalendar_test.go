package icalendar

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

const teamCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//meetslot//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review-1\r\n" +
	"DTSTAMP:20261001T000000Z\r\n" +
	"DTSTART:20261019T090000Z\r\n" +
	"DTEND:20261019T100000Z\r\n" +
	"SUMMARY:Design review\r\n" +
	"ORGANIZER:mailto:Alice@example.com\r\n" +
	"ATTENDEE;PARTSTAT=ACCEPTED:mailto:alice@example.com\r\n" +
	"ATTENDEE;PARTSTAT=DECLINED:mailto:bob@example.com\r\n" +
	"ATTENDEE:mailto:carol@example.com\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20261001T000000Z\r\n" +
	"DTSTART:20261012T080000Z\r\n" +
	"DTEND:20261012T081500Z\r\n" +
	"RRULE:FREQ=DAILY;COUNT=30\r\n" +
	"EXDATE:20261020T080000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"ATTENDEE:mailto:bob@example.com\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20261001T000000Z\r\n" +
	"RECURRENCE-ID:20261019T080000Z\r\n" +
	"DTSTART:20261019T113000Z\r\n" +
	"DTEND:20261019T114500Z\r\n" +
	"SUMMARY:Standup (moved)\r\n" +
	"ATTENDEE:mailto:bob@example.com\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:offsite\r\n" +
	"DTSTAMP:20261001T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20261019\r\n" +
	"DTEND;VALUE=DATE:20261020\r\n" +
	"SUMMARY:Offsite\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:cancelled\r\n" +
	"DTSTAMP:20261001T000000Z\r\n" +
	"DTSTART:20261019T140000Z\r\n" +
	"DTEND:20261019T150000Z\r\n" +
	"STATUS:CANCELLED\r\n" +
	"SUMMARY:Cancelled\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dayWindow() (time.Time, time.Time) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func TestEvents(t *testing.T) {
	t.Parallel()

	cal, err := Parse(strings.NewReader(teamCalendar))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	start, end := dayWindow()
	events, err := Events(cal, Options{
		Source:      "ics-team",
		Owner:       "MAILTO:dave@example.com",
		WindowStart: start,
		WindowEnd:   end,
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	byTitle := make(map[string]int)
	for i, e := range events {
		byTitle[e.Title] = i
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events (review, moved standup, offsite), got %d: %v", len(events), byTitle)
	}

	review := events[byTitle["Design review"]]
	want := []string{"alice@example.com", "carol@example.com", "dave@example.com"}
	if !slices.Equal(review.Attendees, want) {
		t.Fatalf("expected attendees %v, got %v", want, review.Attendees)
	}
	if review.Organizer != "alice@example.com" || review.Source != "ics-team" {
		t.Fatalf("unexpected review metadata %+v", review)
	}

	moved, ok := byTitle["Standup (moved)"]
	if !ok {
		t.Fatalf("expected the overriding instance to be kept")
	}
	if got := events[moved].StartTime; !got.Equal(time.Date(2026, 10, 19, 11, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected moved standup at 11:30, got %v", got)
	}
	if _, ok := byTitle["Standup"]; ok {
		t.Fatalf("expected the overridden 08:00 standup to be dropped")
	}

	offsite := events[byTitle["Offsite"]]
	if !offsite.AllDay || !offsite.Transparent {
		t.Fatalf("expected offsite to be all-day and transparent, got %+v", offsite)
	}
}

func TestEvents_ExpandsRecurrenceInsideWindow(t *testing.T) {
	t.Parallel()

	cal, err := Parse(strings.NewReader(teamCalendar))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	start := time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	events, err := Events(cal, Options{WindowStart: start, WindowEnd: start.AddDate(0, 0, 1), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 1 || events[0].Title != "Standup" {
		t.Fatalf("expected only the standup occurrence, got %d events", len(events))
	}
	if !events[0].StartTime.Equal(time.Date(2026, 10, 21, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected occurrence at 08:00, got %v", events[0].StartTime)
	}
	if events[0].EndTime.Sub(events[0].StartTime) != 15*time.Minute {
		t.Fatalf("expected occurrence to keep its 15 minute length")
	}

	// EXDATE removes the 20th.
	start = time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	events, err = Events(cal, Options{WindowStart: start, WindowEnd: start.AddDate(0, 0, 1), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected excluded date to be empty, got %d events", len(events))
	}
}

func TestEvents_RejectsInvertedWindow(t *testing.T) {
	t.Parallel()

	cal, err := Parse(strings.NewReader(teamCalendar))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	start, end := dayWindow()
	if _, err := Events(cal, Options{WindowStart: end, WindowEnd: start}); err == nil {
		t.Fatalf("expected error for inverted window")
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "team.ics")
	if err := os.WriteFile(path, []byte(teamCalendar), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	cal, err := ReadFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := len(cal.Events()); got != 5 {
		t.Fatalf("expected 5 VEVENTs, got %d", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.ics")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Parse(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty input")
	}
}
