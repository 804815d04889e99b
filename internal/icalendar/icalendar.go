// Package icalendar turns iCalendar data into models.Event values, expanding
// recurring events inside a time window.
package icalendar

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"meetslot/internal/models"
)

const maxOccurrences = 5000

// Options controls the conversion of one calendar.
type Options struct {
	Source string // recorded on every event
	Owner  string // attendee id added to every event, may be empty

	// Location is used for floating and date-only values. Nil means UTC.
	Location *time.Location

	// Events outside [WindowStart, WindowEnd) are dropped and recurrences
	// are expanded only inside it. A zero window keeps every single event
	// and skips recurring ones.
	WindowStart time.Time
	WindowEnd   time.Time

	Logger *slog.Logger
}

// ReadFile decodes the first calendar in an .ics file.
func ReadFile(path string) (*ical.Calendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes the first calendar in r.
func Parse(r io.Reader) (*ical.Calendar, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no calendar found in input")
		}
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}
	return cal, nil
}

// Events converts every VEVENT of cal. Events that cannot be read are logged
// and skipped.
func Events(cal *ical.Calendar, opts Options) ([]*models.Event, error) {
	if cal == nil {
		return nil, errors.New("calendar is nil")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WindowEnd.Before(opts.WindowStart) {
		return nil, errors.New("window end is before window start")
	}

	overrides := make(map[string][]time.Time)
	for _, ev := range cal.Events() {
		if rid := ev.Props.Get(ical.PropRecurrenceID); rid != nil {
			t, err := rid.DateTime(opts.Location)
			if err != nil {
				continue
			}
			uid, _ := ev.Props.Text(ical.PropUID)
			overrides[uid] = append(overrides[uid], t)
		}
	}

	var out []*models.Event
	for _, ev := range cal.Events() {
		base, err := toEvent(ev, opts)
		if err != nil {
			opts.Logger.Warn("Skipping unreadable calendar event", "source", opts.Source, "error", err)
			continue
		}
		if base == nil {
			continue
		}

		set, err := ev.RecurrenceSet(opts.Location)
		if err != nil {
			opts.Logger.Warn("Skipping event with bad recurrence rule", "source", opts.Source, "uid", base.UID, "error", err)
			continue
		}
		if set == nil || ev.Props.Get(ical.PropRecurrenceID) != nil {
			if inWindow(base, opts) {
				out = append(out, base)
			}
			continue
		}
		out = append(out, expand(base, set, overrides[base.UID], opts)...)
	}
	return out, nil
}

// toEvent reads one component. A nil event without error means the event
// should be ignored (cancelled).
func toEvent(ev ical.Event, opts Options) (*models.Event, error) {
	if status, _ := ev.Props.Text(ical.PropStatus); strings.EqualFold(status, "CANCELLED") {
		return nil, nil
	}

	start, err := ev.DateTimeStart(opts.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid DTSTART: %w", err)
	}
	if start.IsZero() {
		return nil, errors.New("missing DTSTART")
	}
	end, err := ev.DateTimeEnd(opts.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid DTEND: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("DTEND %s before DTSTART %s", end, start)
	}

	e := &models.Event{
		StartTime: start,
		EndTime:   end,
		Source:    opts.Source,
	}
	e.UID, _ = ev.Props.Text(ical.PropUID)
	e.ID = e.UID
	e.Title, _ = ev.Props.Text(ical.PropSummary)
	e.Description, _ = ev.Props.Text(ical.PropDescription)
	e.Location, _ = ev.Props.Text(ical.PropLocation)
	if p := ev.Props.Get(ical.PropOrganizer); p != nil {
		e.Organizer = models.NormalizeAttendee(p.Value)
	}
	if p := ev.Props.Get(ical.PropDateTimeStart); p != nil && p.ValueType() == ical.ValueDate {
		e.AllDay = true
	}
	if transp, _ := ev.Props.Text(ical.PropTransparency); strings.EqualFold(transp, "TRANSPARENT") {
		e.Transparent = true
	}

	for _, p := range ev.Props.Values(ical.PropAttendee) {
		if strings.EqualFold(p.Params.Get(ical.ParamParticipationStatus), "DECLINED") {
			continue
		}
		e.AddAttendee(p.Value)
	}
	if e.Organizer != "" && len(e.Attendees) == 0 {
		e.AddAttendee(e.Organizer)
	}
	e.AddAttendee(opts.Owner)
	return e, nil
}

// expand materializes the occurrences of a recurring event that touch the
// window, skipping instances replaced by a RECURRENCE-ID override.
func expand(base *models.Event, set *rrule.Set, overridden []time.Time, opts Options) []*models.Event {
	if opts.WindowStart.IsZero() && opts.WindowEnd.IsZero() {
		opts.Logger.Debug("Recurring event ignored without a window", "uid", base.UID)
		return nil
	}

	length := base.EndTime.Sub(base.StartTime)
	starts := set.Between(opts.WindowStart.Add(-length), opts.WindowEnd, true)
	if len(starts) > maxOccurrences {
		opts.Logger.Warn("Truncated recurring event occurrences", "uid", base.UID, "cap", maxOccurrences)
		starts = starts[:maxOccurrences]
	}

	out := make([]*models.Event, 0, len(starts))
	for _, s := range starts {
		if replaced(s, overridden) {
			continue
		}
		occ := *base
		occ.Attendees = append([]string(nil), base.Attendees...)
		occ.StartTime = s
		occ.EndTime = s.Add(length)
		occ.ID = base.UID + "/" + s.UTC().Format("20060102T150405Z")
		if inWindow(&occ, opts) {
			out = append(out, &occ)
		}
	}
	return out
}

func replaced(start time.Time, overridden []time.Time) bool {
	for _, t := range overridden {
		if t.Equal(start) {
			return true
		}
	}
	return false
}

func inWindow(e *models.Event, opts Options) bool {
	if opts.WindowStart.IsZero() && opts.WindowEnd.IsZero() {
		return true
	}
	return e.StartTime.Before(opts.WindowEnd) && e.EndTime.After(opts.WindowStart)
}
