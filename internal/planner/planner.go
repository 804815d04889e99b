// Package planner gathers a day of events from calendar sources and asks the
// scheduling engine where a meeting fits.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"meetslot/internal/models"
	"meetslot/internal/scheduling"
)

var (
	ErrNoSources        = errors.New("no calendar sources configured")
	ErrAllSourcesFailed = errors.New("every calendar source failed")
)

// Request is a meeting to place on Day. Only the date of Day is used.
type Request struct {
	Day               time.Time
	Attendees         []string
	OptionalAttendees []string
	Duration          int // minutes
}

// Plan is the outcome of one planning run.
type Plan struct {
	RunID    uuid.UUID
	Day      time.Time // local midnight
	Location *time.Location
	Request  Request
	Slots    []scheduling.TimeRange

	// EventCount is the number of busy events that fell on the day.
	EventCount int
	// Failed names the sources that could not be read.
	Failed []string
}

// Planner orchestrates a meeting search across calendar sources.
type Planner struct {
	logger  *slog.Logger
	sources []Source
	loc     *time.Location
}

// New creates a Planner that interprets days in loc, UTC when nil.
func New(logger *slog.Logger, sources []Source, loc *time.Location) *Planner {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{logger: logger, sources: sources, loc: loc}
}

// Plan reads every source and returns the best slots for req. A source that
// fails is logged and skipped.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	if len(p.sources) == 0 {
		return nil, ErrNoSources
	}

	runID := uuid.New()
	logger := p.logger.With("runID", runID.String())

	y, m, d := req.Day.Date()
	dayStart, dayEnd := models.DayBounds(time.Date(y, m, d, 0, 0, 0, 0, p.loc))
	logger.Info("Starting planning run.", "day", dayStart.Format("2006-01-02"), "location", p.loc.String(), "sources", len(p.sources))

	plan := &Plan{RunID: runID, Day: dayStart, Location: p.loc, Request: req}

	var all []*models.Event
	for _, src := range p.sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("planning cancelled: %w", err)
		}
		events, err := src.DayEvents(ctx, dayStart, dayEnd)
		if err != nil {
			logger.Error("Could not fetch events for a source", "source", src.Name(), "error", err)
			plan.Failed = append(plan.Failed, src.Name())
			continue
		}
		logger.Debug("Fetched source events.", "source", src.Name(), "count", len(events))
		all = append(all, events...)
	}
	if len(plan.Failed) == len(p.sources) {
		return nil, fmt.Errorf("%w: %v", ErrAllSourcesFailed, plan.Failed)
	}

	all = dedupe(all)
	for _, e := range all {
		e.StartTime = e.StartTime.In(p.loc)
		e.EndTime = e.EndTime.In(p.loc)
	}
	events := models.ToScheduling(all, dayStart)
	plan.EventCount = len(events)

	slots, err := scheduling.NewFinder(logger).Find(events, scheduling.MeetingRequest{
		Attendees:         attendeeSet(req.Attendees),
		OptionalAttendees: attendeeSet(req.OptionalAttendees),
		Duration:          req.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find slots: %w", err)
	}
	plan.Slots = slots

	logger.Info("Planning run finished.", "events", plan.EventCount, "slots", len(slots), "failedSources", len(plan.Failed))
	return plan, nil
}

// dedupe drops repeats of the same event seen through more than one
// calendar, keyed by UID and start. Events without a UID are always kept.
func dedupe(events []*models.Event) []*models.Event {
	type key struct {
		uid   string
		start int64
	}
	seen := make(map[key]*models.Event, len(events))
	out := events[:0]
	for _, e := range events {
		if e == nil {
			continue
		}
		if e.UID == "" {
			out = append(out, e)
			continue
		}
		k := key{uid: e.UID, start: e.StartTime.Unix()}
		if first, ok := seen[k]; ok {
			for _, a := range e.Attendees {
				first.AddAttendee(a)
			}
			continue
		}
		seen[k] = e
		out = append(out, e)
	}
	return out
}

func attendeeSet(ids []string) scheduling.AttendeeSet {
	normalized := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = models.NormalizeAttendee(id); id != "" {
			normalized = append(normalized, id)
		}
	}
	return scheduling.NewAttendeeSet(normalized...)
}
