// Package scheduling finds the windows of a single day in which a meeting can
// take place.
//
// Times are minutes from the start of the reference day. The package does no
// I/O and keeps no state between calls, so every function is safe for
// concurrent use on caller-owned inputs.
package scheduling

import (
	"fmt"
	"log/slog"
)

// Query returns the windows where every mandatory attendee is free for at
// least request.Duration minutes, narrowed to those that suit the most
// optional attendees. An empty result means no window exists.
//
// Errors are returned only for malformed input, which in practice means a
// negative duration.
func Query(events []Event, request MeetingRequest) ([]TimeRange, error) {
	return query(events, request, nil)
}

// traceFunc receives the outcome of each pass.
type traceFunc func(msg string, args ...any)

func query(events []Event, request MeetingRequest, trace traceFunc) ([]TimeRange, error) {
	if trace == nil {
		trace = func(string, ...any) {}
	}
	if err := validate(events, request); err != nil {
		return nil, err
	}
	if request.Duration > WholeDay.Duration() {
		trace("Requested duration exceeds a day.", "duration", request.Duration)
		return []TimeRange{}, nil
	}

	free := MandatoryFreeSlots(events, request.Attendees, request.Duration)
	trace("Mandatory attendees free.",
		"attendees", request.Attendees.Sorted(),
		"events", len(events),
		"slots", free,
	)

	best := RefineByOptionalAttendance(events, request.OptionalAttendees, free, request.Duration)
	trace("Refined by optional attendance.",
		"optional", request.OptionalAttendees.Sorted(),
		"slots", best,
	)
	return best, nil
}

// validate checks the request and the event ranges. Ranges built through
// FromStartEnd are always valid, so ErrInvalidRange only guards ranges
// assembled inside this package.
func validate(events []Event, request MeetingRequest) error {
	if request.Duration < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDuration, request.Duration)
	}
	for _, e := range events {
		if err := e.When.validate(); err != nil {
			return fmt.Errorf("event %q: %w", e.Title, err)
		}
	}
	return nil
}

// Finder runs queries and traces each pass to its logger.
type Finder struct {
	logger *slog.Logger
}

func NewFinder(logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{logger: logger}
}

// Find behaves like Query and logs the intermediate results at debug level.
func (f *Finder) Find(events []Event, request MeetingRequest) ([]TimeRange, error) {
	return query(events, request, f.logger.Debug)
}
