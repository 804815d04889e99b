package scheduling

import (
	"errors"
	"slices"
)

var (
	ErrInvalidRange     = errors.New("scheduling: invalid time range")
	ErrNegativeDuration = errors.New("scheduling: negative meeting duration")
)

// AttendeeSet is a set of attendee identifiers.
type AttendeeSet map[string]struct{}

func NewAttendeeSet(ids ...string) AttendeeSet {
	s := make(AttendeeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s AttendeeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s AttendeeSet) Len() int { return len(s) }

// Intersection returns the ids present in both sets.
func (s AttendeeSet) Intersection(o AttendeeSet) AttendeeSet {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(AttendeeSet)
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Sorted returns the ids in lexical order.
func (s AttendeeSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Event is an already scheduled commitment.
type Event struct {
	Title     string
	When      TimeRange
	Attendees AttendeeSet
}

// MeetingRequest describes the meeting to place. Duration is in minutes.
type MeetingRequest struct {
	Attendees         AttendeeSet
	OptionalAttendees AttendeeSet
	Duration          int
}

// sharesAttendee reports whether any of the event's attendees is in ids.
func (e Event) sharesAttendee(ids AttendeeSet) bool {
	for id := range e.Attendees {
		if ids.Has(id) {
			return true
		}
	}
	return false
}
