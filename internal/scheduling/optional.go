package scheduling

import "slices"

// slotAttendance is a candidate window scored by how many optional attendees
// can make it.
type slotAttendance struct {
	slot  TimeRange
	score int
}

// RefineByOptionalAttendance narrows freeSlots to the windows that the most
// optional attendees can join. Slots are split around optional attendees'
// events; the part under an event loses one point per optional attendee of
// that event, the parts outside keep their score. Every window with the best
// score is returned, even when that score is zero or below.
func RefineByOptionalAttendance(events []Event, optional AttendeeSet, freeSlots []TimeRange, duration int) []TimeRange {
	if optional.Len() == 0 || len(freeSlots) == 0 {
		return freeSlots
	}

	slots := make([]slotAttendance, 0, len(freeSlots))
	for _, s := range freeSlots {
		slots = append(slots, slotAttendance{slot: s, score: optional.Len()})
	}

	for _, e := range events {
		common := e.Attendees.Intersection(optional)
		if common.Len() == 0 {
			continue
		}
		slots = splitAround(slots, e.When, common.Len(), duration)
	}

	return bestSlots(slots)
}

// splitAround builds the next generation of slots after applying one event
// that commonCount optional attendees are in. Slots the event does not touch
// are carried over unchanged.
func splitAround(slots []slotAttendance, busy TimeRange, commonCount, duration int) []slotAttendance {
	next := make([]slotAttendance, 0, len(slots)+2)
	for _, sa := range slots {
		if !sa.slot.Overlaps(busy) {
			next = append(next, sa)
			continue
		}

		conflicted := sa.score - commonCount

		pieces := make([]slotAttendance, 0, 3)
		if inter := sa.slot.Intersect(busy); fits(inter, duration) {
			pieces = append(pieces, slotAttendance{slot: inter, score: conflicted})
		}
		for _, rest := range Subtract(sa.slot, busy, duration) {
			pieces = append(pieces, slotAttendance{slot: rest, score: sa.score})
		}
		if len(pieces) == 0 {
			// Every placement inside the slot overlaps the event.
			next = append(next, slotAttendance{slot: sa.slot, score: conflicted})
			continue
		}
		slices.SortFunc(pieces, func(a, b slotAttendance) int {
			return CompareByStart(a.slot, b.slot)
		})
		next = append(next, pieces...)
	}
	return next
}

// bestSlots returns the slots holding the highest score, in order.
func bestSlots(slots []slotAttendance) []TimeRange {
	if len(slots) == 0 {
		return []TimeRange{}
	}

	best := slots[0].score
	for _, sa := range slots[1:] {
		best = max(best, sa.score)
	}

	out := make([]TimeRange, 0, len(slots))
	for _, sa := range slots {
		if sa.score == best {
			out = append(out, sa.slot)
		}
	}
	return out
}
