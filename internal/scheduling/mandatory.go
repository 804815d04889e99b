package scheduling

// MandatoryFreeSlots returns, in start order, the maximal windows of the day
// in which no mandatory attendee is busy and a meeting of duration minutes
// fits. With no conflicting events the answer is the whole day.
func MandatoryFreeSlots(events []Event, mandatory AttendeeSet, duration int) []TimeRange {
	if duration > WholeDay.Duration() {
		return []TimeRange{}
	}

	busy := make([]TimeRange, 0, len(events))
	for _, e := range events {
		if e.sharesAttendee(mandatory) {
			busy = append(busy, e.When)
		}
	}
	return FreeSlots(MergeBusy(busy), duration)
}
