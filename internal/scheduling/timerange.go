package scheduling

import "fmt"

const (
	// StartOfDay is the first minute of the reference day.
	StartOfDay = 0
	// EndOfDay is the last minute of the reference day. Ranges built with an
	// inclusive end at EndOfDay stop at minute 1440.
	EndOfDay = 23*60 + 59
)

// WholeDay spans every schedulable minute of the reference day.
var WholeDay = FromStartEnd(StartOfDay, EndOfDay, true)

// TimeRange is a half-open interval [start, end) of minutes measured from the
// start of the reference day.
type TimeRange struct {
	start int
	end   int
}

// FromStartEnd builds a range from start to end. When inclusive is true the
// minute at end belongs to the range, so the stored end is end+1.
//
// It panics when the bounds fall outside the day or end precedes start.
func FromStartEnd(start, end int, inclusive bool) TimeRange {
	if inclusive {
		end++
	}
	r := TimeRange{start: start, end: end}
	if err := r.validate(); err != nil {
		panic(err)
	}
	return r
}

// FromStartDuration builds the range [start, start+duration).
func FromStartDuration(start, duration int) TimeRange {
	return FromStartEnd(start, start+duration, false)
}

func (r TimeRange) validate() error {
	if r.start < StartOfDay || r.end > EndOfDay+1 || r.end < r.start {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, r.start, r.end)
	}
	return nil
}

func (r TimeRange) Start() int { return r.start }

func (r TimeRange) End() int { return r.end }

func (r TimeRange) Duration() int { return r.end - r.start }

// EndsAtEndOfDay reports whether the range runs up to and including EndOfDay.
func (r TimeRange) EndsAtEndOfDay() bool {
	return r.end == EndOfDay+1
}

// Contains reports whether minute falls inside the range.
func (r TimeRange) Contains(minute int) bool {
	return minute >= r.start && minute < r.end
}

// ContainsRange reports whether o lies entirely inside r.
func (r TimeRange) ContainsRange(o TimeRange) bool {
	return o.start >= r.start && o.end <= r.end
}

// Overlaps reports whether the two ranges share at least one minute.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.start < o.end && o.start < r.end
}

// Intersect returns the minutes shared by r and o. Callers must check
// Overlaps first; non-overlapping ranges cause a panic.
func (r TimeRange) Intersect(o TimeRange) TimeRange {
	if !r.Overlaps(o) {
		panic(fmt.Sprintf("scheduling: intersect of non-overlapping ranges %s and %s", r, o))
	}
	return TimeRange{start: max(r.start, o.start), end: min(r.end, o.end)}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("Range: [%d, %d)", r.start, r.end)
}

// CompareByStart orders ranges by start, then by end.
func CompareByStart(a, b TimeRange) int {
	if a.start != b.start {
		return a.start - b.start
	}
	return a.end - b.end
}

// CompareByEnd orders ranges by end, then by start.
func CompareByEnd(a, b TimeRange) int {
	if a.end != b.end {
		return a.end - b.end
	}
	return a.start - b.start
}

// Subtract returns the parts of main that minor does not cover, left to
// right, dropping empty parts and parts shorter than minDuration.
//
// When the ranges do not overlap, main comes back as is without the
// minDuration check.
func Subtract(main, minor TimeRange, minDuration int) []TimeRange {
	if !main.Overlaps(minor) {
		return []TimeRange{main}
	}

	out := make([]TimeRange, 0, 2)
	if left := (TimeRange{start: main.start, end: max(main.start, minor.start)}); fits(left, minDuration) {
		out = append(out, left)
	}
	if right := (TimeRange{start: min(main.end, minor.end), end: main.end}); fits(right, minDuration) {
		out = append(out, right)
	}
	return out
}
