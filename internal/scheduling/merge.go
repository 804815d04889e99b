package scheduling

import "slices"

// MergeBusy merges ranges into a sorted, disjoint cover. Overlapping and
// adjacent ranges are joined; ranges sharing a start keep the largest end.
// Empty ranges mark nobody busy and are dropped.
func MergeBusy(ranges []TimeRange) []TimeRange {
	busy := busyByStart(ranges)
	starts := sortedStarts(busy)

	merged := make([]TimeRange, 0, len(starts))
	for _, start := range starts {
		end := busy[start]
		if n := len(merged); n > 0 && start <= merged[n-1].end {
			merged[n-1].end = max(merged[n-1].end, end)
			continue
		}
		merged = append(merged, TimeRange{start: start, end: end})
	}
	return merged
}

// FreeSlots walks busy ranges sorted by start and returns the gaps of the
// whole day that are at least minDuration long. Entries starting before the
// cursor are already covered and only push it forward.
func FreeSlots(busy []TimeRange, minDuration int) []TimeRange {
	free := make([]TimeRange, 0, len(busy)+1)
	cursor := StartOfDay
	for _, b := range busy {
		if b.start < cursor {
			cursor = max(cursor, b.end)
			continue
		}
		if gap := (TimeRange{start: cursor, end: b.start}); fits(gap, minDuration) {
			free = append(free, gap)
		}
		cursor = b.end
	}
	if tail := (TimeRange{start: cursor, end: WholeDay.end}); fits(tail, minDuration) {
		free = append(free, tail)
	}
	return free
}

// busyByStart collapses ranges to start -> latest end.
func busyByStart(ranges []TimeRange) map[int]int {
	busy := make(map[int]int, len(ranges))
	for _, r := range ranges {
		if r.Duration() == 0 {
			continue
		}
		if end, ok := busy[r.start]; !ok || r.end > end {
			busy[r.start] = r.end
		}
	}
	return busy
}

func sortedStarts(busy map[int]int) []int {
	starts := make([]int, 0, len(busy))
	for start := range busy {
		starts = append(starts, start)
	}
	slices.Sort(starts)
	return starts
}

// fits reports whether r is non-empty and can hold a meeting of duration minutes.
func fits(r TimeRange, duration int) bool {
	return r.Duration() > 0 && r.Duration() >= duration
}
