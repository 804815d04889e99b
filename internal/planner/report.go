package planner

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"meetslot/internal/scheduling"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	slotColor   = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	faintColor  = color.New(color.Faint)
)

// Render writes a plan as a short human-readable report.
func Render(w io.Writer, plan *Plan) error {
	var b bytes.Buffer

	headerColor.Fprintf(&b, "Meeting slots for %s (%s), %s\n",
		plan.Day.Format("Mon 02 Jan 2006"), plan.Location, formatMinutes(plan.Request.Duration))
	fmt.Fprintf(&b, "Attendees: %s\n", listOrDash(plan.Request.Attendees))
	if len(plan.Request.OptionalAttendees) > 0 {
		fmt.Fprintf(&b, "Optional:  %s\n", strings.Join(plan.Request.OptionalAttendees, ", "))
	}
	faintColor.Fprintf(&b, "Run %s, %d busy events\n", plan.RunID, plan.EventCount)

	if len(plan.Slots) == 0 {
		warnColor.Fprintln(&b, "No slot fits everyone.")
	}
	for _, slot := range plan.Slots {
		slotColor.Fprintf(&b, "  %s - %s", clock(plan.Day, slot.Start()), endClock(plan.Day, slot))
		fmt.Fprintf(&b, "  %s", formatMinutes(slot.Duration()))
		if slot.EndsAtEndOfDay() {
			faintColor.Fprint(&b, "  (until end of day)")
		}
		b.WriteString("\n")
	}

	if len(plan.Failed) > 0 {
		warnColor.Fprintf(&b, "Skipped sources: %s\n", strings.Join(plan.Failed, ", "))
	}

	_, err := w.Write(b.Bytes())
	return err
}

// clock renders a minute offset as wall time. Offsets count elapsed minutes
// from midnight, so they are added to the day rather than formatted directly.
func clock(day time.Time, minute int) string {
	return day.Add(time.Duration(minute) * time.Minute).Format("15:04")
}

func endClock(day time.Time, slot scheduling.TimeRange) string {
	if slot.EndsAtEndOfDay() {
		return "24:00"
	}
	return clock(day, slot.End())
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	if m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}

func listOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
