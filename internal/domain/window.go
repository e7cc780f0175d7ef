package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates throughout the service.
const DateLayout = "2006-01-02"

// Window is an inclusive calendar-day range [Start, End] in the store's
// local calendar. Both bounds are dates at midnight UTC; the service never
// does sub-day window math.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from two YYYY-MM-DD strings.
func NewWindow(start, end string) (Window, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("end date %s before start date %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

// LastNDays returns the sliding window of n days ending at end (inclusive).
func LastNDays(end time.Time, n int) Window {
	end = Midnight(end)
	return Window{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// Midnight truncates t to its UTC calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Days returns the number of calendar days the window spans.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Prior returns the preceding equally-sized window: for [a,b] that is
// exactly [a-(b-a+1), a-1].
func (w Window) Prior() Window {
	n := w.Days()
	return Window{
		Start: w.Start.AddDate(0, 0, -n),
		End:   w.Start.AddDate(0, 0, -1),
	}
}

// StartDate and EndDate render the bounds in wire format.
func (w Window) StartDate() string { return w.Start.Format(DateLayout) }

func (w Window) EndDate() string { return w.End.Format(DateLayout) }

// Contains reports whether the YYYY-MM-DD date falls inside the window.
func (w Window) Contains(date string) bool {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	return !d.Before(w.Start) && !d.After(w.End)
}

// EachDay returns every date in the window, in order.
func (w Window) EachDay() []string {
	days := make([]string, 0, w.Days())
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}
