package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidWindow  = errors.New("window open must be before close")
	ErrWindowOutOfDay = errors.New("window must fit within a single day")
	ErrInvalidSpan    = errors.New("span start must be before end")
)

const minutesPerDay = 24 * 60

// Window is an open/close pair expressed as minutes from local midnight,
// half-open: open at Open, closed again at Close.
type Window struct {
	open  int
	close int
}

func NewWindow(openMin, closeMin int) (Window, error) {
	if openMin >= closeMin {
		return Window{}, ErrInvalidWindow
	}
	if openMin < 0 || closeMin > minutesPerDay {
		return Window{}, ErrWindowOutOfDay
	}
	return Window{open: openMin, close: closeMin}, nil
}

func MustWindow(openMin, closeMin int) Window {
	w, err := NewWindow(openMin, closeMin)
	if err != nil {
		panic(fmt.Sprintf("schedule: bad window %d-%d: %v", openMin, closeMin, err))
	}
	return w
}

func (w Window) OpenMinutes() int  { return w.open }
func (w Window) CloseMinutes() int { return w.close }

// OpenAt anchors the window's open time to a concrete date in loc.
func (w Window) OpenAt(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(w.open) * time.Minute)
}

func (w Window) CloseAt(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(w.close) * time.Minute)
}

// WeekHours maps a weekday to its operating window. A missing day is closed.
type WeekHours map[time.Weekday]Window

// HoursFor returns the operating window for date, or ok=false when the
// facility is closed that day.
func (wh WeekHours) HoursFor(date time.Time, loc *time.Location) (Window, bool) {
	w, ok := wh[date.In(loc).Weekday()]
	return w, ok
}

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

func NewSpan(start, end time.Time) (Span, error) {
	if !start.Before(end) {
		return Span{}, ErrInvalidSpan
	}
	return Span{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && s.End.After(other.Start)
}

func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func (s Span) Contains(other Span) bool {
	return !other.Start.Before(s.Start) && !other.End.After(s.End)
}

// Blackout is a period during which a resource takes no appointments,
// regardless of its weekly hours.
type Blackout struct {
	Span   Span
	Reason string
}

func (b Blackout) Covers(s Span) bool {
	return b.Span.Overlaps(s)
}

// GenerateSlots produces the candidate spans for one day: starting at the
// window's open, stepping by step, until a candidate no longer fits before
// close. A candidate that would run past close is dropped, never truncated.
// A zero step means the slot length itself.
func GenerateSlots(date time.Time, loc *time.Location, win Window, slotLen, step time.Duration) []Span {
	if slotLen <= 0 {
		return nil
	}
	if step <= 0 {
		step = slotLen
	}

	open := win.OpenAt(date, loc)
	closeAt := win.CloseAt(date, loc)

	var out []Span
	for start := open; !start.Add(slotLen).After(closeAt); start = start.Add(step) {
		out = append(out, Span{Start: start, End: start.Add(slotLen)})
	}
	return out
}
