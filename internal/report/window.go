package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Mode selects how a Window matches timestamps.
type Mode int

const (
	// ModeAll keeps every record that carries a timestamp.
	ModeAll Mode = iota
	// ModeToday keeps records from the current calendar day.
	ModeToday
	// ModeRange keeps records between two calendar dates, both inclusive.
	ModeRange
)

// ErrInvalidDate is returned for range bounds that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

func (m Mode) String() string {
	switch m {
	case ModeToday:
		return "today"
	case ModeRange:
		return "range"
	default:
		return "all"
	}
}

// Window is a reporting period resolved against a location. Day boundaries
// are computed in that location, never in UTC.
type Window struct {
	Mode     Mode
	From     time.Time // first instant of the from date
	To       time.Time // last instant of the to date
	Location *time.Location
}

// NewWindow builds a window from request input. todayOnly wins over any
// range; a range needs both bounds, otherwise the window is unbounded.
func NewWindow(todayOnly bool, from, to string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	w := Window{Mode: ModeAll, Location: loc}
	if todayOnly {
		w.Mode = ModeToday
		return w, nil
	}

	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return w, nil
	}

	start, err := time.ParseInLocation(dateLayout, from, loc)
	if err != nil {
		return Window{}, fmt.Errorf("from %q: %w", from, ErrInvalidDate)
	}
	day, err := time.ParseInLocation(dateLayout, to, loc)
	if err != nil {
		return Window{}, fmt.Errorf("to %q: %w", to, ErrInvalidDate)
	}

	w.Mode = ModeRange
	w.From = start
	w.To = endOfDay(day)
	return w, nil
}

// Today returns a today-only window in loc.
func Today(loc *time.Location) Window {
	w, _ := NewWindow(true, "", "", loc)
	return w
}

// All returns an unbounded window in loc.
func All(loc *time.Location) Window {
	w, _ := NewWindow(false, "", "", loc)
	return w
}

// Contains reports whether t falls inside the window. now is only used by
// ModeToday.
func (w Window) Contains(t, now time.Time) bool {
	loc := w.location()
	switch w.Mode {
	case ModeToday:
		return sameDay(t.In(loc), now.In(loc))
	case ModeRange:
		return !t.Before(w.From) && !t.After(w.To)
	default:
		return true
	}
}

// Filter returns the entries inside w, in input order. Entries without a
// timestamp are always dropped; an unreadable timestamp only survives the
// unbounded window.
func Filter(entries []Entry, w Window, now time.Time) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.HasTimestamp {
			continue
		}
		if w.Mode == ModeAll {
			out = append(out, e)
			continue
		}
		if e.Parsed && w.Contains(e.CreatedAt, now) {
			out = append(out, e)
		}
	}
	return out
}

// Label describes the window for logs and response payloads.
func (w Window) Label() string {
	switch w.Mode {
	case ModeRange:
		return w.From.Format(dateLayout) + ".." + w.To.Format(dateLayout)
	default:
		return w.Mode.String()
	}
}

func (w Window) location() *time.Location {
	if w.Location == nil {
		return time.Local
	}
	return w.Location
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), day.Location())
}
