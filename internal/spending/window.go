package spending

import (
	"time"

	"spendboard/internal/core"
)

// Window is one of the fixed accumulation periods.
type Window int

const (
	Day Window = iota
	Week
	Month
)

// Windows lists every window in display order.
var Windows = []Window{Day, Week, Month}

func (w Window) String() string {
	switch w {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return "unknown"
	}
}

// WindowSet is a bitmask of windows; a date can be in several at once.
type WindowSet uint8

// Has reports whether w is in the set.
func (s WindowSet) Has(w Window) bool {
	return s&(1<<w) != 0
}

func (s WindowSet) with(w Window) WindowSet {
	return s | 1<<w
}

// Empty reports whether no window is active.
func (s WindowSet) Empty() bool { return s == 0 }

// Bounds holds the window boundaries of one aggregation run.
type Bounds struct {
	Today      core.Date
	WeekStart  core.Date
	MonthStart core.Date
}

// BoundsAt derives the boundaries from a single reference instant converted
// once into loc. A nil loc means UTC.
func BoundsAt(now time.Time, loc *time.Location) Bounds {
	if loc == nil {
		loc = time.UTC
	}
	return BoundsFor(core.DateOf(now.In(loc)))
}

// BoundsFor derives the boundaries for an already-resolved today.
func BoundsFor(today core.Date) Bounds {
	// time.Weekday counts from Sunday; ISO weeks start on Monday.
	sinceMonday := (int(today.Weekday()) + 6) % 7
	return Bounds{
		Today:      today,
		WeekStart:  today.AddDays(-sinceMonday),
		MonthStart: today.FirstOfMonth(),
	}
}

// WindowsFor evaluates each membership rule independently.
func (b Bounds) WindowsFor(d core.Date) WindowSet {
	var set WindowSet
	if d.Equal(b.Today) {
		set = set.with(Day)
	}
	if !d.Before(b.WeekStart) {
		set = set.with(Week)
	}
	if !d.Before(b.MonthStart) {
		set = set.with(Month)
	}
	return set
}
