package models

import (
	"sync/atomic"
	"time"
)

var location atomic.Pointer[time.Location]

// SetLocation sets the time zone publication dates are truncated in.
func SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	location.Store(loc)
}

// Location returns the service time zone, time.Local unless configured.
func Location() *time.Location {
	if loc := location.Load(); loc != nil {
		return loc
	}
	return time.Local
}

// MidnightOf truncates t to 00:00:00.000 of its calendar day in Location.
func MidnightOf(t time.Time) time.Time {
	t = t.In(Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Today is MidnightOf(time.Now()).
func Today() time.Time {
	return MidnightOf(time.Now())
}
