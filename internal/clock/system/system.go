// Package system provides a real clock implementation.
package system

import "time"

// Clock implements hudoc.Clock using the wall clock in a fixed location.
// Metadata dates such as time_added follow the operator's calendar, so the
// default location is time.Local.
type Clock struct {
	loc *time.Location
}

// New creates a Clock in the local time zone.
func New() *Clock {
	return &Clock{loc: time.Local}
}

// NewIn creates a Clock reporting times in loc.
func NewIn(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc}
}

// Now returns the current time.
func (c Clock) Now() time.Time {
	if c.loc == nil {
		return time.Now()
	}
	return time.Now().In(c.loc)
}
