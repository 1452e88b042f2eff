package service

import (
	"time"

	"task-dashboard/internal/model"
)

// Clock returns the current time. Tests substitute a fixed one.
type Clock func() time.Time

// SystemClock reads the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return func() time.Time { return time.Now().In(loc) }
}

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func (c Clock) today() model.Date {
	return model.DateOf(c())
}
