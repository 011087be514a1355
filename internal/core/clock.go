package core

import (
	"math"
	"time"
)

// Clock is the single source of "now" and of the time zone used to turn
// epoch timestamps into calendar dates. Every month or day computation in
// the application goes through one Clock.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.Location())
}

func (c SystemClock) Location() *time.Location {
	if c.Loc == nil {
		return time.Local
	}
	return c.Loc
}

// FixedClock always reports the same instant. Its location is the
// instant's location.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}

func (c FixedClock) Location() *time.Location {
	return c.At.Location()
}

// CurrentPeriod returns the month containing clock's now.
func CurrentPeriod(c Clock) Period {
	return PeriodOf(c.Now())
}

// TimeOf converts epoch seconds to a time in loc, at microsecond precision.
func TimeOf(ts float64, loc *time.Location) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e6))*1000).In(loc)
}

// Timestamp converts t to epoch seconds with microsecond precision.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}
