package timeline

import "time"

// Clock supplies the instant the timeline policy evaluates against.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location, or UTC when unset.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
