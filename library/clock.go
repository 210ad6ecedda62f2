package library

import "time"

// Clock supplies the current calendar day. Due dates and overdue checks are
// day-granular, so implementations only need to be accurate to the day.
type Clock interface {
	Today() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (SystemClock) Today() time.Time { return dateOf(time.Now()) }

// FixedClock always reports the same day. Advance moves it forward, which is
// how tests make loans overdue.
type FixedClock struct {
	day time.Time
}

// NewFixedClock creates a clock pinned to the calendar day of t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{day: dateOf(t)}
}

func (c *FixedClock) Today() time.Time { return c.day }

// Advance moves the clock by n days (negative moves it back).
func (c *FixedClock) Advance(days int) {
	c.day = c.day.AddDate(0, 0, days)
}

// dateOf strips the time of day, keeping the calendar date as seen in t's
// location, and returns it as midnight UTC so day arithmetic ignores DST.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole days from a to b. Both must come from dateOf.
// time.Time.Sub saturates after ~292 years, which the unlimited librarian
// policy easily exceeds, so the difference is taken on Unix seconds.
func daysBetween(a, b time.Time) int64 {
	return (b.Unix() - a.Unix()) / 86400
}
