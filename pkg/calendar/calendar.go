// Package calendar works with whole calendar days. Streaks and completions never compare
// times of day, only the day a moment falls on in the configured location.
package calendar

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

const Layout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid calendar day, expected YYYY-MM-DD")

// Day is a calendar day in YYYY-MM-DD form. Lexical order of valid days is chronological order.
type Day string

func DayOf(t time.Time) Day {
	return Day(t.Format(Layout))
}

func Parse(s string) (Day, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", ErrInvalidDay
	}
	return DayOf(t), nil
}

// Time returns midnight UTC of the day, or the zero time if d is not a valid day.
func (d Day) Time() time.Time {
	t, err := time.Parse(Layout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

func (d Day) Before(other Day) bool {
	return d < other
}

func (d Day) After(other Day) bool {
	return d > other
}

func (d Day) IsZero() bool {
	return d == ""
}

func (d Day) Valid() bool {
	_, err := time.Parse(Layout, string(d))
	return err == nil
}

func (d Day) String() string {
	return string(d)
}

// Calendar answers "which day is it" for a clock observed in a location.
type Calendar struct {
	clock clockwork.Clock
	loc   *time.Location
}

func New(clock clockwork.Clock, loc *time.Location) *Calendar {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{
		clock: clock,
		loc:   loc,
	}
}

func (c *Calendar) Clock() clockwork.Clock {
	return c.clock
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

func (c *Calendar) Today() Day {
	return DayOf(c.Now())
}

func (c *Calendar) Yesterday() Day {
	return c.DaysAgo(1)
}

func (c *Calendar) DaysAgo(n int) Day {
	return c.Today().AddDays(-n)
}
