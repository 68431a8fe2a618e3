package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day expressed in minutes since midnight.
type Clock int

const (
	minutesPerDay = 24 * 60

	// EndOfDay sorts untimed events after every timed event of the day.
	EndOfDay Clock = minutesPerDay - 1
)

// NewClock builds a Clock from hour and minute. Out-of-range values are
// clamped into [00:00, 23:59].
func NewClock(hour, minute int) Clock {
	c := hour*60 + minute
	if c < 0 {
		c = 0
	}
	if c >= minutesPerDay {
		c = minutesPerDay - 1
	}
	return Clock(c)
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// ParseClock parses "HH:MM" (a trailing ":SS" is accepted and ignored).
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock %q: bad minute", s)
	}
	return Clock(h*60 + m), nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Add returns c shifted by d minutes, without wrapping past midnight.
func (c Clock) Add(minutes int) Clock {
	return NewClock(0, int(c)+minutes)
}

// On anchors the clock on the calendar date of day.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, day.Location())
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ClockPtr is a convenience for optional record fields.
func ClockPtr(c Clock) *Clock {
	return &c
}
