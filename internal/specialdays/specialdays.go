// Package specialdays knows which dates are public holidays, bridge days
// or daycare closures.
package specialdays

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fr"

	appLog "famcal/internal/log"
	"famcal/internal/model"
)

// Source provides special days for the half-open range [from, to).
type Source interface {
	SpecialDays(ctx context.Context, from, to time.Time) ([]model.SpecialDay, error)
}

// Period is an inclusive range of daycare closure dates.
type Period struct {
	From time.Time
	To   time.Time
	Name string
}

// Contains reports whether the calendar date of t lies within the period.
func (p Period) Contains(t time.Time) bool {
	d := civil(t)
	return !d.Before(civil(p.From)) && !d.After(civil(p.To))
}

// Calendar merges French public holidays, derived bridge days, configured
// closure periods and any extra sources.
type Calendar struct {
	holidays *cal.Calendar
	bridges  bool
	closures []Period
	extra    []Source
}

type Option func(*Calendar)

// WithClosures adds daycare closure periods.
func WithClosures(periods ...Period) Option {
	return func(c *Calendar) { c.closures = append(c.closures, periods...) }
}

// WithSources adds sources whose days are merged in, such as the household
// database or a closure ICS feed.
func WithSources(sources ...Source) Option {
	return func(c *Calendar) {
		for _, s := range sources {
			if s != nil {
				c.extra = append(c.extra, s)
			}
		}
	}
}

// WithHolidays replaces the French holiday set.
func WithHolidays(holidays ...*cal.Holiday) Option {
	return func(c *Calendar) {
		c.holidays = &cal.Calendar{}
		c.holidays.AddHoliday(holidays...)
	}
}

// WithoutBridges disables bridge day derivation.
func WithoutBridges() Option {
	return func(c *Calendar) { c.bridges = false }
}

func New(opts ...Option) *Calendar {
	holidays := &cal.Calendar{}
	holidays.AddHoliday(fr.Holidays...)
	c := &Calendar{holidays: holidays, bridges: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Holiday returns the name of the public holiday falling on t, if any.
func (c *Calendar) Holiday(t time.Time) (string, bool) {
	actual, _, h := c.holidays.IsHoliday(civil(t))
	if !actual || h == nil {
		return "", false
	}
	return h.Name, true
}

// bridge reports whether t is a working day squeezed between a weekend
// and a Tuesday or Thursday holiday.
func (c *Calendar) bridge(t time.Time) (string, bool) {
	if _, ok := c.Holiday(t); ok {
		return "", false
	}
	switch t.Weekday() {
	case time.Monday:
		if name, ok := c.Holiday(t.AddDate(0, 0, 1)); ok {
			return "Pont (" + name + ")", true
		}
	case time.Friday:
		if name, ok := c.Holiday(t.AddDate(0, 0, -1)); ok {
			return "Pont (" + name + ")", true
		}
	}
	return "", false
}

// SpecialDays lists every special day in [from, to), ordered by date then
// kind, with at most one entry per date and kind. A failing extra source
// is logged and skipped.
func (c *Calendar) SpecialDays(ctx context.Context, from, to time.Time) ([]model.SpecialDay, error) {
	loc := from.Location()
	start := dateIn(from, loc)
	end := dateIn(to, loc)

	var out []model.SpecialDay
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if name, ok := c.Holiday(d); ok {
			out = append(out, model.SpecialDay{Date: d, Kind: model.SpecialHoliday, Name: name})
		}
		if c.bridges {
			if name, ok := c.bridge(d); ok {
				out = append(out, model.SpecialDay{Date: d, Kind: model.SpecialBridge, Name: name})
			}
		}
		for _, p := range c.closures {
			if p.Contains(d) {
				out = append(out, model.SpecialDay{Date: d, Kind: model.SpecialDaycareClosure, Name: p.Name})
			}
		}
	}

	for _, s := range c.extra {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		days, err := s.SpecialDays(ctx, from, to)
		if err != nil {
			appLog.Error("specialdays: source unavailable", err)
			continue
		}
		for _, sd := range days {
			sd.Date = dateIn(sd.Date, loc)
			if !sd.Date.Before(start) && sd.Date.Before(end) {
				out = append(out, sd)
			}
		}
	}
	return Dedup(out), nil
}

// Dedup sorts days by date and kind and keeps the first entry of each
// (date, kind) pair.
func Dedup(days []model.SpecialDay) []model.SpecialDay {
	slices.SortStableFunc(days, func(a, b model.SpecialDay) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return slices.CompactFunc(days, func(a, b model.SpecialDay) bool {
		return a.Date.Equal(b.Date) && a.Kind == b.Kind
	})
}

// civil drops the location so dates compare by calendar day only.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
