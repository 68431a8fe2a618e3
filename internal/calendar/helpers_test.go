package calendar

import (
	"context"
	"errors"
	"time"

	"famcal/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(day time.Time, hh, mm int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, day.Location())
}

func clock(s string) *model.Clock {
	c := model.MustClock(s)
	return &c
}

func timedEvent(id, title string, day time.Time, start, end string) model.CalendarEvent {
	ev := model.CalendarEvent{ID: id, Kind: model.KindActivity, Title: title, Day: day, Start: clock(start)}
	if end != "" {
		ev.End = clock(end)
	}
	return ev
}

// fakeSources serves fixed collections and can fail a single collection.
type fakeSources struct {
	in      Collections
	failing string
}

var errUnavailable = errors.New("unavailable")

func (f fakeSources) fail(name string) error {
	if f.failing == name {
		return errUnavailable
	}
	return nil
}

func (f fakeSources) Meals(context.Context, time.Time, time.Time) ([]model.Meal, error) {
	return f.in.Meals, f.fail("meals")
}

func (f fakeSources) BatchSessions(context.Context, time.Time, time.Time) ([]model.BatchSession, error) {
	return f.in.BatchSessions, f.fail("batch")
}

func (f fakeSources) Activities(context.Context, time.Time, time.Time) ([]model.Activity, error) {
	return f.in.Activities, f.fail("activities")
}

func (f fakeSources) CalendarItems(context.Context, time.Time, time.Time) ([]model.CalendarItem, error) {
	return f.in.Items, f.fail("items")
}

func (f fakeSources) Errands(context.Context, time.Time, time.Time) ([]model.Errand, error) {
	return f.in.Errands, f.fail("errands")
}

func (f fakeSources) Chores(context.Context) ([]model.Chore, error) {
	return f.in.Chores, f.fail("chores")
}

type fakeSpecials struct {
	days []model.SpecialDay
	err  error
}

func (f fakeSpecials) SpecialDays(_ context.Context, from, to time.Time) ([]model.SpecialDay, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.SpecialDay
	for _, d := range f.days {
		if !d.Date.Before(from) && d.Date.Before(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeFeed []model.CalendarItem

func (f fakeFeed) Items(context.Context, time.Time, time.Time) ([]model.CalendarItem, error) {
	return f, nil
}
