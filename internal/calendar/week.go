package calendar

import (
	"context"
	"slices"
	"time"

	appLog "famcal/internal/log"
	"famcal/internal/model"
)

// Collections holds the raw records aggregated into one week.
type Collections struct {
	Meals         []model.Meal
	BatchSessions []model.BatchSession
	Activities    []model.Activity
	Items         []model.CalendarItem
	Errands       []model.Errand
	Chores        []model.Chore
	SpecialDays   []model.SpecialDay
}

// BuildWeek aggregates the collections into the week containing anchor.
// Records that fail conversion are logged, dropped, and returned as
// errors; they never abort the build.
func BuildWeek(anchor time.Time, in Collections) (model.WeekView, []error) {
	monday := WeekStart(anchor)
	week := model.WeekView{Start: monday}
	chores := ProjectChores(in.Chores, monday)

	var dropped []error
	keep := func(day time.Time, ev model.CalendarEvent, err error, events *[]model.CalendarEvent) {
		if err != nil {
			dropped = append(dropped, err)
			appLog.Error("calendar: record dropped", err, "day", dateKey(day))
			return
		}
		*events = append(*events, ev)
	}

	for i := range model.DaysPerWeek {
		day := monday.AddDate(0, 0, i)
		var events []model.CalendarEvent

		for _, m := range in.Meals {
			if SameDate(m.Date, day) {
				ev, err := ConvertMeal(m)
				keep(day, ev, err, &events)
			}
		}
		for _, b := range in.BatchSessions {
			if SameDate(b.Date, day) {
				ev, err := ConvertBatchSession(b)
				keep(day, ev, err, &events)
			}
		}
		for _, a := range in.Activities {
			if SameDate(a.Date, day) {
				ev, err := ConvertActivity(a)
				keep(day, ev, err, &events)
			}
		}
		for _, c := range in.Items {
			if SameDate(c.Start, day) {
				ev, err := ConvertCalendarItem(c)
				keep(day, ev, err, &events)
			}
		}
		for _, e := range in.Errands {
			if SameDate(e.Date, day) {
				ev, err := ConvertErrand(e)
				keep(day, ev, err, &events)
			}
		}
		events = append(events, chores[i]...)
		events = appendSpecials(events, in.SpecialDays, day)

		slices.SortStableFunc(events, model.CompareEvents)
		week.Days[i] = model.DayView{
			Date:   day,
			Events: events,
			Load:   DayLoad(events),
		}
	}
	week.Load = WeekLoad(week.Days)
	return week, dropped
}

// appendSpecials adds one marker per (date, kind) pair.
func appendSpecials(events []model.CalendarEvent, specials []model.SpecialDay, day time.Time) []model.CalendarEvent {
	seen := make(map[model.SpecialDayKind]bool)
	for _, s := range specials {
		if !SameDate(s.Date, day) || seen[s.Kind] {
			continue
		}
		seen[s.Kind] = true
		events = append(events, ConvertSpecialDay(s))
	}
	return events
}

// Sources is the read-only collaborator providing household records.
// Range queries are half-open: [from, to).
type Sources interface {
	Meals(ctx context.Context, from, to time.Time) ([]model.Meal, error)
	BatchSessions(ctx context.Context, from, to time.Time) ([]model.BatchSession, error)
	Activities(ctx context.Context, from, to time.Time) ([]model.Activity, error)
	CalendarItems(ctx context.Context, from, to time.Time) ([]model.CalendarItem, error)
	Errands(ctx context.Context, from, to time.Time) ([]model.Errand, error)
	Chores(ctx context.Context) ([]model.Chore, error)
}

// SpecialDaySource provides public holidays and daycare closures.
type SpecialDaySource interface {
	SpecialDays(ctx context.Context, from, to time.Time) ([]model.SpecialDay, error)
}

// ItemFeed provides extra calendar items, typically an ICS subscription.
type ItemFeed interface {
	Items(ctx context.Context, from, to time.Time) ([]model.CalendarItem, error)
}

// Aggregator fetches records from its collaborators and builds weeks.
type Aggregator struct {
	src     Sources
	special SpecialDaySource
	feeds   []ItemFeed
	loc     *time.Location
}

type AggregatorOption func(*Aggregator)

func WithSpecialDays(s SpecialDaySource) AggregatorOption {
	return func(a *Aggregator) { a.special = s }
}

func WithFeeds(feeds ...ItemFeed) AggregatorOption {
	return func(a *Aggregator) { a.feeds = append(a.feeds, feeds...) }
}

// WithLocation sets the display timezone used to pick the week of a date.
func WithLocation(loc *time.Location) AggregatorOption {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

func NewAggregator(src Sources, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{src: src, loc: time.Local}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Week returns the week containing date. A failing collaborator only
// empties its own collection.
func (a *Aggregator) Week(ctx context.Context, date time.Time) model.WeekView {
	week, _ := a.WeekWithErrors(ctx, date)
	return week
}

// WeekWithErrors is Week plus the records dropped during conversion.
func (a *Aggregator) WeekWithErrors(ctx context.Context, date time.Time) (model.WeekView, []error) {
	monday := WeekStart(date.In(a.loc))
	end := monday.AddDate(0, 0, model.DaysPerWeek)

	var in Collections
	if a.src != nil {
		in.Meals = collect("meals", func() ([]model.Meal, error) { return a.src.Meals(ctx, monday, end) })
		in.BatchSessions = collect("batch_sessions", func() ([]model.BatchSession, error) { return a.src.BatchSessions(ctx, monday, end) })
		in.Activities = collect("activities", func() ([]model.Activity, error) { return a.src.Activities(ctx, monday, end) })
		in.Items = collect("calendar_items", func() ([]model.CalendarItem, error) { return a.src.CalendarItems(ctx, monday, end) })
		in.Errands = collect("errands", func() ([]model.Errand, error) { return a.src.Errands(ctx, monday, end) })
		in.Chores = collect("chores", func() ([]model.Chore, error) { return a.src.Chores(ctx) })
	}
	for _, f := range a.feeds {
		in.Items = append(in.Items, collect("feed", func() ([]model.CalendarItem, error) { return f.Items(ctx, monday, end) })...)
	}
	if a.special != nil {
		in.SpecialDays = collect("special_days", func() ([]model.SpecialDay, error) { return a.special.SpecialDays(ctx, monday, end) })
	}

	return BuildWeek(monday, in)
}

// Day returns the view of a single date.
func (a *Aggregator) Day(ctx context.Context, date time.Time) model.DayView {
	date = date.In(a.loc)
	week := a.Week(ctx, date)
	return week.Days[DaysBetween(week.Start, date)]
}

// Range returns every week touching [from, to].
func (a *Aggregator) Range(ctx context.Context, from, to time.Time) []model.WeekView {
	var weeks []model.WeekView
	last := WeekStart(to.In(a.loc))
	for w := WeekStart(from.In(a.loc)); !w.After(last); w = w.AddDate(0, 0, model.DaysPerWeek) {
		weeks = append(weeks, a.Week(ctx, w))
	}
	return weeks
}

// collect turns a collaborator failure into an empty collection.
func collect[T any](name string, fetch func() ([]T, error)) []T {
	items, err := fetch()
	if err != nil {
		appLog.Error("calendar: collaborator unavailable", err, "collection", name)
		return nil
	}
	return items
}
