package ics

import (
	"context"
	"iter"
	"strings"
	"sync"
	"time"

	appLog "famcal/internal/log"
	"famcal/internal/model"
)

// Feed holds the parsed events of a set of subscriptions and refreshes
// them on demand.
type Feed struct {
	fetcher *Fetcher
	subs    []Subscription
	loc     *time.Location
	maxAge  time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	events    []ParsedEvent
	refreshed time.Time
}

type FeedOption func(*Feed)

// WithMaxAge makes reads refresh the feed once the last refresh is older
// than d. Zero means only the first read refreshes.
func WithMaxAge(d time.Duration) FeedOption {
	return func(f *Feed) { f.maxAge = d }
}

func WithFeedLocation(loc *time.Location) FeedOption {
	return func(f *Feed) {
		if loc != nil {
			f.loc = loc
		}
	}
}

func NewFeed(fetcher *Fetcher, subs []Subscription, opts ...FeedOption) *Feed {
	f := &Feed{fetcher: fetcher, subs: subs, loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Refresh fetches and parses every subscription. Feeds that fail keep
// nothing; the others replace the previous state. It returns the number of
// parsed events.
func (f *Feed) Refresh(ctx context.Context) (int, error) {
	results, errs := f.fetcher.FetchAll(ctx, f.subs)
	var events []ParsedEvent
	for _, res := range results {
		parsed, err := ParseICS(res.Subscription, res.Body, f.loc)
		if err != nil {
			appLog.Error("ics: parse failed", err, "feed", res.Subscription.ID)
			errs = append(errs, err)
			continue
		}
		events = append(events, parsed...)
	}

	f.mu.Lock()
	f.events = events
	f.refreshed = f.now()
	f.mu.Unlock()

	if len(results) == 0 && len(errs) > 0 {
		return 0, errs[0]
	}
	return len(events), nil
}

func (f *Feed) snapshot(ctx context.Context) []ParsedEvent {
	f.mu.RLock()
	stale := f.refreshed.IsZero() || (f.maxAge > 0 && f.now().Sub(f.refreshed) > f.maxAge)
	f.mu.RUnlock()
	if stale {
		if _, err := f.Refresh(ctx); err != nil {
			appLog.Warn("ics: refresh failed", "err", err)
		}
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.events
}

// Occurrences expands the feed over [from, to).
func (f *Feed) Occurrences(ctx context.Context, from, to time.Time) ([]Expanded, error) {
	events := f.snapshot(ctx)
	if len(events) == 0 {
		return nil, nil
	}
	return Expand(events, Window{From: from, To: to, Location: f.loc})
}

// FeedEvents exposes a feed as extra calendar items.
type FeedEvents struct {
	feed *Feed
}

func NewFeedEvents(feed *Feed) *FeedEvents {
	return &FeedEvents{feed: feed}
}

// Items converts occurrences into calendar items. All-day occurrences
// spanning several days yield one item per day in range.
func (e *FeedEvents) Items(ctx context.Context, from, to time.Time) ([]model.CalendarItem, error) {
	occs, err := e.feed.Occurrences(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var items []model.CalendarItem
	for _, occ := range occs {
		base := model.CalendarItem{
			ExternalID: occ.InstanceID(occ.Recurring),
			Title:      occ.Summary,
			Type:       itemType(occ.Occurrence),
			Location:   occ.Location,
			ForChild:   occ.ForChild,
			Notes:      occ.Description,
		}
		if !occ.AllDay {
			base.Start = occ.Start
			if occ.End.After(occ.Start) {
				end := occ.End
				base.End = &end
			}
			items = append(items, base)
			continue
		}
		for d := range days(occ.Start, occ.End, from, to) {
			item := base
			item.AllDay = true
			item.Start = d
			if d.After(occ.Start) {
				item.ExternalID += "/" + d.Format("20060102")
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// ClosureFeed reads all-day events of a daycare calendar as closure days.
type ClosureFeed struct {
	feed *Feed
}

func NewClosureFeed(feed *Feed) *ClosureFeed {
	return &ClosureFeed{feed: feed}
}

func (c *ClosureFeed) SpecialDays(ctx context.Context, from, to time.Time) ([]model.SpecialDay, error) {
	occs, err := c.feed.Occurrences(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var out []model.SpecialDay
	for _, occ := range occs {
		if !occ.AllDay {
			continue
		}
		for d := range days(occ.Start, occ.End, from, to) {
			out = append(out, model.SpecialDay{Date: d, Kind: model.SpecialDaycareClosure, Name: occ.Summary})
		}
	}
	return out, nil
}

// days yields the dates of an all-day span [start, end) clipped to
// [from, to).
func days(start, end, from, to time.Time) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			if d.Before(dateOnly(from)) || !d.Before(to) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// itemType picks the first category, else the subscription type.
func itemType(occ Occurrence) string {
	if len(occ.Categories) > 0 {
		return strings.ToLower(occ.Categories[0])
	}
	return occ.Type
}
