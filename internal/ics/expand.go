package ics

import (
	"cmp"
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	appLog "famcal/internal/log"
)

const defaultMaxOccurrences = 5000

// Occurrence is one concrete instance of a feed event.
type Occurrence struct {
	FeedID      string
	UID         string
	Summary     string
	Description string
	Location    string
	Categories  []string
	ForChild    bool
	Type        string
	AllDay      bool
	Start       time.Time
	End         time.Time
}

// InstanceID identifies the occurrence across refreshes: the UID for
// single events, the UID plus the start for recurring ones.
func (o Occurrence) InstanceID(recurring bool) string {
	if !recurring {
		return o.UID
	}
	if o.AllDay {
		return o.UID + "/" + o.Start.Format("20060102")
	}
	return o.UID + "/" + o.Start.UTC().Format("20060102T150405Z")
}

// Window is the half-open range [From, To) occurrences must intersect.
type Window struct {
	From time.Time
	To   time.Time
	// Location converts occurrences for display; nil means time.Local.
	Location *time.Location
	// MaxPerEvent caps the instances of a single series.
	MaxPerEvent int
}

// Expanded is an occurrence plus whether it came from a series.
type Expanded struct {
	Occurrence
	Recurring bool
}

// Expand turns parsed events into occurrences intersecting w, sorted by
// start then UID. RRULE, EXDATE and RECURRENCE-ID overrides are applied.
func Expand(events []ParsedEvent, w Window) ([]Expanded, error) {
	if !w.From.Before(w.To) {
		return nil, errors.New("expand: empty window")
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxPerEvent <= 0 {
		w.MaxPerEvent = defaultMaxOccurrences
	}

	bases := make(map[string][]ParsedEvent)
	overrides := make(map[string][]ParsedEvent)
	var uids []string
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := bases[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		bases[ev.UID] = append(bases[ev.UID], ev)
	}

	var out []Expanded
	for _, uid := range uids {
		for _, ev := range bases[uid] {
			if ev.RRule == "" {
				if occ, ok := single(ev, overrides[uid], w); ok {
					out = append(out, occ)
				}
				continue
			}
			occs, truncated := series(ev, overrides[uid], w)
			if truncated {
				appLog.Warn("ics: series truncated", "uid", uid, "cap", w.MaxPerEvent)
			}
			out = append(out, occs...)
		}
	}

	slices.SortStableFunc(out, func(a, b Expanded) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.UID, b.UID)
	})
	return out, nil
}

func single(ev ParsedEvent, overrides []ParsedEvent, w Window) (Expanded, bool) {
	if o, ok := findOverride(overrides, ev.Start); ok {
		ev = o
	}
	if !intersects(ev.Start, ev.End, w.From, w.To) {
		return Expanded{}, false
	}
	return Expanded{Occurrence: occurrence(ev, ev.Start, ev.End, w.Location)}, true
}

func series(ev ParsedEvent, overrides []ParsedEvent, w Window) ([]Expanded, bool) {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Warn("ics: bad RRULE", "uid", ev.UID, "rrule", ev.RRule, "err", err)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the duration so an instance already running
	// at w.From is kept.
	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	starts := set.Between(w.From.Add(-dur).In(loc), w.To.In(loc), true)

	truncated := false
	if len(starts) > w.MaxPerEvent {
		starts = starts[:w.MaxPerEvent]
		truncated = true
	}

	out := make([]Expanded, 0, len(starts))
	for _, start := range starts {
		end := start.Add(dur)
		inst := ev
		if o, ok := findOverride(overrides, start); ok {
			inst, start, end = o, o.Start, o.End
		}
		if !intersects(start, end, w.From, w.To) {
			continue
		}
		out = append(out, Expanded{Occurrence: occurrence(inst, start, end, w.Location), Recurring: true})
	}
	return out, truncated
}

func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, o := range overrides {
		if o.RecurrenceID != nil && o.RecurrenceID.Equal(start) {
			return o, true
		}
	}
	return ParsedEvent{}, false
}

func occurrence(ev ParsedEvent, start, end time.Time, loc *time.Location) Occurrence {
	occ := Occurrence{
		FeedID:      ev.Subscription.ID,
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Categories:  ev.Categories,
		ForChild:    ev.Subscription.ForChild,
		Type:        ev.Subscription.Type,
		AllDay:      ev.AllDay,
		Start:       start.In(loc),
		End:         end.In(loc),
	}
	if ev.AllDay {
		// Dates stay on their calendar day whatever the display zone.
		occ.Start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		occ.End = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	}
	return occ
}

// intersects treats zero-length events as instants.
func intersects(start, end, from, to time.Time) bool {
	if !end.After(start) {
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}
