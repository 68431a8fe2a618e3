package calendar

import (
	"context"
	"fmt"
	"slices"
	"time"

	appLog "famcal/internal/log"
	"famcal/internal/model"
)

// Rules tunes the conflict detector. Zero fields take the defaults, so
// the margin rule cannot be switched off with 0 and an EarliestStart of
// 00:00 reads as unset; use 00:01 to flag only midnight starts.
type Rules struct {
	// MarginMin is the minimum gap expected between two consecutive events.
	MarginMin int `yaml:"margin_min" json:"margin_min"`
	// OverloadThreshold is the event count from which a day is overloaded.
	OverloadThreshold int `yaml:"overload_threshold" json:"overload_threshold"`
	// DefaultDurationMin is assumed for timed events without an end.
	DefaultDurationMin int `yaml:"default_duration_min" json:"default_duration_min"`
	// EarliestStart and LatestStart bound the usual starting hours.
	EarliestStart model.Clock `yaml:"earliest_start" json:"earliest_start"`
	LatestStart   model.Clock `yaml:"latest_start" json:"latest_start"`
}

const (
	DefaultMarginMin         = 15
	DefaultOverloadThreshold = 6
	DefaultDurationMin       = 60
	defaultEarliestStartHour = 7
	defaultLatestStartHour   = 22
)

func DefaultRules() Rules {
	return Rules{
		MarginMin:          DefaultMarginMin,
		OverloadThreshold:  DefaultOverloadThreshold,
		DefaultDurationMin: DefaultDurationMin,
		EarliestStart:      model.NewClock(defaultEarliestStartHour, 0),
		LatestStart:        model.NewClock(defaultLatestStartHour, 0),
	}
}

// Normalize fills zero fields with defaults.
func (r *Rules) Normalize() {
	d := DefaultRules()
	if r.MarginMin <= 0 {
		r.MarginMin = d.MarginMin
	}
	if r.OverloadThreshold <= 0 {
		r.OverloadThreshold = d.OverloadThreshold
	}
	if r.DefaultDurationMin <= 0 {
		r.DefaultDurationMin = d.DefaultDurationMin
	}
	if r.EarliestStart == 0 {
		r.EarliestStart = d.EarliestStart
	}
	if r.LatestStart == 0 {
		r.LatestStart = d.LatestStart
	}
}

// Detector finds scheduling conflicts in day and week views.
type Detector struct {
	rules   Rules
	special SpecialDaySource
}

type DetectorOption func(*Detector)

// WithSpecialDayLookup enables the holiday and daycare closure rules.
func WithSpecialDayLookup(s SpecialDaySource) DetectorOption {
	return func(d *Detector) { d.special = s }
}

func NewDetector(rules Rules, opts ...DetectorOption) *Detector {
	rules.Normalize()
	d := &Detector{rules: rules}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Detector) Rules() Rules { return d.rules }

// DetectDay runs every rule on one day and reports all findings.
func (d *Detector) DetectDay(ctx context.Context, day model.DayView) []model.Conflict {
	next := DateOf(day.Date).AddDate(0, 0, 1)
	specials, ok := d.lookupSpecials(ctx, DateOf(day.Date), next)
	return d.detect(day, specials, ok)
}

// DetectWeek is the union of the daily results, in day order.
func (d *Detector) DetectWeek(ctx context.Context, week model.WeekView) []model.Conflict {
	specials, ok := d.lookupSpecials(ctx, week.Start, week.Start.AddDate(0, 0, model.DaysPerWeek))
	var out []model.Conflict
	for _, day := range week.Days {
		out = append(out, d.detect(day, specials, ok)...)
	}
	return out
}

// lookupSpecials indexes special days by date. The second result is false
// when the collaborator is missing or failing, which disables the rules
// that depend on it.
func (d *Detector) lookupSpecials(ctx context.Context, from, to time.Time) (map[string][]model.SpecialDay, bool) {
	if d.special == nil {
		appLog.Debug("conflicts: no special-day source; skipping holiday rules")
		return nil, false
	}
	days, err := d.special.SpecialDays(ctx, from, to)
	if err != nil {
		appLog.Debug("conflicts: special-day source unavailable; skipping holiday rules", "err", err)
		return nil, false
	}
	idx := make(map[string][]model.SpecialDay, len(days))
	for _, s := range days {
		k := dateKey(s.Date)
		idx[k] = append(idx[k], s)
	}
	return idx, true
}

func (d *Detector) detect(day model.DayView, specials map[string][]model.SpecialDay, specialsOK bool) []model.Conflict {
	timed := timedEvents(day.Events)
	var out []model.Conflict
	out = append(out, d.overlaps(day, timed)...)
	out = append(out, d.margins(day, timed)...)
	out = append(out, d.overload(day)...)
	out = append(out, d.unusualHours(day, timed)...)
	if specialsOK {
		out = append(out, d.specialDayMismatches(day, specials[dateKey(day.Date)])...)
	}
	return out
}

// timedEvents keeps events with a start time, sorted by start.
func timedEvents(events []model.CalendarEvent) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, e := range events {
		if e.HasTime() && !e.Kind.IsMarker() {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b model.CalendarEvent) int {
		return int(*a.Start) - int(*b.Start)
	})
	return out
}

func (d *Detector) overlaps(day model.DayView, timed []model.CalendarEvent) []model.Conflict {
	var out []model.Conflict
	for i := 0; i < len(timed); i++ {
		a := timed[i]
		endA := a.EffectiveEnd(d.rules.DefaultDurationMin)
		for j := i + 1; j < len(timed); j++ {
			b := timed[j]
			// Events sharing a start always collide, zero-length ones and
			// those clamped at the end of the day included.
			if *b.Start >= endA && *b.Start != *a.Start {
				break
			}
			out = append(out, model.Conflict{
				Kind:       model.ConflictOverlap,
				Severity:   model.SeverityError,
				Message:    fmt.Sprintf("Chevauchement entre « %s » (%s) et « %s » (%s)", a.Title, a.TimeRange(), b.Title, b.TimeRange()),
				Day:        day.Date,
				EventA:     ptr(a),
				EventB:     ptr(b),
				Suggestion: d.rescheduleHint(b, endA),
			})
		}
	}
	return out
}

func (d *Detector) rescheduleHint(ev model.CalendarEvent, after model.Clock) string {
	at := int(after) + d.rules.MarginMin
	if at >= int(model.EndOfDay) {
		return fmt.Sprintf("Déplacer « %s » à un autre jour", ev.Title)
	}
	return fmt.Sprintf("Décaler « %s » à %s", ev.Title, model.Clock(at))
}

// margins compares each timed event with the latest end seen so far, so a
// short event nested in a long one does not hide a tight follow-up.
func (d *Detector) margins(day model.DayView, timed []model.CalendarEvent) []model.Conflict {
	var out []model.Conflict
	if len(timed) < 2 {
		return out
	}
	prev := timed[0]
	prevEnd := prev.EffectiveEnd(d.rules.DefaultDurationMin)
	for _, cur := range timed[1:] {
		gap := int(*cur.Start) - int(prevEnd)
		if gap >= 0 && gap < d.rules.MarginMin && *cur.Start != *prev.Start {
			out = append(out, model.Conflict{
				Kind:       model.ConflictInsufficientMargin,
				Severity:   model.SeverityWarning,
				Message:    fmt.Sprintf("Seulement %d min entre « %s » et « %s »", gap, prev.Title, cur.Title),
				Day:        day.Date,
				EventA:     ptr(prev),
				EventB:     ptr(cur),
				Suggestion: fmt.Sprintf("Prévoir au moins %d min de battement", d.rules.MarginMin),
			})
		}
		if end := cur.EffectiveEnd(d.rules.DefaultDurationMin); end >= prevEnd {
			prev, prevEnd = cur, end
		}
	}
	return out
}

func (d *Detector) overload(day model.DayView) []model.Conflict {
	n := day.Count()
	if n < d.rules.OverloadThreshold {
		return nil
	}
	return []model.Conflict{{
		Kind:       model.ConflictOverload,
		Severity:   model.SeverityWarning,
		Message:    fmt.Sprintf("Journée chargée : %d événements", n),
		Day:        day.Date,
		Suggestion: "Reporter une activité non essentielle",
	}}
}

func (d *Detector) unusualHours(day model.DayView, timed []model.CalendarEvent) []model.Conflict {
	var out []model.Conflict
	for _, e := range timed {
		if *e.Start >= d.rules.EarliestStart && *e.Start <= d.rules.LatestStart {
			continue
		}
		out = append(out, model.Conflict{
			Kind:     model.ConflictUnusualHour,
			Severity: model.SeverityInfo,
			Message:  fmt.Sprintf("« %s » commence à un horaire inhabituel (%s)", e.Title, e.Start),
			Day:      day.Date,
			EventA:   ptr(e),
		})
	}
	return out
}

func (d *Detector) specialDayMismatches(day model.DayView, specials []model.SpecialDay) []model.Conflict {
	var out []model.Conflict
	for _, s := range specials {
		switch s.Kind {
		case model.SpecialHoliday:
			for _, e := range day.Events {
				if e.Kind != model.KindMedical && e.Kind != model.KindAppointment && e.Kind != model.KindErrand {
					continue
				}
				out = append(out, model.Conflict{
					Kind:       model.ConflictHolidayMismatch,
					Severity:   model.SeverityWarning,
					Message:    fmt.Sprintf("« %s » est prévu un jour férié (%s)", e.Title, specialName(s)),
					Day:        day.Date,
					EventA:     ptr(e),
					Suggestion: "Vérifier les horaires d'ouverture ou déplacer",
				})
			}
		case model.SpecialDaycareClosure:
			for _, e := range day.Events {
				if !e.ForChild || e.Kind.IsMarker() {
					continue
				}
				out = append(out, model.Conflict{
					Kind:       model.ConflictDaycareClosure,
					Severity:   model.SeverityWarning,
					Message:    fmt.Sprintf("Crèche fermée (%s) : « %s » concerne l'enfant", specialName(s), e.Title),
					Day:        day.Date,
					EventA:     ptr(e),
					Suggestion: "Organiser une garde alternative pour ce jour",
				})
			}
		}
	}
	return out
}

func specialName(s model.SpecialDay) string {
	if s.Name != "" {
		return s.Name
	}
	return s.Kind.EventKind().Label()
}

// Summarize counts conflicts by severity.
func Summarize(conflicts []model.Conflict) model.Summary {
	s := model.Summary{Total: len(conflicts)}
	for _, c := range conflicts {
		switch c.Severity {
		case model.SeverityError:
			s.Errors++
		case model.SeverityWarning:
			s.Warnings++
		case model.SeverityInfo:
			s.Infos++
		}
	}
	return s
}

func ptr[T any](v T) *T { return &v }
