package model

import "time"

// DaysPerWeek is the fixed length of a WeekView.
const DaysPerWeek = 7

// DayView holds the ordered events of one calendar date.
type DayView struct {
	Date   time.Time       `json:"date"`
	Events []CalendarEvent `json:"events"`
	Load   int             `json:"load"`
}

func (d DayView) first(kind EventKind) *CalendarEvent {
	for i := range d.Events {
		if d.Events[i].Kind == kind {
			return &d.Events[i]
		}
	}
	return nil
}

func (d DayView) filter(keep func(EventKind) bool) []CalendarEvent {
	var out []CalendarEvent
	for _, e := range d.Events {
		if keep(e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

// Lunch returns the lunch meal, or nil.
func (d DayView) Lunch() *CalendarEvent { return d.first(KindLunch) }

// Dinner returns the dinner meal, or nil.
func (d DayView) Dinner() *CalendarEvent { return d.first(KindDinner) }

// BatchSession returns the batch-cooking session of the day, or nil.
func (d DayView) BatchSession() *CalendarEvent { return d.first(KindBatchCooking) }

func (d DayView) Errands() []CalendarEvent {
	return d.filter(func(k EventKind) bool { return k == KindErrand })
}

func (d DayView) Activities() []CalendarEvent {
	return d.filter(func(k EventKind) bool { return k == KindActivity })
}

// Appointments returns medical and regular appointments.
func (d DayView) Appointments() []CalendarEvent {
	return d.filter(func(k EventKind) bool { return k == KindMedical || k == KindAppointment })
}

func (d DayView) Chores() []CalendarEvent {
	return d.filter(func(k EventKind) bool { return k == KindChore })
}

// Specials returns the special-day markers (holiday, closure, bridge).
func (d DayView) Specials() []CalendarEvent {
	return d.filter(EventKind.IsMarker)
}

// Others returns what no dedicated accessor covers: breakfast, snack,
// routines and free-form events.
func (d DayView) Others() []CalendarEvent {
	return d.filter(func(k EventKind) bool {
		switch k {
		case KindLunch, KindDinner, KindBatchCooking, KindErrand, KindActivity,
			KindMedical, KindAppointment, KindChore:
			return false
		}
		return !k.IsMarker()
	})
}

// Count is the number of non-marker events.
func (d DayView) Count() int {
	n := 0
	for _, e := range d.Events {
		if !e.Kind.IsMarker() {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the day has no event at all, markers included.
func (d DayView) IsEmpty() bool {
	return len(d.Events) == 0
}

// Has reports whether the day carries a marker of the given kind.
func (d DayView) Has(kind EventKind) bool {
	return d.first(kind) != nil
}

// WeekView is seven consecutive days anchored on a Monday.
type WeekView struct {
	Start time.Time            `json:"start"`
	Days  [DaysPerWeek]DayView `json:"days"`
	Load  int                  `json:"load"`
}

// End returns the date of the Sunday closing the week.
func (w WeekView) End() time.Time {
	return w.Start.AddDate(0, 0, DaysPerWeek-1)
}

// Events flattens every day in order.
func (w WeekView) Events() []CalendarEvent {
	var out []CalendarEvent
	for _, d := range w.Days {
		out = append(out, d.Events...)
	}
	return out
}

// Count is the number of non-marker events over the week.
func (w WeekView) Count() int {
	n := 0
	for _, d := range w.Days {
		n += d.Count()
	}
	return n
}

// Budget sums the budgets of all events of the week.
func (w WeekView) Budget() float64 {
	var total float64
	for _, e := range w.Events() {
		if e.Budget != nil {
			total += *e.Budget
		}
	}
	return total
}
