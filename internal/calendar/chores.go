package calendar

import (
	"time"

	"famcal/internal/model"
)

// PlaceChore returns the day a chore lands on in the week starting at
// monday. A NextDue inside the week wins; otherwise chores recurring at
// most weekly are spread on monday + (ID mod 7), which keeps a chore on
// the same weekday from one run to the next.
func PlaceChore(c model.Chore, monday time.Time) (time.Time, bool) {
	if c.Paused {
		return time.Time{}, false
	}
	monday = WeekStart(monday)
	if c.NextDue != nil {
		if off := DaysBetween(monday, *c.NextDue); off >= 0 && off < model.DaysPerWeek {
			return monday.AddDate(0, 0, off), true
		}
	}
	if c.IntervalDays >= 1 && c.IntervalDays <= model.DaysPerWeek {
		off := int(((c.ID % model.DaysPerWeek) + model.DaysPerWeek) % model.DaysPerWeek)
		return monday.AddDate(0, 0, off), true
	}
	return time.Time{}, false
}

// ProjectChores places chores into the week starting at monday, indexed by
// day offset. Chore records are left untouched.
func ProjectChores(chores []model.Chore, monday time.Time) [model.DaysPerWeek][]model.CalendarEvent {
	var out [model.DaysPerWeek][]model.CalendarEvent
	monday = WeekStart(monday)
	for _, c := range chores {
		day, ok := PlaceChore(c, monday)
		if !ok {
			continue
		}
		off := DaysBetween(monday, day)
		out[off] = append(out[off], ConvertChore(c, day))
	}
	return out
}

// ChoreOccurrences applies the weekly placement rule to every week
// touching [from, to] and keeps the dates inside the range.
func ChoreOccurrences(c model.Chore, from, to time.Time) []time.Time {
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return nil
	}
	var out []time.Time
	for w := WeekStart(from); !w.After(to); w = w.AddDate(0, 0, model.DaysPerWeek) {
		day, ok := PlaceChore(c, w)
		if !ok || day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, day)
	}
	return out
}
