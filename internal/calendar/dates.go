// Package calendar merges planning records into day and week views,
// scores how busy each day is and detects scheduling conflicts.
package calendar

import (
	"time"

	"famcal/internal/model"
)

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate compares calendar dates, each in its own location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// PrevWeek returns the Monday of the week before the one containing t.
func PrevWeek(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, -model.DaysPerWeek)
}

// NextWeek returns the Monday of the week after the one containing t.
func NextWeek(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, model.DaysPerWeek)
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// dateKey is a comparable civil-date key.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
