// Package export renders weeks and their conflicts as text, HTML, ICS and
// PDF for printing or sharing.
package export

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"famcal/internal/model"
)

var (
	dayNames   = [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	monthNames = [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"}
)

// printer formats numbers the French way (decimal comma, grouped
// thousands).
var printer = message.NewPrinter(language.French)

// DayName returns the French weekday name.
func DayName(t time.Time) string {
	return dayNames[t.Weekday()]
}

// FormatDate renders "lundi 15 janvier".
func FormatDate(t time.Time) string {
	return DayName(t) + " " + printer.Sprintf("%d", t.Day()) + " " + monthNames[t.Month()-1]
}

// FormatWeekRange renders "du 15 au 21 janvier 2024", spelling out both
// months or years when the week spans them.
func FormatWeekRange(week model.WeekView) string {
	start, end := week.Start, week.End()
	switch {
	case start.Year() != end.Year():
		return "du " + dayMonth(start) + " " + year(start) + " au " + dayMonth(end) + " " + year(end)
	case start.Month() != end.Month():
		return "du " + dayMonth(start) + " au " + dayMonth(end) + " " + year(end)
	}
	return "du " + day(start) + " au " + dayMonth(end) + " " + year(end)
}

func day(t time.Time) string      { return printer.Sprintf("%d", t.Day()) }
func dayMonth(t time.Time) string { return day(t) + " " + monthNames[t.Month()-1] }
func year(t time.Time) string     { return t.Format("2006") }

// FormatBudget renders an amount in euros, "12,50 €".
func FormatBudget(v float64) string {
	return printer.Sprintf("%.2f €", v)
}

// Capitalize upper-cases the first letter, for headings.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// bySeverity orders conflicts from errors to infos, keeping day order
// within a severity.
func bySeverity(conflicts []model.Conflict) []model.Conflict {
	out := slices.Clone(conflicts)
	slices.SortStableFunc(out, func(a, b model.Conflict) int {
		return a.Severity.Rank() - b.Severity.Rank()
	})
	return out
}
