package export

import (
	"fmt"
	"strings"

	"famcal/internal/calendar"
	"famcal/internal/model"
)

// Text renders the week as a plain-text agenda followed by its conflicts.
func Text(week model.WeekView, conflicts []model.Conflict) string {
	var b strings.Builder

	title := fmt.Sprintf("Semaine %s · charge %d (%s)", FormatWeekRange(week), week.Load, calendar.LoadLevel(week.Load))
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(title))) + "\n")

	for _, d := range week.Days {
		fmt.Fprintf(&b, "\n%s  [charge %d]\n", Capitalize(FormatDate(d.Date)), d.Load)
		if d.IsEmpty() {
			b.WriteString("  (rien de prévu)\n")
			continue
		}
		for _, e := range d.Specials() {
			fmt.Fprintf(&b, "  %s %s\n", e.Kind.Icon(), e.Title)
		}
		for _, e := range d.Events {
			if e.Kind.IsMarker() {
				continue
			}
			b.WriteString("  " + eventLine(e) + "\n")
		}
	}

	if budget := week.Budget(); budget > 0 {
		fmt.Fprintf(&b, "\nBudget de la semaine : %s\n", FormatBudget(budget))
	}

	b.WriteString("\n" + conflictHeading(conflicts) + "\n")
	for _, c := range bySeverity(conflicts) {
		fmt.Fprintf(&b, "  [%s] %s : %s\n", c.Severity.Label(), FormatDate(c.Day), c.Message)
		if c.Suggestion != "" {
			fmt.Fprintf(&b, "      -> %s\n", c.Suggestion)
		}
	}
	return b.String()
}

func eventLine(e model.CalendarEvent) string {
	when := e.TimeRange()
	if when == "" {
		when = "-"
	}
	line := fmt.Sprintf("%-11s  %s %s", when, e.Kind.Icon(), e.Title)
	if e.Location != "" && !strings.Contains(e.Title, e.Location) {
		line += " @ " + e.Location
	}
	if e.Budget != nil {
		line += " (" + FormatBudget(*e.Budget) + ")"
	}
	if e.Done {
		line += " ✓"
	}
	return line
}

func conflictHeading(conflicts []model.Conflict) string {
	if len(conflicts) == 0 {
		return "Aucun conflit détecté."
	}
	s := calendar.Summarize(conflicts)
	return fmt.Sprintf("Conflits (%d) : %s, %s, %s", s.Total,
		plural(s.Errors, "erreur", "erreurs"),
		plural(s.Warnings, "avertissement", "avertissements"),
		plural(s.Infos, "info", "infos"))
}

func plural(n int, one, many string) string {
	if n > 1 {
		return fmt.Sprintf("%d %s", n, many)
	}
	return fmt.Sprintf("%d %s", n, one)
}
