package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"famcal/internal/calendar"
	"famcal/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var weekTemplate = template.Must(template.New("week.html.tmpl").Funcs(template.FuncMap{
	"budget": func(v *float64) string { return FormatBudget(*v) },
	"date":   FormatDate,
}).ParseFS(templateFS, "templates/week.html.tmpl"))

type htmlDay struct {
	Heading   string
	Load      int
	LoadClass string
	Specials  []model.CalendarEvent
	Events    []model.CalendarEvent
}

type htmlPage struct {
	Title           string
	Level           string
	Budget          string
	Week            model.WeekView
	Days            []htmlDay
	Conflicts       []model.Conflict
	ConflictHeading string
}

// HTML renders a printable week page. The root element carries
// data-ready="true" so headless renderers know the page is complete.
func HTML(week model.WeekView, conflicts []model.Conflict) ([]byte, error) {
	page := htmlPage{
		Title:           "Semaine " + FormatWeekRange(week),
		Level:           calendar.LoadLevel(week.Load),
		Week:            week,
		Conflicts:       bySeverity(conflicts),
		ConflictHeading: conflictHeading(conflicts),
	}
	if b := week.Budget(); b > 0 {
		page.Budget = FormatBudget(b)
	}
	for _, d := range week.Days {
		hd := htmlDay{
			Heading:   Capitalize(FormatDate(d.Date)),
			Load:      d.Load,
			LoadClass: loadClass(d.Load),
			Specials:  d.Specials(),
		}
		for _, e := range d.Events {
			if !e.Kind.IsMarker() {
				hd.Events = append(hd.Events, e)
			}
		}
		page.Days = append(page.Days, hd)
	}

	var buf bytes.Buffer
	if err := weekTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render week html: %w", err)
	}
	return buf.Bytes(), nil
}

func loadClass(score int) string {
	switch {
	case score >= 85:
		return "surcharge"
	case score >= 60:
		return "charge"
	}
	return ""
}
