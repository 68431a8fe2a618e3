package export

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famcal/internal/calendar"
	"famcal/internal/model"
)

func sampleWeek(t *testing.T) (model.WeekView, []model.Conflict) {
	t.Helper()
	monday := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	cost := 12.5
	start, end := model.MustClock("17:00"), model.MustClock("18:00")
	late := model.MustClock("17:30")
	week, errs := calendar.BuildWeek(monday, calendar.Collections{
		Meals: []model.Meal{{ID: 1, Date: monday, Type: model.MealDinner, Recipe: "Soupe <maison>"}},
		Activities: []model.Activity{
			{ID: 1, Title: "Judo", Date: monday.AddDate(0, 0, 1), Start: &start, End: &end, Location: "Dojo", Cost: &cost},
			{ID: 2, Title: "Anniversaire", Date: monday.AddDate(0, 0, 1), Start: &late},
		},
		SpecialDays: []model.SpecialDay{{Date: monday.AddDate(0, 0, 3), Kind: model.SpecialDaycareClosure, Name: "Formation"}},
	})
	require.Empty(t, errs)
	conflicts := calendar.NewDetector(calendar.Rules{}).DetectWeek(context.Background(), week)
	require.NotEmpty(t, conflicts)
	return week, conflicts
}

func TestFormatting(t *testing.T) {
	d := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "lundi", DayName(d))
	assert.Equal(t, "lundi 15 janvier", FormatDate(d))
	assert.Equal(t, "Lundi 15 janvier", Capitalize(FormatDate(d)))
	assert.Equal(t, "", Capitalize(""))
	assert.Contains(t, FormatBudget(12.5), "12,50")
	assert.True(t, strings.HasSuffix(FormatBudget(3), "€"))

	assert.Equal(t, "du 15 au 21 janvier 2024", FormatWeekRange(model.WeekView{Start: d}))
	assert.Equal(t, "du 29 janvier au 4 février 2024", FormatWeekRange(model.WeekView{Start: d.AddDate(0, 0, 14)}))
	assert.Equal(t, "du 30 décembre 2024 au 5 janvier 2025", FormatWeekRange(model.WeekView{Start: time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)}))
}

func TestText(t *testing.T) {
	week, conflicts := sampleWeek(t)
	out := Text(week, conflicts)

	assert.True(t, strings.HasPrefix(out, "Semaine du 15 au 21 janvier 2024"))
	assert.Contains(t, out, "Lundi 15 janvier")
	assert.Contains(t, out, "19:00")
	assert.Contains(t, out, "17:00-18:00")
	assert.Contains(t, out, "Judo @ Dojo")
	assert.Contains(t, out, "12,50")
	assert.Contains(t, out, "Formation")
	assert.Contains(t, out, "(rien de prévu)")
	assert.Contains(t, out, "[Erreur] mardi 16 janvier : Chevauchement")
	assert.Contains(t, out, "-> Décaler")
	assert.Contains(t, out, "Budget de la semaine")

	empty := Text(model.WeekView{Start: week.Start}, nil)
	assert.Contains(t, empty, "Aucun conflit détecté.")
	assert.NotContains(t, empty, "Budget")
}

func TestHTML(t *testing.T) {
	week, conflicts := sampleWeek(t)
	out, err := HTML(week, conflicts)
	require.NoError(t, err)
	page := string(out)

	assert.Contains(t, page, `data-ready="true"`)
	assert.Contains(t, page, "Semaine du 15 au 21 janvier 2024")
	assert.Contains(t, page, "Soupe &lt;maison&gt;")
	assert.NotContains(t, page, "Soupe <maison>")
	assert.Contains(t, page, "Judo")
	assert.Contains(t, page, "Erreur")
	assert.Contains(t, page, "Rien de prévu")
	assert.Equal(t, 7, strings.Count(page, `<article class="day">`))
}

func TestICS(t *testing.T) {
	week, _ := sampleWeek(t)
	stamp := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	out := ICS(week, stamp)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, len(week.Events()))

	byUID := map[string]*ical.VEvent{}
	for _, ev := range events {
		byUID[ev.Id()] = ev
	}
	judo := week.Days[1].Activities()[0]
	ev, ok := byUID[EventUID(judo)]
	require.True(t, ok)
	start, err := ev.GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, time.January, 16, 17, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dojo", ev.GetProperty(ical.ComponentPropertyLocation).Value)

	// UIDs are stable across exports.
	assert.Equal(t, out, ICS(week, stamp))
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240118")
}

func TestPDF(t *testing.T) {
	_, err := PDF(context.Background(), nil, RenderOptions{})
	assert.Error(t, err)
	_, err = PNG(context.Background(), nil, RenderOptions{})
	assert.Error(t, err)

	chrome := os.Getenv("FAMCAL_TEST_CHROME")
	if chrome == "" {
		t.Skip("FAMCAL_TEST_CHROME not set")
	}
	week, conflicts := sampleWeek(t)
	doc, err := HTML(week, conflicts)
	require.NoError(t, err)
	pdf, err := PDF(context.Background(), doc, RenderOptions{ChromePath: chrome, NoSandbox: true, Landscape: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}
