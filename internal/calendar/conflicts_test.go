package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famcal/internal/model"
)

func dayOf(day time.Time, events ...model.CalendarEvent) model.DayView {
	return model.DayView{Date: day, Events: events}
}

func byKind(conflicts []model.Conflict, kind model.ConflictKind) []model.Conflict {
	var out []model.Conflict
	for _, c := range conflicts {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestDefaultRules(t *testing.T) {
	var r Rules
	r.Normalize()
	assert.Equal(t, DefaultRules(), r)
	assert.Equal(t, "07:00", r.EarliestStart.String())
	assert.Equal(t, "22:00", r.LatestStart.String())

	r = Rules{MarginMin: 30}
	r.Normalize()
	assert.Equal(t, 30, r.MarginMin)
	assert.Equal(t, DefaultOverloadThreshold, r.OverloadThreshold)

	// Zero reads as unset: a zero margin or a midnight earliest start
	// cannot be configured.
	r = Rules{MarginMin: 0, EarliestStart: model.NewClock(0, 0), LatestStart: model.NewClock(23, 0)}
	r.Normalize()
	assert.Equal(t, DefaultMarginMin, r.MarginMin)
	assert.Equal(t, "07:00", r.EarliestStart.String())
	assert.Equal(t, "23:00", r.LatestStart.String())

	r = Rules{EarliestStart: model.NewClock(0, 1)}
	r.Normalize()
	assert.Equal(t, "00:01", r.EarliestStart.String())
}

func TestDetectDay_IdenticalEventsOverlapOnce(t *testing.T) {
	day := date(2024, time.January, 16)
	a := timedEvent("a", "Piscine", day, "10:00", "11:00")
	b := timedEvent("b", "Piscine", day, "10:00", "11:00")

	got := NewDetector(Rules{}).DetectDay(context.Background(), dayOf(day, a, b))
	require.Len(t, got, 1)
	assert.Equal(t, model.ConflictOverlap, got[0].Kind)
	assert.Equal(t, model.SeverityError, got[0].Severity)
	assert.Equal(t, "Décaler « Piscine » à 11:15", got[0].Suggestion)
	require.NotNil(t, got[0].EventA)
	require.NotNil(t, got[0].EventB)
}

func TestDetectDay_SameStartAlwaysOverlaps(t *testing.T) {
	day := date(2024, time.January, 16)
	det := NewDetector(Rules{})

	instant := det.DetectDay(context.Background(), dayOf(day,
		timedEvent("a", "Rappel", day, "10:00", "10:00"),
		timedEvent("b", "Rappel", day, "10:00", "10:00"),
	))
	overlaps := byKind(instant, model.ConflictOverlap)
	require.Len(t, overlaps, 1)
	assert.Equal(t, model.SeverityError, overlaps[0].Severity)
	assert.Equal(t, "Décaler « Rappel » à 10:15", overlaps[0].Suggestion)
	assert.Empty(t, byKind(instant, model.ConflictInsufficientMargin))

	// Without an end, a 23:59 start is clamped to a zero-length event.
	late := det.DetectDay(context.Background(), dayOf(day,
		timedEvent("a", "Veille", day, "23:59", ""),
		timedEvent("b", "Veille", day, "23:59", ""),
	))
	overlaps = byKind(late, model.ConflictOverlap)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "a", overlaps[0].EventA.ID)
	assert.Equal(t, "b", overlaps[0].EventB.ID)
	assert.Equal(t, "Déplacer « Veille » à un autre jour", overlaps[0].Suggestion)
	assert.Empty(t, byKind(late, model.ConflictInsufficientMargin))
}

func TestDetectDay_OverlapUsesDefaultDuration(t *testing.T) {
	day := date(2024, time.January, 16)
	a := timedEvent("a", "Dentiste", day, "10:00", "")
	b := timedEvent("b", "Courses", day, "10:45", "11:00")
	c := timedEvent("c", "Goûter", day, "11:30", "")

	got := NewDetector(Rules{}).DetectDay(context.Background(), dayOf(day, a, b, c))
	overlaps := byKind(got, model.ConflictOverlap)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "a", overlaps[0].EventA.ID)
	assert.Equal(t, "b", overlaps[0].EventB.ID)
}

func TestDetectDay_LateOverlapSuggestsAnotherDay(t *testing.T) {
	day := date(2024, time.January, 16)
	a := timedEvent("a", "Soirée", day, "21:00", "23:50")
	b := timedEvent("b", "Film", day, "21:30", "23:00")

	overlaps := byKind(NewDetector(Rules{}).DetectDay(context.Background(), dayOf(day, a, b)), model.ConflictOverlap)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "Déplacer « Film » à un autre jour", overlaps[0].Suggestion)
}

func TestDetectDay_Margin(t *testing.T) {
	day := date(2024, time.January, 16)
	det := NewDetector(Rules{})

	tight := det.DetectDay(context.Background(), dayOf(day,
		timedEvent("a", "École", day, "10:00", "11:00"),
		timedEvent("b", "Orthophoniste", day, "11:10", "12:00"),
	))
	margins := byKind(tight, model.ConflictInsufficientMargin)
	require.Len(t, margins, 1)
	assert.Equal(t, model.SeverityWarning, margins[0].Severity)
	assert.Contains(t, margins[0].Message, "10 min")
	assert.Empty(t, byKind(tight, model.ConflictOverlap))

	enough := det.DetectDay(context.Background(), dayOf(day,
		timedEvent("a", "École", day, "10:00", "11:00"),
		timedEvent("b", "Orthophoniste", day, "11:15", "12:00"),
	))
	assert.Empty(t, enough)
}

func TestDetectDay_MarginAfterNestedEvent(t *testing.T) {
	day := date(2024, time.January, 16)
	got := NewDetector(Rules{}).DetectDay(context.Background(), dayOf(day,
		timedEvent("a", "Stage", day, "09:00", "12:00"),
		timedEvent("b", "Appel", day, "10:00", "10:30"),
		timedEvent("c", "Déjeuner", day, "12:05", "13:00"),
	))
	margins := byKind(got, model.ConflictInsufficientMargin)
	require.Len(t, margins, 1)
	assert.Equal(t, "a", margins[0].EventA.ID)
	assert.Equal(t, "c", margins[0].EventB.ID)
}

func TestDetectDay_Overload(t *testing.T) {
	day := date(2024, time.January, 16)
	var events []model.CalendarEvent
	for i := range 6 {
		events = append(events, model.CalendarEvent{ID: string(rune('a' + i)), Kind: model.KindChore, Title: "Tâche", Day: day})
	}

	det := NewDetector(Rules{})
	got := byKind(det.DetectDay(context.Background(), dayOf(day, events...)), model.ConflictOverload)
	require.Len(t, got, 1)
	assert.Equal(t, model.SeverityWarning, got[0].Severity)

	assert.Empty(t, byKind(det.DetectDay(context.Background(), dayOf(day, events[:5]...)), model.ConflictOverload))

	// Markers do not count.
	withMarker := append(events[:5:5], model.CalendarEvent{Kind: model.KindHoliday, Day: day})
	assert.Empty(t, byKind(det.DetectDay(context.Background(), dayOf(day, withMarker...)), model.ConflictOverload))
}

func TestDetectDay_UnusualHour(t *testing.T) {
	day := date(2024, time.January, 16)
	got := NewDetector(Rules{}).DetectDay(context.Background(), dayOf(day,
		timedEvent("a", "Train", day, "06:30", "07:00"),
		timedEvent("b", "Bilan", day, "12:00", "12:30"),
		timedEvent("c", "Appel", day, "22:00", "22:10"),
		timedEvent("d", "Vol", day, "22:30", "23:00"),
	))
	unusual := byKind(got, model.ConflictUnusualHour)
	require.Len(t, unusual, 2)
	assert.Equal(t, "a", unusual[0].EventA.ID)
	assert.Equal(t, "d", unusual[1].EventA.ID)
	assert.Equal(t, model.SeverityInfo, unusual[0].Severity)
}

func TestDetectDay_SpecialDays(t *testing.T) {
	day := date(2024, time.May, 1)
	medical := timedEvent("m", "Pédiatre", day, "10:00", "10:30")
	medical.Kind = model.KindMedical
	kid := timedEvent("k", "Éveil musical", day, "15:00", "16:00")
	kid.ForChild = true
	view := dayOf(day, medical, kid)

	t.Run("holiday", func(t *testing.T) {
		det := NewDetector(Rules{}, WithSpecialDayLookup(fakeSpecials{days: []model.SpecialDay{
			{Date: day, Kind: model.SpecialHoliday, Name: "Fête du Travail"},
		}}))
		got := byKind(det.DetectDay(context.Background(), view), model.ConflictHolidayMismatch)
		require.Len(t, got, 1)
		assert.Equal(t, "m", got[0].EventA.ID)
		assert.Contains(t, got[0].Message, "Fête du Travail")
	})

	t.Run("daycare closure", func(t *testing.T) {
		det := NewDetector(Rules{}, WithSpecialDayLookup(fakeSpecials{days: []model.SpecialDay{
			{Date: day, Kind: model.SpecialDaycareClosure},
		}}))
		got := byKind(det.DetectDay(context.Background(), view), model.ConflictDaycareClosure)
		require.Len(t, got, 1)
		assert.Equal(t, "k", got[0].EventA.ID)
	})

	t.Run("failing lookup skips the rules", func(t *testing.T) {
		overlapping := dayOf(day, medical, kid, timedEvent("x", "Réunion", day, "10:15", "11:00"))
		det := NewDetector(Rules{}, WithSpecialDayLookup(fakeSpecials{err: errUnavailable}))
		got := det.DetectDay(context.Background(), overlapping)
		assert.Empty(t, byKind(got, model.ConflictHolidayMismatch))
		assert.Empty(t, byKind(got, model.ConflictDaycareClosure))
		assert.Len(t, byKind(got, model.ConflictOverlap), 1)
	})

	t.Run("no lookup", func(t *testing.T) {
		assert.Empty(t, NewDetector(Rules{}).DetectDay(context.Background(), view))
	})
}

func TestDetectWeek(t *testing.T) {
	monday := date(2024, time.January, 15)
	week, errs := BuildWeek(monday, Collections{Activities: []model.Activity{
		{ID: 1, Title: "Judo", Date: monday.AddDate(0, 0, 1), Start: clock("17:00"), End: clock("18:00")},
		{ID: 2, Title: "Anniversaire", Date: monday.AddDate(0, 0, 1), Start: clock("17:30"), End: clock("19:00")},
	}})
	require.Empty(t, errs)

	got := NewDetector(Rules{}).DetectWeek(context.Background(), week)
	require.Len(t, got, 1)
	assert.True(t, got[0].Day.Equal(monday.AddDate(0, 0, 1)))

	s := Summarize(got)
	assert.Equal(t, model.Summary{Total: 1, Errors: 1}, s)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.Conflict{
		{Severity: model.SeverityError},
		{Severity: model.SeverityWarning},
		{Severity: model.SeverityWarning},
		{Severity: model.SeverityInfo},
	})
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 2, s.Warnings)
	assert.Equal(t, 1, s.Infos)
	assert.True(t, s.HasErrors())
}
