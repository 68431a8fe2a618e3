package calendar

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famcal/internal/model"
)

func sampleCollections(monday time.Time) Collections {
	tuesday := monday.AddDate(0, 0, 1)
	return Collections{
		Meals: []model.Meal{
			{ID: 1, Date: tuesday, Type: model.MealDinner, Recipe: "Soupe"},
			{ID: 2, Date: tuesday, Type: model.MealLunch, Recipe: "Quiche"},
			{ID: 3, Date: tuesday, Type: "brunch"},
		},
		Activities: []model.Activity{
			{ID: 1, Title: "Parc", Date: tuesday},
			{ID: 2, Title: "Judo", Date: tuesday, Start: clock("17:00"), End: clock("18:00")},
		},
		Errands: []model.Errand{{ID: 1, Date: monday.AddDate(0, 0, 5), Store: "Marché"}},
		Chores:  []model.Chore{{ID: 3, Name: "Aspirateur", IntervalDays: 7}},
		SpecialDays: []model.SpecialDay{
			{Date: monday.AddDate(0, 0, 6), Kind: model.SpecialHoliday, Name: "Pâques"},
			{Date: monday.AddDate(0, 0, 6), Kind: model.SpecialHoliday, Name: "Pâques"},
			{Date: monday.AddDate(0, 0, 6), Kind: model.SpecialDaycareClosure},
		},
		// Outside the week.
		Items: []model.CalendarItem{{ID: 1, Title: "Plus tard", Start: at(monday.AddDate(0, 0, 9), 10, 0)}},
	}
}

func TestBuildWeek(t *testing.T) {
	monday := date(2024, time.January, 15)
	week, dropped := BuildWeek(monday.AddDate(0, 0, 3), sampleCollections(monday))

	require.Len(t, dropped, 1)
	assert.ErrorIs(t, dropped[0], ErrUnknownMealType)

	assert.True(t, week.Start.Equal(monday))
	for i, d := range week.Days {
		assert.True(t, d.Date.Equal(monday.AddDate(0, 0, i)), "day %d", i)
		assert.True(t, slices.IsSortedFunc(d.Events, model.CompareEvents), "day %d not sorted", i)
	}

	tuesday := week.Days[1]
	require.Len(t, tuesday.Events, 4)
	assert.Equal(t, []string{"meal-2", "activity-2", "meal-1", "activity-1"}, eventIDs(tuesday.Events))
	require.NotNil(t, tuesday.Lunch())
	require.NotNil(t, tuesday.Dinner())
	assert.Equal(t, "Quiche", tuesday.Lunch().Title)

	require.Len(t, week.Days[3].Chores(), 1)
	assert.Equal(t, "chore-3-20240118", week.Days[3].Chores()[0].ID)

	require.Len(t, week.Days[5].Errands(), 1)

	sunday := week.Days[6]
	assert.Len(t, sunday.Specials(), 2)
	assert.True(t, sunday.Has(model.KindHoliday))
	assert.True(t, sunday.Has(model.KindDaycareClosure))
	assert.Equal(t, 0, sunday.Count())

	assert.Equal(t, 6, week.Count())
	assert.Equal(t, WeekLoad(week.Days), week.Load)
	assert.Equal(t, DayLoad(tuesday.Events), tuesday.Load)
}

func TestBuildWeek_Empty(t *testing.T) {
	week, dropped := BuildWeek(date(2024, time.January, 21), Collections{})
	assert.Empty(t, dropped)
	assert.True(t, week.Start.Equal(date(2024, time.January, 15)))
	assert.True(t, week.End().Equal(date(2024, time.January, 21)))
	for _, d := range week.Days {
		assert.True(t, d.IsEmpty())
	}
	assert.Equal(t, 0, week.Load)
}

func eventIDs(events []model.CalendarEvent) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestAggregator_Week(t *testing.T) {
	monday := date(2024, time.January, 15)
	src := fakeSources{in: sampleCollections(monday)}
	feed := fakeFeed{{ExternalID: "uid-1", Title: "Réunion parents", Start: at(monday, 18, 30)}}

	agg := NewAggregator(src,
		WithLocation(time.UTC),
		WithFeeds(feed),
		WithSpecialDays(fakeSpecials{days: []model.SpecialDay{{Date: monday, Kind: model.SpecialBridge}}}),
	)
	week, dropped := agg.WeekWithErrors(context.Background(), monday.AddDate(0, 0, 2))
	assert.Len(t, dropped, 1)
	assert.True(t, week.Start.Equal(monday))

	ids := eventIDs(week.Days[0].Events)
	assert.Contains(t, ids, "feed-uid-1")
	assert.True(t, week.Days[0].Has(model.KindBridgeDay))
}

func TestAggregator_FailingCollaborator(t *testing.T) {
	monday := date(2024, time.January, 15)
	agg := NewAggregator(fakeSources{in: sampleCollections(monday), failing: "meals"},
		WithLocation(time.UTC),
		WithSpecialDays(fakeSpecials{err: errUnavailable}),
	)
	week := agg.Week(context.Background(), monday)

	tuesday := week.Days[1]
	assert.Nil(t, tuesday.Lunch())
	assert.Len(t, tuesday.Activities(), 2)
	assert.Empty(t, week.Days[6].Specials())
}

func TestAggregator_NilSources(t *testing.T) {
	week := NewAggregator(nil, WithLocation(time.UTC)).Week(context.Background(), date(2024, time.January, 17))
	assert.Equal(t, 0, week.Count())
}

func TestAggregator_DayAndRange(t *testing.T) {
	monday := date(2024, time.January, 15)
	agg := NewAggregator(fakeSources{in: sampleCollections(monday)}, WithLocation(time.UTC))

	day := agg.Day(context.Background(), monday.AddDate(0, 0, 1))
	assert.True(t, day.Date.Equal(monday.AddDate(0, 0, 1)))
	assert.Len(t, day.Activities(), 2)

	weeks := agg.Range(context.Background(), date(2024, time.January, 17), date(2024, time.January, 30))
	require.Len(t, weeks, 3)
	assert.True(t, weeks[2].Start.Equal(date(2024, time.January, 29)))
}
