package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famcal/internal/model"
)

func TestPlaceChore(t *testing.T) {
	monday := date(2024, time.January, 15)

	t.Run("weekly chore lands on id mod 7", func(t *testing.T) {
		c := model.Chore{ID: 3, IntervalDays: 7}
		day, ok := PlaceChore(c, monday)
		require.True(t, ok)
		assert.Equal(t, time.Thursday, day.Weekday())

		again, _ := PlaceChore(c, monday)
		assert.True(t, day.Equal(again))

		next, ok := PlaceChore(c, NextWeek(monday))
		require.True(t, ok)
		assert.Equal(t, time.Thursday, next.Weekday())
	})

	t.Run("id multiple of 7 is monday", func(t *testing.T) {
		day, ok := PlaceChore(model.Chore{ID: 14, IntervalDays: 1}, monday)
		require.True(t, ok)
		assert.True(t, day.Equal(monday))
	})

	t.Run("next due inside the week wins", func(t *testing.T) {
		due := date(2024, time.January, 20)
		day, ok := PlaceChore(model.Chore{ID: 3, IntervalDays: 7, NextDue: &due}, monday)
		require.True(t, ok)
		assert.True(t, day.Equal(due))
	})

	t.Run("next due outside the week falls back", func(t *testing.T) {
		due := date(2024, time.February, 20)
		day, ok := PlaceChore(model.Chore{ID: 3, IntervalDays: 7, NextDue: &due}, monday)
		require.True(t, ok)
		assert.Equal(t, time.Thursday, day.Weekday())
	})

	t.Run("long interval without due date is skipped", func(t *testing.T) {
		_, ok := PlaceChore(model.Chore{ID: 3, IntervalDays: 14}, monday)
		assert.False(t, ok)
	})

	t.Run("paused", func(t *testing.T) {
		_, ok := PlaceChore(model.Chore{ID: 3, IntervalDays: 7, Paused: true}, monday)
		assert.False(t, ok)
	})
}

func TestProjectChores(t *testing.T) {
	monday := date(2024, time.January, 15)
	chores := []model.Chore{
		{ID: 1, Name: "Linge", IntervalDays: 7},
		{ID: 8, Name: "Poubelles", IntervalDays: 3},
		{ID: 2, Name: "Vitres", IntervalDays: 30},
	}
	days := ProjectChores(chores, monday)
	require.Len(t, days[1], 2)
	assert.Equal(t, "chore-1-20240116", days[1][0].ID)
	assert.Equal(t, "chore-8-20240116", days[1][1].ID)
	for i, d := range days {
		if i != 1 {
			assert.Empty(t, d)
		}
	}
	assert.Equal(t, 7, chores[0].IntervalDays)
}

func TestChoreOccurrences(t *testing.T) {
	c := model.Chore{ID: 3, IntervalDays: 7}
	got := ChoreOccurrences(c, date(2024, time.January, 16), date(2024, time.February, 4))
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(date(2024, time.January, 18)))
	assert.True(t, got[2].Equal(date(2024, time.February, 1)))

	assert.Empty(t, ChoreOccurrences(c, date(2024, time.February, 4), date(2024, time.January, 16)))
}
