package specialdays

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famcal/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func find(days []model.SpecialDay, d time.Time, kind model.SpecialDayKind) *model.SpecialDay {
	for i := range days {
		if days[i].Date.Equal(d) && days[i].Kind == kind {
			return &days[i]
		}
	}
	return nil
}

type staticSource struct {
	days []model.SpecialDay
	err  error
}

func (s staticSource) SpecialDays(context.Context, time.Time, time.Time) ([]model.SpecialDay, error) {
	return s.days, s.err
}

func TestCalendar_FrenchHolidays(t *testing.T) {
	c := New()
	days, err := c.SpecialDays(context.Background(), date(2025, time.May, 1), date(2025, time.June, 1))
	require.NoError(t, err)

	assert.NotNil(t, find(days, date(2025, time.May, 1), model.SpecialHoliday))
	assert.NotNil(t, find(days, date(2025, time.May, 8), model.SpecialHoliday))
	assert.NotNil(t, find(days, date(2025, time.May, 29), model.SpecialHoliday), "Ascension")

	// Thursday holidays make the following Friday a bridge day.
	bridge := find(days, date(2025, time.May, 2), model.SpecialBridge)
	require.NotNil(t, bridge)
	assert.Contains(t, bridge.Name, "Pont")
	assert.NotNil(t, find(days, date(2025, time.May, 30), model.SpecialBridge))

	assert.Nil(t, find(days, date(2025, time.May, 5), model.SpecialHoliday))
}

func TestCalendar_Holiday(t *testing.T) {
	c := New()
	name, ok := c.Holiday(date(2024, time.December, 25))
	assert.True(t, ok)
	assert.NotEmpty(t, name)

	_, ok = c.Holiday(date(2024, time.December, 24))
	assert.False(t, ok)
}

func TestCalendar_TuesdayBridge(t *testing.T) {
	tuesday := &cal.Holiday{Name: "Fête locale", Type: cal.ObservancePublic, Month: time.March, Day: 12, Func: cal.CalcDayOfMonth}
	c := New(WithHolidays(tuesday))
	days, err := c.SpecialDays(context.Background(), date(2024, time.March, 11), date(2024, time.March, 18))
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, model.SpecialBridge, days[0].Kind)
	assert.True(t, days[0].Date.Equal(date(2024, time.March, 11)))
	assert.Equal(t, model.SpecialHoliday, days[1].Kind)

	days, err = New(WithHolidays(tuesday), WithoutBridges()).SpecialDays(context.Background(), date(2024, time.March, 11), date(2024, time.March, 18))
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestCalendar_ClosuresAndSources(t *testing.T) {
	c := New(
		WithHolidays(),
		WithClosures(Period{From: date(2024, time.August, 5), To: date(2024, time.August, 7), Name: "Fermeture estivale"}),
		WithSources(
			staticSource{days: []model.SpecialDay{
				{Date: date(2024, time.August, 6), Kind: model.SpecialDaycareClosure, Name: "doublon"},
				{Date: date(2024, time.August, 9), Kind: model.SpecialDaycareClosure, Name: "Formation"},
				{Date: date(2024, time.September, 2), Kind: model.SpecialDaycareClosure},
			}},
			staticSource{err: errors.New("feed down")},
		),
	)
	days, err := c.SpecialDays(context.Background(), date(2024, time.August, 1), date(2024, time.September, 1))
	require.NoError(t, err)
	require.Len(t, days, 4)

	assert.Equal(t, "Fermeture estivale", days[1].Name)
	assert.True(t, days[3].Date.Equal(date(2024, time.August, 9)))
	for _, d := range days {
		assert.Equal(t, model.SpecialDaycareClosure, d.Kind)
	}
}

func TestCalendar_HalfOpenRange(t *testing.T) {
	c := New(WithHolidays(), WithClosures(Period{From: date(2024, time.January, 1), To: date(2024, time.December, 31)}))
	days, err := c.SpecialDays(context.Background(), date(2024, time.January, 15), date(2024, time.January, 22))
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.True(t, days[6].Date.Equal(date(2024, time.January, 21)))
}

func TestDedup(t *testing.T) {
	d := date(2024, time.May, 1)
	got := Dedup([]model.SpecialDay{
		{Date: d.AddDate(0, 0, 1), Kind: model.SpecialHoliday},
		{Date: d, Kind: model.SpecialHoliday, Name: "first"},
		{Date: d, Kind: model.SpecialDaycareClosure},
		{Date: d, Kind: model.SpecialHoliday, Name: "second"},
	})
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[1].Name)
	assert.Equal(t, model.SpecialDaycareClosure, got[0].Kind)
}
