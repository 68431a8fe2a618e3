package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekday(d time.Weekday) *time.Weekday { return &d }

func TestParseFrequency(t *testing.T) {
	for in, want := range map[string]Frequency{
		"daily":         Daily,
		" Hebdomadaire": Weekly,
		"quinzaine":     Biweekly,
		"MENSUEL":       Monthly,
	} {
		got, err := ParseFrequency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFrequency("yearly")
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{
		"0":        time.Monday,
		"6":        time.Sunday,
		"Jeudi":    time.Thursday,
		" friday ": time.Friday,
	} {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"7", "-1", "someday", ""} {
		_, err := ParseWeekday(in)
		assert.ErrorIs(t, err, ErrUnknownWeekday, in)
	}
}

func TestNextOccurrences(t *testing.T) {
	today := at(date(2024, time.January, 17), 15, 30)

	cases := []struct {
		name    string
		rule    Recurrence
		horizon int
		want    []time.Time
	}{
		{
			name:    "daily within a short horizon",
			rule:    Recurrence{Frequency: Daily},
			horizon: 3,
			want: []time.Time{
				date(2024, time.January, 17), date(2024, time.January, 18),
				date(2024, time.January, 19), date(2024, time.January, 20),
			},
		},
		{
			name:    "weekly on monday",
			rule:    Recurrence{Frequency: Weekly, Weekday: weekday(time.Monday)},
			horizon: 30,
			want: []time.Time{
				date(2024, time.January, 22), date(2024, time.January, 29),
				date(2024, time.February, 5), date(2024, time.February, 12),
			},
		},
		{
			name:    "biweekly anchored on the first monday",
			rule:    Recurrence{Frequency: Biweekly, Weekday: weekday(time.Monday)},
			horizon: 30,
			want:    []time.Time{date(2024, time.January, 22), date(2024, time.February, 5)},
		},
		{
			name:    "monthly on the 31st skips short months",
			rule:    Recurrence{Frequency: Monthly, MonthDay: 31},
			horizon: 120,
			want:    []time.Time{date(2024, time.January, 31), date(2024, time.March, 31)},
		},
		{
			name:    "monthly on the first monday",
			rule:    Recurrence{Frequency: Monthly, Weekday: weekday(time.Monday)},
			horizon: 60,
			want:    []time.Time{date(2024, time.February, 5), date(2024, time.March, 4)},
		},
		{
			name:    "negative horizon",
			rule:    Recurrence{Frequency: Daily},
			horizon: -1,
			want:    nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextOccurrences(tc.rule, today, tc.horizon)
			require.NoError(t, err)
			require.Len(t, got, len(tc.want))
			for i := range tc.want {
				assert.True(t, got[i].Equal(tc.want[i]), "occurrence %d: got %s want %s", i, got[i], tc.want[i])
			}
		})
	}
}

func TestNextOccurrences_CappedAndInRange(t *testing.T) {
	today := date(2024, time.January, 17)
	got, err := NextOccurrences(Recurrence{Frequency: Daily}, today, 60)
	require.NoError(t, err)
	require.Len(t, got, MaxOccurrences)

	end := today.AddDate(0, 0, 60)
	for i, d := range got {
		assert.False(t, d.Before(today))
		assert.False(t, d.After(end))
		if i > 0 {
			assert.True(t, d.After(got[i-1]))
		}
	}
}

func TestNextOccurrences_Errors(t *testing.T) {
	today := date(2024, time.January, 17)
	_, err := NextOccurrences(Recurrence{Frequency: "yearly"}, today, 30)
	assert.ErrorIs(t, err, ErrUnknownFrequency)

	_, err = NextOccurrences(Recurrence{Frequency: Monthly, MonthDay: 32}, today, 30)
	assert.ErrorIs(t, err, ErrInvalidMonthDay)

	for _, f := range []Frequency{Weekly, Biweekly, Monthly} {
		_, err = NextOccurrences(Recurrence{Frequency: f, Weekday: weekday(time.Weekday(8)), MonthDay: 1}, today, 30)
		assert.ErrorIs(t, err, ErrUnknownWeekday, string(f))
	}
	_, err = NextOccurrences(Recurrence{Frequency: Weekly, Weekday: weekday(time.Weekday(-1))}, today, 30)
	assert.ErrorIs(t, err, ErrUnknownWeekday)
}
