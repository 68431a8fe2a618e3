package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxOccurrences caps the dates returned by NextOccurrences.
const MaxOccurrences = 10

type Frequency string

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
)

// ParseFrequency accepts the English names and their French equivalents.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "quotidien", "quotidienne":
		return Daily, nil
	case "weekly", "hebdomadaire":
		return Weekly, nil
	case "biweekly", "bimensuel", "toutes_les_2_semaines", "quinzaine":
		return Biweekly, nil
	case "monthly", "mensuel", "mensuelle":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "lundi": time.Monday,
	"tuesday": time.Tuesday, "mardi": time.Tuesday,
	"wednesday": time.Wednesday, "mercredi": time.Wednesday,
	"thursday": time.Thursday, "jeudi": time.Thursday,
	"friday": time.Friday, "vendredi": time.Friday,
	"saturday": time.Saturday, "samedi": time.Saturday,
	"sunday": time.Sunday, "dimanche": time.Sunday,
}

// ParseWeekday accepts an English or French day name, or an index where
// 0 is Monday and 6 is Sunday.
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdayNames[v]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < 7 {
		return time.Weekday((n + 1) % 7), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
}

// Recurrence describes a recurring task rule. Weekday anchors weekly and
// biweekly rules (default: today's weekday). Monthly rules use MonthDay
// when set, else the first Weekday of the month, else today's day.
type Recurrence struct {
	Frequency Frequency
	Weekday   *time.Weekday
	MonthDay  int
}

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// NextOccurrences lists up to MaxOccurrences dates within
// [today, today+horizonDays] matching r, in order. Month days that do not
// exist in a month (31 in April) are skipped.
func NextOccurrences(r Recurrence, today time.Time, horizonDays int) ([]time.Time, error) {
	if horizonDays < 0 {
		return nil, nil
	}
	if r.Weekday != nil && (*r.Weekday < time.Sunday || *r.Weekday > time.Saturday) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWeekday, *r.Weekday)
	}
	start := DateOf(today)
	end := start.AddDate(0, 0, horizonDays)

	opt := rrule.ROption{Dtstart: start, Count: MaxOccurrences}
	switch r.Frequency {
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly, Biweekly:
		opt.Freq = rrule.WEEKLY
		if r.Frequency == Biweekly {
			opt.Interval = 2
		}
		wd := start.Weekday()
		if r.Weekday != nil {
			wd = *r.Weekday
		}
		// Anchor on the first matching day so the two-week cadence counts
		// from the first occurrence, not from today's week.
		opt.Dtstart = start.AddDate(0, 0, (int(wd)-int(start.Weekday())+7)%7)
		opt.Byweekday = []rrule.Weekday{rruleWeekdays[wd]}
	case Monthly:
		opt.Freq = rrule.MONTHLY
		switch {
		case r.MonthDay != 0:
			if r.MonthDay < 1 || r.MonthDay > 31 {
				return nil, fmt.Errorf("%w: %d", ErrInvalidMonthDay, r.MonthDay)
			}
			opt.Bymonthday = []int{r.MonthDay}
		case r.Weekday != nil:
			opt.Byweekday = []rrule.Weekday{rruleWeekdays[*r.Weekday].Nth(1)}
		default:
			opt.Bymonthday = []int{start.Day()}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, r.Frequency)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build recurrence rule: %w", err)
	}
	dates := rule.Between(start, end, true)
	if len(dates) > MaxOccurrences {
		dates = dates[:MaxOccurrences]
	}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, DateOf(d.In(start.Location())))
	}
	return out, nil
}
