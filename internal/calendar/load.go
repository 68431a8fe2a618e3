package calendar

import (
	"math"

	"famcal/internal/model"
)

const maxLoad = 100

var kindWeights = map[model.EventKind]int{
	model.KindBreakfast:    3,
	model.KindSnack:        3,
	model.KindLunch:        5,
	model.KindDinner:       5,
	model.KindBatchCooking: 15,
	model.KindErrand:       10,
	model.KindActivity:     15,
	model.KindMedical:      20,
	model.KindAppointment:  15,
	model.KindChore:        5,
	model.KindRoutine:      5,
	model.KindEvent:        10,
}

// DayLoad scores how full a day is on a 0-100 scale: a weight per event
// kind plus 5 points per hour an event lasts beyond its first.
func DayLoad(events []model.CalendarEvent) int {
	score := 0
	for _, e := range events {
		if e.Kind.IsMarker() {
			continue
		}
		score += kindWeights[e.Kind]
		if e.Start != nil && e.End != nil {
			if extra := (int(*e.End) - int(*e.Start) - 60) / 60; extra > 0 {
				score += 5 * extra
			}
		}
	}
	if score > maxLoad {
		return maxLoad
	}
	return score
}

// WeekLoad is the rounded mean of the day loads.
func WeekLoad(days [model.DaysPerWeek]model.DayView) int {
	total := 0
	for _, d := range days {
		total += d.Load
	}
	return int(math.Round(float64(total) / model.DaysPerWeek))
}

// LoadLevel names a load score bucket.
func LoadLevel(score int) string {
	switch {
	case score < 30:
		return "calme"
	case score < 60:
		return "normal"
	case score < 85:
		return "chargé"
	default:
		return "surchargé"
	}
}
