package model

// EventKind identifies which source a CalendarEvent was projected from.
type EventKind string

const (
	KindBreakfast      EventKind = "meal_breakfast"
	KindLunch          EventKind = "meal_lunch"
	KindSnack          EventKind = "snack"
	KindDinner         EventKind = "meal_dinner"
	KindBatchCooking   EventKind = "batch_cooking"
	KindErrand         EventKind = "errand"
	KindActivity       EventKind = "activity"
	KindMedical        EventKind = "medical"
	KindAppointment    EventKind = "appointment"
	KindChore          EventKind = "chore"
	KindRoutine        EventKind = "routine"
	KindEvent          EventKind = "event"
	KindHoliday        EventKind = "holiday"
	KindDaycareClosure EventKind = "daycare_closure"
	KindBridgeDay      EventKind = "bridge_day"
)

var kindLabels = map[EventKind]string{
	KindBreakfast:      "Petit-déjeuner",
	KindLunch:          "Déjeuner",
	KindSnack:          "Goûter",
	KindDinner:         "Dîner",
	KindBatchCooking:   "Batch cooking",
	KindErrand:         "Courses",
	KindActivity:       "Activité",
	KindMedical:        "RDV médical",
	KindAppointment:    "Rendez-vous",
	KindChore:          "Tâche ménagère",
	KindRoutine:        "Routine",
	KindEvent:          "Événement",
	KindHoliday:        "Jour férié",
	KindDaycareClosure: "Crèche fermée",
	KindBridgeDay:      "Pont",
}

var kindIcons = map[EventKind]string{
	KindBreakfast:      "☕",
	KindLunch:          "🍽",
	KindSnack:          "🍪",
	KindDinner:         "🍲",
	KindBatchCooking:   "🍳",
	KindErrand:         "🛒",
	KindActivity:       "🎨",
	KindMedical:        "🏥",
	KindAppointment:    "📌",
	KindChore:          "🧹",
	KindRoutine:        "🔁",
	KindEvent:          "📅",
	KindHoliday:        "🎉",
	KindDaycareClosure: "🚸",
	KindBridgeDay:      "🌉",
}

// Label returns the French display label of the kind.
func (k EventKind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

func (k EventKind) Icon() string {
	return kindIcons[k]
}

// IsMarker reports whether the kind is a special-day marker rather than
// something that takes time in the day.
func (k EventKind) IsMarker() bool {
	switch k {
	case KindHoliday, KindDaycareClosure, KindBridgeDay:
		return true
	}
	return false
}

func (k EventKind) IsMeal() bool {
	switch k {
	case KindBreakfast, KindLunch, KindSnack, KindDinner:
		return true
	}
	return false
}
