package model

import "time"

// The record types below are the narrow shapes the collaborator layer
// (SQLite store, ICS feeds, special-days calendar) must produce. Optional
// attributes are pointers or zero values; converters substitute defaults.

// MealType mirrors the meal slots used by the meal planner.
type MealType string

const (
	MealBreakfast MealType = "petit_dejeuner"
	MealLunch     MealType = "dejeuner"
	MealSnack     MealType = "gouter"
	MealDinner    MealType = "diner"
)

// Meal is a planned meal for a date and slot.
type Meal struct {
	ID       int64
	Date     time.Time
	Type     MealType
	Recipe   string
	Servings int
	Prepared bool
	Notes    string
}

// BatchSession is a cooking session producing several meals at once.
type BatchSession struct {
	ID      int64
	Date    time.Time
	Name    string
	Start   *Clock
	End     *Clock
	Recipes []string
	Status  string // planned, in_progress, done
	Notes   string
}

// Activity is a family or kid activity.
type Activity struct {
	ID           int64
	Title        string
	Type         string
	Date         time.Time
	Start        *Clock
	End          *Clock
	Location     string
	Participants []string
	ForChild     bool
	Cost         *float64
	Done         bool
	Notes        string
}

// CalendarItem is a free-form calendar entry (appointment, outing,
// routine). Items coming from an ICS subscription carry ExternalID.
type CalendarItem struct {
	ID           int64
	ExternalID   string
	Title        string
	Type         string
	Start        time.Time
	End          *time.Time
	AllDay       bool
	Location     string
	Participants []string
	ForChild     bool
	Done         bool
	Notes        string
}

// Errand is a planned shopping run.
type Errand struct {
	ID     int64
	Date   time.Time
	Start  *Clock
	Store  string
	Items  int
	Budget *float64
	Done   bool
	Notes  string
}

// Chore is a recurring household task. Placement follows NextDue when it
// falls inside the requested week, otherwise IntervalDays.
type Chore struct {
	ID           int64
	Name         string
	Category     string
	IntervalDays int
	NextDue      *time.Time
	DurationMin  int
	Assignee     string
	Paused       bool
}

// SpecialDayKind distinguishes the special-day markers.
type SpecialDayKind string

const (
	SpecialHoliday        SpecialDayKind = "holiday"
	SpecialDaycareClosure SpecialDayKind = "daycare_closure"
	SpecialBridge         SpecialDayKind = "bridge_day"
)

// SpecialDay is a public holiday, bridge day or daycare closure day.
type SpecialDay struct {
	Date time.Time
	Kind SpecialDayKind
	Name string
}

// EventKind maps the special-day kind to its marker event kind.
func (k SpecialDayKind) EventKind() EventKind {
	switch k {
	case SpecialHoliday:
		return KindHoliday
	case SpecialDaycareClosure:
		return KindDaycareClosure
	case SpecialBridge:
		return KindBridgeDay
	}
	return KindEvent
}
