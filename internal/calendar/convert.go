package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"famcal/internal/model"
)

// Default slot times for meals that carry no explicit time.
var mealSlots = map[model.MealType]struct {
	kind  model.EventKind
	start model.Clock
}{
	model.MealBreakfast: {model.KindBreakfast, model.NewClock(8, 0)},
	model.MealLunch:     {model.KindLunch, model.NewClock(12, 0)},
	model.MealSnack:     {model.KindSnack, model.NewClock(16, 0)},
	model.MealDinner:    {model.KindDinner, model.NewClock(19, 0)},
}

func convErr(source string, id int64, err error) error {
	return &ConversionError{Source: source, ID: strconv.FormatInt(id, 10), Err: err}
}

// checkRange rejects an end clock set before the start clock.
func checkRange(start, end *model.Clock) error {
	if start != nil && end != nil && *end < *start {
		return fmt.Errorf("%w: %s < %s", ErrInvalidRange, end, start)
	}
	return nil
}

// ConvertMeal projects a planned meal on its slot time.
func ConvertMeal(m model.Meal) (model.CalendarEvent, error) {
	if m.Date.IsZero() {
		return model.CalendarEvent{}, convErr("meal", m.ID, ErrMissingDate)
	}
	slot, ok := mealSlots[m.Type]
	if !ok {
		return model.CalendarEvent{}, convErr("meal", m.ID, fmt.Errorf("%w: %q", ErrUnknownMealType, m.Type))
	}
	title := strings.TrimSpace(m.Recipe)
	if title == "" {
		title = "Repas"
	}
	notes := m.Notes
	if m.Servings > 0 {
		notes = joinNotes(fmt.Sprintf("%d portions", m.Servings), notes)
	}
	return model.CalendarEvent{
		ID:     model.EventID("meal", m.ID),
		Kind:   slot.kind,
		Title:  title,
		Day:    DateOf(m.Date),
		Start:  model.ClockPtr(slot.start),
		Source: model.SourceRef{Type: "meal", ID: strconv.FormatInt(m.ID, 10)},
		Done:   m.Prepared,
		Notes:  notes,
	}, nil
}

// ConvertBatchSession projects a batch-cooking session.
func ConvertBatchSession(b model.BatchSession) (model.CalendarEvent, error) {
	if b.Date.IsZero() {
		return model.CalendarEvent{}, convErr("batch_session", b.ID, ErrMissingDate)
	}
	if err := checkRange(b.Start, b.End); err != nil {
		return model.CalendarEvent{}, convErr("batch_session", b.ID, err)
	}
	title := strings.TrimSpace(b.Name)
	if title == "" {
		title = "Batch cooking"
	}
	notes := b.Notes
	if len(b.Recipes) > 0 {
		notes = joinNotes("Recettes : "+strings.Join(b.Recipes, ", "), notes)
	}
	return model.CalendarEvent{
		ID:     model.EventID("batch", b.ID),
		Kind:   model.KindBatchCooking,
		Title:  title,
		Day:    DateOf(b.Date),
		Start:  b.Start,
		End:    b.End,
		Source: model.SourceRef{Type: "batch_session", ID: strconv.FormatInt(b.ID, 10)},
		Done:   b.Status == "done",
		Notes:  notes,
	}, nil
}

// ConvertActivity projects a family or kid activity.
func ConvertActivity(a model.Activity) (model.CalendarEvent, error) {
	if a.Date.IsZero() {
		return model.CalendarEvent{}, convErr("activity", a.ID, ErrMissingDate)
	}
	if err := checkRange(a.Start, a.End); err != nil {
		return model.CalendarEvent{}, convErr("activity", a.ID, err)
	}
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = model.KindActivity.Label()
	}
	return model.CalendarEvent{
		ID:           model.EventID("activity", a.ID),
		Kind:         model.KindActivity,
		Title:        title,
		Day:          DateOf(a.Date),
		Start:        a.Start,
		End:          a.End,
		Location:     a.Location,
		Participants: a.Participants,
		ForChild:     a.ForChild,
		Budget:       a.Cost,
		Source:       model.SourceRef{Type: "activity", ID: strconv.FormatInt(a.ID, 10)},
		Done:         a.Done,
		Notes:        a.Notes,
	}, nil
}

// itemKind maps the free-form type of a calendar item to an event kind.
func itemKind(t string) model.EventKind {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "medical", "medecin", "rdv_medical", "sante":
		return model.KindMedical
	case "rdv", "appointment", "rendez_vous", "rdv_autre":
		return model.KindAppointment
	case "routine":
		return model.KindRoutine
	case "courses", "errand":
		return model.KindErrand
	case "activite", "activity":
		return model.KindActivity
	}
	return model.KindEvent
}

// ConvertCalendarItem projects a free-form calendar entry. An end on a
// later day is clipped to the end of the start day.
func ConvertCalendarItem(c model.CalendarItem) (model.CalendarEvent, error) {
	source := "calendar_item"
	id := strconv.FormatInt(c.ID, 10)
	eventID := model.EventID("event", c.ID)
	if c.ExternalID != "" {
		source = "feed"
		id = c.ExternalID
		eventID = "feed-" + c.ExternalID
	}
	fail := func(err error) (model.CalendarEvent, error) {
		return model.CalendarEvent{}, &ConversionError{Source: source, ID: id, Err: err}
	}
	if c.Start.IsZero() {
		return fail(ErrMissingDate)
	}
	if c.End != nil && c.End.Before(c.Start) {
		return fail(fmt.Errorf("%w: %s < %s", ErrInvalidRange, c.End.Format("15:04"), c.Start.Format("15:04")))
	}

	ev := model.CalendarEvent{
		ID:           eventID,
		Kind:         itemKind(c.Type),
		Title:        strings.TrimSpace(c.Title),
		Day:          DateOf(c.Start),
		Location:     c.Location,
		Participants: c.Participants,
		ForChild:     c.ForChild,
		Source:       model.SourceRef{Type: source, ID: id},
		Done:         c.Done,
		Notes:        c.Notes,
	}
	if ev.Title == "" {
		ev.Title = ev.Kind.Label()
	}
	if !c.AllDay {
		ev.Start = model.ClockPtr(model.ClockOf(c.Start))
		if c.End != nil {
			end := model.EndOfDay
			if SameDate(*c.End, c.Start) {
				end = model.ClockOf(*c.End)
			}
			ev.End = &end
		}
	}
	return ev, nil
}

// ConvertErrand projects a planned shopping run.
func ConvertErrand(e model.Errand) (model.CalendarEvent, error) {
	if e.Date.IsZero() {
		return model.CalendarEvent{}, convErr("errand", e.ID, ErrMissingDate)
	}
	title := "Courses"
	if s := strings.TrimSpace(e.Store); s != "" {
		title += " (" + s + ")"
	}
	notes := e.Notes
	if e.Items > 0 {
		notes = joinNotes(fmt.Sprintf("%d articles", e.Items), notes)
	}
	return model.CalendarEvent{
		ID:       model.EventID("errand", e.ID),
		Kind:     model.KindErrand,
		Title:    title,
		Day:      DateOf(e.Date),
		Start:    e.Start,
		Location: e.Store,
		Budget:   e.Budget,
		Source:   model.SourceRef{Type: "errand", ID: strconv.FormatInt(e.ID, 10)},
		Done:     e.Done,
		Notes:    notes,
	}, nil
}

// ConvertChore projects one occurrence of a chore on day.
func ConvertChore(c model.Chore, day time.Time) model.CalendarEvent {
	title := strings.TrimSpace(c.Name)
	if title == "" {
		title = model.KindChore.Label()
	}
	var participants []string
	if c.Assignee != "" {
		participants = []string{c.Assignee}
	}
	notes := c.Category
	if c.DurationMin > 0 {
		notes = joinNotes(notes, fmt.Sprintf("%d min", c.DurationMin))
	}
	return model.CalendarEvent{
		ID:           fmt.Sprintf("chore-%d-%s", c.ID, day.Format("20060102")),
		Kind:         model.KindChore,
		Title:        title,
		Day:          DateOf(day),
		Participants: participants,
		Source:       model.SourceRef{Type: "chore", ID: strconv.FormatInt(c.ID, 10)},
		Notes:        notes,
	}
}

// ConvertSpecialDay builds the untimed marker of a special day.
func ConvertSpecialDay(s model.SpecialDay) model.CalendarEvent {
	kind := s.Kind.EventKind()
	title := strings.TrimSpace(s.Name)
	if title == "" {
		title = kind.Label()
	}
	key := dateKey(s.Date)
	return model.CalendarEvent{
		ID:     "special-" + key + "-" + string(s.Kind),
		Kind:   kind,
		Title:  title,
		Day:    DateOf(s.Date),
		Source: model.SourceRef{Type: "special_day", ID: key},
	}
}

func joinNotes(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " · ")
}
