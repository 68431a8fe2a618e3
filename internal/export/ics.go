package export

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"famcal/internal/model"
)

const productID = "-//famcal//Agenda familial//FR"

// uidNamespace scopes the name-based UIDs of exported events.
var uidNamespace = uuid.MustParse("6f1c3a52-8d5e-4b8e-9a57-3c1f0d7e2b91")

// EventUID derives a UID that is stable across exports of the same event,
// so calendar clients update instead of duplicating.
func EventUID(e model.CalendarEvent) string {
	return uuid.NewSHA1(uidNamespace, []byte(e.ID+"|"+e.Day.Format("2006-01-02"))).String() + "@famcal"
}

// ICS serializes every event of the week, special-day markers included,
// as an iCalendar document. stamp is the DTSTAMP of every VEVENT.
func ICS(week model.WeekView, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Semaine " + FormatWeekRange(week))

	for _, e := range week.Events() {
		ev := cal.AddEvent(EventUID(e))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(e.Title)
		if e.HasTime() {
			start := e.Start.On(e.Day)
			end := start.Add(time.Hour)
			if e.End != nil {
				end = e.End.On(e.Day)
			}
			ev.SetStartAt(start)
			ev.SetEndAt(end)
		} else {
			ev.SetAllDayStartAt(e.Day)
			ev.SetAllDayEndAt(e.Day.AddDate(0, 0, 1))
		}
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.Notes != "" {
			ev.SetDescription(e.Notes)
		}
		ev.AddProperty(ical.ComponentPropertyCategories, e.Kind.Label())
	}
	return cal.Serialize()
}
