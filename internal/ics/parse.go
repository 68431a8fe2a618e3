package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "famcal/internal/log"
)

// ParsedEvent is a VEVENT before recurrence expansion.
type ParsedEvent struct {
	Subscription Subscription

	UID      string
	Sequence int

	Summary     string
	Description string
	Location    string
	Categories  []string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time
	// RecurrenceID is set on VEVENTs overriding one instance of a series.
	RecurrenceID *time.Time
}

// ParseICS parses one feed body. Floating and date-only values are read in
// loc. A malformed VEVENT is logged and skipped.
func ParseICS(sub Subscription, body []byte, loc *time.Location) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar %s: %w", sub.ID, err)
	}

	var events []ParsedEvent
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(sub, ve, loc)
		if err != nil {
			appLog.Warn("ics: vevent skipped", "feed", sub.ID, "err", err)
			continue
		}
		events = append(events, ev)
	}
	appLog.Debug("ics: parsed", "feed", sub.ID, "events", len(events))
	return events, nil
}

func parseVEvent(sub Subscription, ve *ical.VEvent, loc *time.Location) (ParsedEvent, error) {
	out := ParsedEvent{Subscription: sub}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			out.Sequence = n
		}
	}
	out.Summary = propValue(ve, ical.ComponentPropertySummary)
	out.Description = propValue(ve, ical.ComponentPropertyDescription)
	out.Location = propValue(ve, ical.ComponentPropertyLocation)
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out.Categories = append(out.Categories, c)
			}
		}
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStart)

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = normalize(start, out.AllDay, hasTZID(dtStart), loc)

	if end, err := ve.GetEndAt(); err == nil {
		out.End = normalize(end, out.AllDay, hasTZID(ve.GetProperty(ical.ComponentPropertyDtEnd)), loc)
	}
	switch {
	case out.End.IsZero() && out.AllDay:
		out.End = out.Start.AddDate(0, 0, 1)
	case out.End.IsZero() || out.End.Before(out.Start):
		out.End = out.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, err := parseICSTime(p.Value, loc); err == nil {
			out.RecurrenceID = &t
		}
	}
	return out, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

// isDateValue reports a VALUE=DATE property or a bare YYYYMMDD value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func hasTZID(p *ical.IANAProperty) bool {
	if p == nil {
		return false
	}
	tz, ok := p.ICalParameters["TZID"]
	return ok && len(tz) > 0
}

// normalize re-reads dates and floating times, which the library parses in
// time.Local, in the display location.
func normalize(t time.Time, allDay, zoned bool, loc *time.Location) time.Time {
	if allDay {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	if t.Location() == time.UTC || zoned {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// parseICSTime reads the basic DATE, DATE-TIME and UTC forms used by
// EXDATE and RECURRENCE-ID.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
