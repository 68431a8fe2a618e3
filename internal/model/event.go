package model

import (
	"strconv"
	"time"
)

// SourceRef points back at the record a CalendarEvent was built from.
type SourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// CalendarEvent is the normalized, read-only projection of any source
// record into one shape. It is built per query and never persisted.
type CalendarEvent struct {
	ID           string    `json:"id"`
	Kind         EventKind `json:"kind"`
	Title        string    `json:"title"`
	Day          time.Time `json:"day"`
	Start        *Clock    `json:"start,omitempty"`
	End          *Clock    `json:"end,omitempty"`
	Location     string    `json:"location,omitempty"`
	Participants []string  `json:"participants,omitempty"`
	ForChild     bool      `json:"for_child"`
	Budget       *float64  `json:"budget,omitempty"`
	Source       SourceRef `json:"source"`
	Done         bool      `json:"done"`
	Notes        string    `json:"notes,omitempty"`
}

// HasTime reports whether the event has a start time.
func (e CalendarEvent) HasTime() bool {
	return e.Start != nil
}

// SortClock is the first component of the day ordering key.
func (e CalendarEvent) SortClock() Clock {
	if e.Start == nil {
		return EndOfDay
	}
	return *e.Start
}

// EffectiveEnd returns End, or Start + defaultMin when End is unset. It is
// meaningless for untimed events.
func (e CalendarEvent) EffectiveEnd(defaultMin int) Clock {
	if e.End != nil {
		return *e.End
	}
	if e.Start == nil {
		return EndOfDay
	}
	return e.Start.Add(defaultMin)
}

// TimeRange renders "HH:MM", "HH:MM-HH:MM" or "" for untimed events.
func (e CalendarEvent) TimeRange() string {
	if e.Start == nil {
		return ""
	}
	if e.End == nil {
		return e.Start.String()
	}
	return e.Start.String() + "-" + e.End.String()
}

// Less orders events by (start time or end-of-day, kind).
func Less(a, b CalendarEvent) bool {
	ca, cb := a.SortClock(), b.SortClock()
	if ca != cb {
		return ca < cb
	}
	return a.Kind < b.Kind
}

// CompareEvents is Less as a three-way comparison for slices.SortStableFunc.
func CompareEvents(a, b CalendarEvent) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	}
	return 0
}

// EventID builds the stable "<prefix>-<id>" identifier of an event.
func EventID(prefix string, id int64) string {
	return prefix + "-" + strconv.FormatInt(id, 10)
}
