package model

import "time"

type ConflictKind string

const (
	ConflictOverlap            ConflictKind = "overlap"
	ConflictInsufficientMargin ConflictKind = "insufficient_margin"
	ConflictHolidayMismatch    ConflictKind = "holiday_mismatch"
	ConflictDaycareClosure     ConflictKind = "daycare_closure_mismatch"
	ConflictOverload           ConflictKind = "overload"
	ConflictUnusualHour        ConflictKind = "unusual_hour"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rank orders severities from most to least serious.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

func (s Severity) Label() string {
	switch s {
	case SeverityError:
		return "Erreur"
	case SeverityWarning:
		return "Attention"
	case SeverityInfo:
		return "Info"
	}
	return string(s)
}

// Conflict is a scheduling issue detected on a day. It involves zero, one
// or two events and is computed on demand.
type Conflict struct {
	Kind       ConflictKind   `json:"kind"`
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	Day        time.Time      `json:"day"`
	EventA     *CalendarEvent `json:"event_a,omitempty"`
	EventB     *CalendarEvent `json:"event_b,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// Summary counts conflicts by severity.
type Summary struct {
	Total    int `json:"total"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

func (s Summary) HasErrors() bool { return s.Errors > 0 }
