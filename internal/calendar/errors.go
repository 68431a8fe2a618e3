package calendar

import (
	"errors"
	"fmt"
)

var (
	ErrMissingDate      = errors.New("missing date")
	ErrUnknownMealType  = errors.New("unknown meal type")
	ErrInvalidRange     = errors.New("end is before start")
	ErrUnknownFrequency = errors.New("unknown frequency")
	ErrInvalidMonthDay  = errors.New("month day must be within 1..31")
	ErrUnknownWeekday   = errors.New("unknown weekday")
)

// ConversionError reports a source record that could not be projected
// into a CalendarEvent.
type ConversionError struct {
	Source string
	ID     string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s %s: %v", e.Source, e.ID, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
