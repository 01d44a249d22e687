package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a modal session has not been started.
	ErrSessionNotFound = errors.New("calendar session not found")
	// ErrDayNotFound indicates the day could not be loaded from the catalogue.
	ErrDayNotFound = errors.New("day not found")
	// ErrDayLocked is returned when a day is opened before its unlock date.
	ErrDayLocked = errors.New("day is still locked")
	// ErrInvalidDay is wrapped by Day.Validate with the offending detail.
	ErrInvalidDay = errors.New("invalid day")
)
