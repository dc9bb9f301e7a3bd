package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when a series is too short or too
	// narrow for the requested analysis. Callers fall back to a simpler path.
	ErrInsufficientData = errors.New("insufficient data")
	ErrUnknownModel     = errors.New("unknown forecast model")
	ErrInvalidHorizon   = errors.New("forecast horizon must be at least one year")
)

// InsufficientDataError records which operation rejected its input and why.
type InsufficientDataError struct {
	Op     string
	Need   int
	Have   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, ErrInsufficientData, e.Reason)
	}
	return fmt.Sprintf("%s: %s: need %d points, have %d", e.Op, ErrInsufficientData, e.Need, e.Have)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}
