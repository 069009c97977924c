package domain

import (
	"errors"
	"fmt"
)

// ErrFetch matches every catalog fetch failure via errors.Is.
var ErrFetch = errors.New("catalog fetch failed")

// ErrNotFound is returned when a plant or session does not exist.
var ErrNotFound = errors.New("not found")

// ErrSessionInUse is returned when a session id is already live.
var ErrSessionInUse = errors.New("session already in use")

// FetchError reports that the raw catalog text could not be retrieved.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch catalog from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFetch) true for any FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ErrInvalidPosition is returned for coordinates outside WGS 84 ranges.
var ErrInvalidPosition = errors.New("invalid position")
