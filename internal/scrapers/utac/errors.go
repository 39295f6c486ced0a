package utac

import (
	"errors"
	"fmt"
)

var (
	// ErrFormNotFound means the page does not contain the main search form.
	ErrFormNotFound = errors.New("search form not found")

	// ErrControlsNotFound means the criteria field or the criteria kind
	// selector could not be located, the site markup has likely changed.
	ErrControlsNotFound = errors.New("search controls not found")

	ErrInvalidRegionCode = errors.New("invalid region code")

	// ErrNotFound means the search went through but nothing matched.
	ErrNotFound = errors.New("no matching center")
)

// TransportError is a failed HTTP exchange, either at the network level or
// because the site answered with a non-2xx status.
type TransportError struct {
	Method string
	Url    string
	// Status is 0 when no response was received.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Url, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Url, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
