package lore

import (
	"errors"
	"fmt"
)

// ErrNoStore is returned by every mutation while no store is connected.
// Queries never return it; they yield empty results instead.
var ErrNoStore = errors.New("no lore store connected")

// ErrMultipleResults is returned when a query that must yield at most one
// row yields more. It points at an integrity problem in the store.
var ErrMultipleResults = errors.New("multiple results where at most one was expected")

// InputError reports user input that cannot be turned into the required
// value, or a mutation requested without its required selection.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *InputError) Unwrap() error { return e.Err }

// Inputf returns an *InputError with a formatted message.
func Inputf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a failure of the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// StaleViewError is returned when a mutation was committed to the store but
// refreshing the view afterwards failed. The view still shows the state
// from before the mutation.
type StaleViewError struct {
	Err error
}

func (e *StaleViewError) Error() string {
	return "change saved, but the view could not be refreshed: " + e.Err.Error()
}

func (e *StaleViewError) Unwrap() error { return e.Err }

// IsInputError reports whether err is or wraps an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsStoreError reports whether err is or wraps a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
