package auth

import (
	"errors"
	"fmt"
)

// ErrNoPendingChallenge is returned by PinChallenge.Submit when there is no
// open challenge matching the given id.
var ErrNoPendingChallenge = errors.New("no pending PIN challenge")

// ValidationError reports caller input that was rejected before any state
// was touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
