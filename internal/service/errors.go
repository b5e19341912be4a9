package service

import (
	"errors"
	"fmt"
)

var (
	// ErrThrottled is returned when the identity key has used up its window.
	ErrThrottled = errors.New("too many submissions")
	// ErrUntrusted is returned when bot defense explicitly rejects the submission.
	ErrUntrusted = errors.New("bot defense rejected submission")
)

// ValidationError names the first field that failed validation. Reason is
// safe to show to the submitter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
