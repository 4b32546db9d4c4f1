package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateEmail is returned when a user is created with an email
	// that already exists.
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrInsufficientStock is returned when an ordered quantity exceeds
	// the current stock of a product.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStorageUnavailable is returned when the storage backend cannot
	// be reached within the bounded wait.
	ErrStorageUnavailable = errors.New("storage backend unavailable")
)

// ValidationError reports an input that failed a field constraint.
// The operation aborts and nothing is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PartialApplicationError reports a multi-step mutation that could not
// complete atomically and whose committed sub-steps could not be rolled
// back. It names the steps that did commit so the journal repair pass
// can finish the cleanup.
type PartialApplicationError struct {
	Op        string
	Committed []string
	Err       error
}

func (e *PartialApplicationError) Error() string {
	return fmt.Sprintf("%s partially applied (committed: %s): %v",
		e.Op, strings.Join(e.Committed, ", "), e.Err)
}

func (e *PartialApplicationError) Unwrap() error {
	return e.Err
}
