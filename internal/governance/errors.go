package governance

import (
	"errors"
	"fmt"
)

// Governance operations are privileged and consequential, so errors are
// never swallowed: every failure is surfaced to the invoking actor with
// enough detail to act on. The four error kinds below are the whole
// taxonomy; anything else bubbling out of the engine is a server fault.

// ValidationError reports input that was rejected before any write.
// Nothing has been committed when one is returned.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return fmt.Sprintf("validation failed: %d problems", len(e.Errors))
}

func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// NotFoundError reports that the flag/ban/request/account being operated on
// does not exist. No partial state change has happened.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ConflictError reports an operation on state that has already moved on:
// approving a terminal request, double-resolving a flag, or losing a
// version check to a concurrent governance write. Nothing was mutated.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// TransactionError wraps a failed atomic commit. The entire operation is
// not-applied; nothing was durably written, so no compensation is needed.
// There is no automatic retry: callers re-invoke the operation.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return "governance transaction failed: " + e.Err.Error()
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
