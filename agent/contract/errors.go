package contract

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrTransient             = errors.New("transient collaborator failure")
	ErrNoConfirmationPending = errors.New("no confirmation pending")
	ErrOutOfStock            = errors.New("item is out of stock")
	ErrInconsistent          = errors.New("inventory and booking ledger are inconsistent")
	ErrSessionForbidden      = errors.New("session belongs to another user")
)

// InconsistencyError reports a decrement that could be neither recorded nor
// compensated. It needs manual reconciliation.
type InconsistencyError struct {
	Domain        Domain
	ItemID        string
	UserID        string
	ActionID      string
	InsertErr     error
	CompensateErr error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s: domain=%s item=%s action=%s insert: %v; compensate: %v",
		ErrInconsistent, e.Domain, e.ItemID, e.ActionID, e.InsertErr, e.CompensateErr)
}

func (e *InconsistencyError) Is(target error) bool {
	return target == ErrInconsistent
}

func (e *InconsistencyError) Unwrap() []error {
	return []error{e.InsertErr, e.CompensateErr}
}

// Transient marks err as a retryable collaborator failure.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransient, op, err)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
