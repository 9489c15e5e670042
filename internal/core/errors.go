package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidRecurrence    = errors.New("invalid recurrence")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrCategoryTypeMismatch = errors.New("category does not match transaction type")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrEmptyTitle           = errors.New("empty title")
	ErrTitleTooLong         = errors.New("title too long (max 100 characters)")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrNotFound             = errors.New("not found")
)

// ValidationError rejects user input. The operation it guards has not changed any state.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// InvalidAmountError is returned by goal allocation for a non-positive amount.
type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: must be positive", e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// NotFoundError is soft: ledger primitives treat unknown ids as no-ops and
// only outer layers surface it.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsValidation reports whether err is a user input rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidAmount)
}
