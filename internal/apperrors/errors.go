package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the caller may not act on another tenant's data.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates a state-machine transition that is not allowed from
// the resource's current state.
var ErrConflict = errors.New("conflicting state transition")

// PaymentError carries the payment collaborator's error message verbatim so
// handlers can surface it unchanged.
type PaymentError struct {
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment collaborator error: %s", e.Message)
}

// NewPaymentError wraps a collaborator message.
func NewPaymentError(message string) *PaymentError {
	return &PaymentError{Message: message}
}

// AsPaymentError unwraps err into a PaymentError if it is one.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
