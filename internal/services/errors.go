package services

import (
	"errors"
	"fmt"
	"strings"

	"balance-topup/internal/models"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrRequestNotFound       = errors.New("top-up request not found")
	ErrReceiptNotFound       = errors.New("receipt not found")
	ErrValidationFailed      = errors.New("validation failed")
	ErrInvalidState          = errors.New("invalid request state")
	ErrFileRejected          = errors.New("file rejected")
	ErrIDAllocationExhausted = errors.New("could not allocate a unique order id")
	ErrOwningUserMissing     = errors.New("owning user of top-up request is missing")
	ErrInvalidReferralCode   = errors.New("invalid referral code")
	ErrSelfReferral          = errors.New("cannot use your own referral code")
	ErrAlreadyReferred       = errors.New("user already has a referrer")
	ErrNotAdmin              = errors.New("admin access required")
)

// ValidationError lists the fields that failed validation
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// InvalidStateError is returned when a transition is attempted from the wrong status
type InvalidStateError struct {
	OrderID  string
	Current  models.TopUpStatus
	Required models.TopUpStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("request %s is %s, expected %s", e.OrderID, e.Current, e.Required)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// FileRejectedError explains why an uploaded receipt was refused
type FileRejectedError struct {
	Reason string
}

func (e *FileRejectedError) Error() string {
	return fmt.Sprintf("file rejected: %s", e.Reason)
}

func (e *FileRejectedError) Unwrap() error {
	return ErrFileRejected
}
