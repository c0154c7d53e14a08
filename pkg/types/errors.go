package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of these so
// callers can branch with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUpstream          = errors.New("upstream failure")
)

var (
	ErrDonorNotFound   = fmt.Errorf("donor %w", ErrNotFound)
	ErrPatientNotFound = fmt.Errorf("patient %w", ErrNotFound)
	ErrRequestNotFound = fmt.Errorf("emergency request %w", ErrNotFound)

	ErrInvalidBloodType = fmt.Errorf("unrecognized blood type: %w", ErrInvalidInput)
	ErrInvalidUrgency   = fmt.Errorf("unrecognized urgency: %w", ErrInvalidInput)
	ErrInvalidStatus    = fmt.Errorf("unrecognized request status: %w", ErrInvalidInput)
	ErrInvalidRadius    = fmt.Errorf("radius must be greater than zero: %w", ErrInvalidInput)
	ErrInvalidOTP       = fmt.Errorf("passcode does not match: %w", ErrInvalidInput)
	ErrOTPExpired       = fmt.Errorf("passcode has expired: %w", ErrInvalidInput)

	ErrDuplicateDonor   = fmt.Errorf("email or phone already registered: %w", ErrConflict)
	ErrDonorVerified    = fmt.Errorf("donor already verified: %w", ErrConflict)
	ErrAlertAlreadySent = fmt.Errorf("alert already sent for this match: %w", ErrConflict)

	// ErrStaleWrite is returned by conditional updates that matched no row
	// because the record's state changed underneath the caller.
	ErrStaleWrite = fmt.Errorf("record state changed before update: %w", ErrConflict)

	ErrAlertNotDelivered = fmt.Errorf("no alert channel delivered: %w", ErrUpstream)

	ErrRequestNotCreated = errors.New("patient registered but emergency request was not created")
)

// FieldError reports a single missing or malformed input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

func NewFieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}
