package entity

import (
	"errors"
	"fmt"
)

var (
	// Validation errors, caught before any network call
	ErrValidation              = errors.New("validation failed")
	ErrInvalidQuantity         = errors.New("please enter a valid quantity")
	ErrQuantityExceedsCapacity = errors.New("you cannot book more seats than available")
	ErrInvalidBookingStatus    = errors.New("invalid booking status")
	ErrEventNotLoaded          = errors.New("event is not loaded")
	ErrBookingNotInList        = errors.New("booking is not on the current page")
	ErrEventNotInList          = errors.New("event is not on the current page")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden operation")

	// Remote errors
	ErrRemoteRejected = errors.New("request rejected by server")
	ErrNotFound       = errors.New("not found")
	ErrTransport      = errors.New("transport failure")

	// General errors
	ErrClosed = errors.New("component is closed")
)

// ValidationError names the offending form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RemoteError is a non-2xx answer from the API. Message is the server's text
// verbatim, empty when the body carried none.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote error: status %d: %s", e.StatusCode, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteRejected:
		return true
	case ErrNotFound:
		return e.StatusCode == 404
	}
	return false
}

// IsAuthError tells the caller to redirect to the login boundary instead of
// showing an inline message.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// UserMessage picks the text for an inline notice: the server's own message
// when there is one, the validation reason for client-side failures, the
// fallback otherwise.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		return ErrInvalidQuantity.Error()
	case errors.Is(err, ErrQuantityExceedsCapacity):
		return ErrQuantityExceedsCapacity.Error()
	}
	return fallback
}
