package courier

import (
	"errors"
	"fmt"
)

// Error represents a courier library error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for courier operations.
const (
	// ErrCodeAuthentication indicates the caller carries no valid identity.
	ErrCodeAuthentication = "AUTH_REQUIRED"

	// ErrCodeAuthorization indicates the caller lacks the channel/role scope
	// for the target message or channel.
	ErrCodeAuthorization = "AUTH_DENIED"

	// ErrCodeNotFound indicates the message identity could not be resolved.
	ErrCodeNotFound = "NOT_FOUND"

	// ErrCodeValidation indicates validation failed.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates a storage operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeDelivery indicates a live push failed to reach one subscriber.
	// Never surfaced to callers; kept for internal observation only.
	ErrCodeDelivery = "DELIVERY_ERROR"
)

// Common errors.
var (
	// ErrNotFound is returned when a message lookup resolves nothing.
	ErrNotFound = &Error{
		Code:    ErrCodeNotFound,
		Message: "message not found",
	}

	// ErrAuthenticationRequired is returned when no caller identity is present.
	ErrAuthenticationRequired = &Error{
		Code:    ErrCodeAuthentication,
		Message: "authentication required",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// hasCode checks whether err is a courier Error carrying the given code.
func hasCode(err error, code string) bool {
	var courierErr *Error
	if errors.As(err, &courierErr) {
		return courierErr.Code == code
	}
	return false
}

// IsNotFound checks if an error carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound) || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error carries the VALIDATION_ERROR code.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsAuthentication checks if an error carries the AUTH_REQUIRED code.
func IsAuthentication(err error) bool {
	return hasCode(err, ErrCodeAuthentication) || errors.Is(err, ErrAuthenticationRequired)
}

// IsAuthorization checks if an error carries the AUTH_DENIED code.
func IsAuthorization(err error) bool {
	return hasCode(err, ErrCodeAuthorization)
}
