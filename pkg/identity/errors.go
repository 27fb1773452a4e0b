package identity

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrClosed is returned by calls made after Close
	ErrClosed = errors.New("identity provider client closed")
	// ErrNoUserPool is returned by admin calls when no user pool id is configured
	ErrNoUserPool = errors.New("identity provider user pool id not configured")
)

// Provider error names the gateway branches on
const (
	ErrCodeMismatch          = "CodeMismatchException"
	ErrExpiredCode           = "ExpiredCodeException"
	ErrNotAuthorized         = "NotAuthorizedException"
	ErrUserNotFound          = "UserNotFoundException"
	ErrUsernameExists        = "UsernameExistsException"
	ErrInvalidParameter      = "InvalidParameterException"
	ErrInvalidPassword       = "InvalidPasswordException"
	ErrLimitExceeded         = "LimitExceededException"
	ErrTooManyRequests       = "TooManyRequestsException"
	ErrTooManyFailedAttempts = "TooManyFailedAttemptsException"
	ErrUserNotConfirmed      = "UserNotConfirmedException"
	ErrPasswordResetRequired = "PasswordResetRequiredException"
	ErrEnableSoftwareToken   = "EnableSoftwareTokenMFAException"
	ErrTransport             = "TransportError"
	ErrIncompleteAuth        = "IncompleteAuthenticationError"
)

// ProviderError is a normalized provider failure.
// Name is the provider error code, e.g. CodeMismatchException.
type ProviderError struct {
	Name    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AsProviderError extracts a *ProviderError from err's chain
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ErrorName returns the provider error name in err's chain, or "" if none
func ErrorName(err error) string {
	if pe, ok := AsProviderError(err); ok {
		return pe.Name
	}
	return ""
}

// IsClientFault reports whether the named provider error was caused by the caller's input
func IsClientFault(name string) bool {
	switch name {
	case ErrCodeMismatch, ErrExpiredCode, ErrNotAuthorized, ErrUserNotFound,
		ErrUsernameExists, ErrInvalidParameter, ErrInvalidPassword, ErrUserNotConfirmed,
		ErrPasswordResetRequired, ErrEnableSoftwareToken:
		return true
	}
	return false
}

// IsThrottle reports whether the named provider error is a rate limit
func IsThrottle(name string) bool {
	switch name {
	case ErrLimitExceeded, ErrTooManyRequests, ErrTooManyFailedAttempts:
		return true
	}
	return false
}

// normalizeError maps SDK errors onto *ProviderError.
// Errors without an API error code (network, signing, canceled contexts) become TransportError.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsProviderError(err); ok {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Name:    apiErr.ErrorCode(),
			Message: apiErr.ErrorMessage(),
			Err:     err,
		}
	}

	return &ProviderError{
		Name:    ErrTransport,
		Message: err.Error(),
		Err:     err,
	}
}
