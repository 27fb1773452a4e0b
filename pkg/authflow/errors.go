package authflow

import (
	"errors"
)

// Kind classifies a failed auth flow operation
type Kind string

const (
	KindValidation                   Kind = "Validation"
	KindDuplicateUser                Kind = "DuplicateUser"
	KindSignupFailure                Kind = "SignupFailure"
	KindConfirmationFailure          Kind = "ConfirmationFailure"
	KindLoginFailure                 Kind = "LoginFailure"
	KindSetupMFAFailure              Kind = "SetupMFAFailure"
	KindInvalidCode                  Kind = "InvalidCode"
	KindSessionExpired               Kind = "SessionExpired"
	KindResendFailure                Kind = "ResendFailure"
	KindConfirmForgotPasswordFailure Kind = "ConfirmForgotPasswordFailure"
)

// Error is a classified auth flow failure.
//
// Message is the localized user-facing text. Name is the provider error name
// when the failure was reclassified from one (e.g. CodeMismatchException),
// otherwise the kind. Detail carries diagnostics that must not be shown to
// end users for LoginFailure.
type Error struct {
	Kind    Kind
	Name    string
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var flowErr *Error
	return errors.As(err, &flowErr) && flowErr.Kind == kind
}

// AsError extracts an *Error from err's chain
func AsError(err error) (*Error, bool) {
	var flowErr *Error
	if errors.As(err, &flowErr) {
		return flowErr, true
	}
	return nil, false
}
