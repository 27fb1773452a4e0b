package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// PasswordMinLength is the shortest password the policy accepts
	PasswordMinLength = 8
	// PasswordSymbols lists the symbols that satisfy the symbol requirement
	PasswordSymbols = "!@#$%^&*?()-_,=+"
	// CodeLength is the exact length of confirmation and MFA codes
	CodeLength = 6
)

// Rule names reported in ValidationError.Rule
const (
	RuleRequired  = "required"
	RuleMinLength = "min_length"
	RuleLength    = "length"
	RulePattern   = "pattern"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Required rejects empty values
func Required(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Rule: RuleRequired, Message: "must not be empty"}
	}
	return nil
}

// Password enforces the password policy
func Password(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	if utf8.RuneCountInString(value) < PasswordMinLength {
		return &ValidationError{
			Field:   field,
			Rule:    RuleMinLength,
			Message: fmt.Sprintf("must be at least %d characters", PasswordMinLength),
		}
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	if !hasLower || !hasUpper || !hasDigit || !hasSymbol {
		return &ValidationError{
			Field:   field,
			Rule:    RulePattern,
			Message: "must contain a lowercase letter, an uppercase letter, a digit and one of " + PasswordSymbols,
		}
	}
	return nil
}

// Code enforces the confirmation code format
func Code(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	if utf8.RuneCountInString(value) != CodeLength {
		return &ValidationError{
			Field:   field,
			Rule:    RuleLength,
			Message: fmt.Sprintf("must be exactly %d characters", CodeLength),
		}
	}
	return nil
}

// First returns the first non-nil error
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
