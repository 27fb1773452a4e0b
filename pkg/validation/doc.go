// Package validation checks auth request inputs before anything reaches the identity provider.
//
// # Overview
//
// Every rule returns a *ValidationError naming the offending field and the rule it broke, so
// transports can report field-level problems without parsing messages.
//
// # Rules
//
// Password policy:
//   - non-empty
//   - at least 8 characters
//   - at least one lowercase letter, one uppercase letter and one digit
//   - at least one symbol from !@#$%^&*?()-_,=+
//
// Confirmation and MFA codes:
//   - exactly 6 characters
//
// # Usage Example
//
//	if err := validation.First(
//		validation.Required("email", email),
//		validation.Password("password", password),
//	); err != nil {
//		var verr *validation.ValidationError
//		errors.As(err, &verr)
//		fmt.Printf("%s failed %s: %s\n", verr.Field, verr.Rule, verr.Message)
//	}
package validation
