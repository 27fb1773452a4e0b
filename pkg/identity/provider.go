// Package identity defines the capability interface of the managed identity
// provider and its Cognito user pool adapter.
//
// The provider owns credentials, confirmation codes, MFA secrets, session
// tokens and the challenge state machine. Nothing here validates tokens or
// stores sessions; the adapter translates calls and normalizes errors into
// *ProviderError.
package identity

import "context"

// ChallengeName is the name of an intermediate login step
type ChallengeName string

const (
	ChallengeNone                ChallengeName = ""
	ChallengeNewPasswordRequired ChallengeName = "NEW_PASSWORD_REQUIRED"
	ChallengeMFASetup            ChallengeName = "MFA_SETUP"
	ChallengeSoftwareTokenMFA    ChallengeName = "SOFTWARE_TOKEN_MFA"
)

// AccountStatus is the provider-side status of an account
type AccountStatus string

const (
	AccountUnconfirmed AccountStatus = "UNCONFIRMED"
	AccountConfirmed   AccountStatus = "CONFIRMED"
	AccountUnknown     AccountStatus = "UNKNOWN"
)

// Tokens are the authentication tokens issued after a completed login
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	IDToken      string `json:"idToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`
	ExpiresIn    int32  `json:"expiresIn"`
}

// SignupOutcome is the provider response to account creation
type SignupOutcome struct {
	SubjectID string
	Confirmed bool
}

// AuthOutcome is the provider response to a credential check.
// Tokens is set only when no challenge was returned.
type AuthOutcome struct {
	ChallengeName       ChallengeName
	Session             string
	ChallengeParameters map[string]string
	Tokens              *Tokens
}

// MFASecret seeds an authenticator app during MFA setup
type MFASecret struct {
	SecretCode string
	Session    string
}

// Verification is the result of verifying a software token code
type Verification struct {
	Status  string `json:"status"`
	Session string `json:"session,omitempty"`
}

// PublicSettings are the provider settings safe to expose to clients
type PublicSettings struct {
	Region   string `json:"region"`
	ClientID string `json:"clientId"`
	Domain   string `json:"domain"`
}

// Provider is the set of identity provider commands used by the gateway
type Provider interface {
	// CreateAccount registers email/password and reports the subject id
	CreateAccount(ctx context.Context, email, password string) (*SignupOutcome, error)
	// ConfirmAccount submits the signup confirmation code
	ConfirmAccount(ctx context.Context, email, code string) error
	// Authenticate starts a password login
	Authenticate(ctx context.Context, email, password string) (*AuthOutcome, error)
	// AssociateMFA requests a software token secret for an MFA_SETUP session
	AssociateMFA(ctx context.Context, session string) (*MFASecret, error)
	// VerifyMFA verifies the first code produced by the authenticator
	VerifyMFA(ctx context.Context, session, code string) (*Verification, error)
	// RespondToChallenge answers a SOFTWARE_TOKEN_MFA challenge
	RespondToChallenge(ctx context.Context, email, session, code string) (*Tokens, error)
	// ResendCode sends a new signup confirmation code
	ResendCode(ctx context.Context, email string) error
	// ResetPassword sends a password reset code
	ResetPassword(ctx context.Context, email string) error
	// ConfirmPasswordReset sets a new password using a reset code
	ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error
	// RefreshToken exchanges a refresh token for new tokens
	RefreshToken(ctx context.Context, refreshToken string) (*Tokens, error)
	// AccountStatus reports whether the account is confirmed
	AccountStatus(ctx context.Context, email string) (AccountStatus, error)
	// Settings returns the public provider settings
	Settings() PublicSettings
	// Close releases the connection handle
	Close() error
}
