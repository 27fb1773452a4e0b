package api

import (
	"context"

	"github.com/platinummonkey/authgate/pkg/authflow"
	"github.com/platinummonkey/authgate/pkg/identity"
)

// AuthFlow is the set of auth operations the API exposes.
// *authflow.Coordinator implements it.
type AuthFlow interface {
	Signup(ctx context.Context, email, password string) error
	ConfirmSignup(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*authflow.LoginResult, error)
	SetupMFA(ctx context.Context, session, code string) (*identity.Verification, error)
	ConfirmLogin(ctx context.Context, email, session, code string) (*identity.Tokens, error)
	ResendConfirmationCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	RefreshToken(ctx context.Context, refreshToken string) (*identity.Tokens, error)
	ProviderSettings() identity.PublicSettings
}

var _ AuthFlow = (*authflow.Coordinator)(nil)

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ConfirmSignupRequest is the body of POST /auth/signup/confirm
type ConfirmSignupRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// EmailRequest is the body of endpoints that only need an email
type EmailRequest struct {
	Email string `json:"email"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ConfirmLoginRequest is the body of POST /auth/login/confirm
type ConfirmLoginRequest struct {
	Email   string `json:"email"`
	Session string `json:"session"`
	Code    string `json:"code"`
}

// SetupMFARequest is the body of POST /auth/mfa/setup
type SetupMFARequest struct {
	Session string `json:"session"`
	Code    string `json:"code"`
}

// ResetPasswordRequest is the body of POST /auth/password/reset
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// RefreshTokenRequest is the body of POST /auth/token/refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}
