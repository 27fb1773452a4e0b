package api

import (
	"context"

	"github.com/platinummonkey/authgate/pkg/authflow"
	"github.com/platinummonkey/authgate/pkg/identity"
)

// fakeFlow records the last call and returns scripted results
type fakeFlow struct {
	lastOp   string
	lastArgs []string

	err          error
	login        *authflow.LoginResult
	tokens       *identity.Tokens
	verification *identity.Verification
	panicOn      string
}

func (f *fakeFlow) called(op string, args ...string) {
	f.lastOp = op
	f.lastArgs = args
	if f.panicOn == op {
		panic("flow exploded")
	}
}

func (f *fakeFlow) Signup(ctx context.Context, email, password string) error {
	f.called("Signup", email, password)
	return f.err
}

func (f *fakeFlow) ConfirmSignup(ctx context.Context, email, code string) error {
	f.called("ConfirmSignup", email, code)
	return f.err
}

func (f *fakeFlow) Login(ctx context.Context, email, password string) (*authflow.LoginResult, error) {
	f.called("Login", email, password)
	if f.err != nil {
		return nil, f.err
	}
	return f.login, nil
}

func (f *fakeFlow) SetupMFA(ctx context.Context, session, code string) (*identity.Verification, error) {
	f.called("SetupMFA", session, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.verification, nil
}

func (f *fakeFlow) ConfirmLogin(ctx context.Context, email, session, code string) (*identity.Tokens, error) {
	f.called("ConfirmLogin", email, session, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func (f *fakeFlow) ResendConfirmationCode(ctx context.Context, email string) error {
	f.called("ResendConfirmationCode", email)
	return f.err
}

func (f *fakeFlow) ForgotPassword(ctx context.Context, email string) error {
	f.called("ForgotPassword", email)
	return f.err
}

func (f *fakeFlow) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	f.called("ResetPassword", email, code, newPassword)
	return f.err
}

func (f *fakeFlow) RefreshToken(ctx context.Context, refreshToken string) (*identity.Tokens, error) {
	f.called("RefreshToken", refreshToken)
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func (f *fakeFlow) ProviderSettings() identity.PublicSettings {
	return identity.PublicSettings{Region: "us-east-1", ClientID: "client-123", Domain: "auth.example.com"}
}
