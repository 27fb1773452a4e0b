// Package authflow coordinates signup, login and recovery flows against the
// identity provider while keeping the local user record in step.
//
// The provider owns the challenge state machine. The coordinator validates
// input, issues at most two provider calls per operation, reclassifies a
// narrow set of provider errors and mirrors registration progress into the
// user store. It keeps no state between calls: challenge sessions are
// returned to the caller and must be sent back on the follow-up request.
package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/authgate/pkg/i18n"
	"github.com/platinummonkey/authgate/pkg/identity"
	"github.com/platinummonkey/authgate/pkg/observability"
	"github.com/platinummonkey/authgate/pkg/users"
	"github.com/platinummonkey/authgate/pkg/validation"
)

// LoginResult is the outcome of a password login. Session is set when a
// challenge is pending; Tokens only when no challenge was returned.
type LoginResult struct {
	ChallengeName identity.ChallengeName `json:"challengeName,omitempty"`
	Session       string                 `json:"session,omitempty"`
	SecretCode    string                 `json:"secretCode,omitempty"`
	Tokens        *identity.Tokens       `json:"tokens,omitempty"`
}

// Coordinator runs the auth flows
type Coordinator struct {
	provider identity.Provider
	store    users.Store
	catalog  *i18n.Catalog
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// Option customizes a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger used for divergence and failure reports
func WithLogger(logger *observability.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics records operation outcomes in m
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithCatalog overrides the message catalog
func WithCatalog(catalog *i18n.Catalog) Option {
	return func(c *Coordinator) {
		c.catalog = catalog
	}
}

// NewCoordinator creates a coordinator over provider and store
func NewCoordinator(provider identity.Provider, store users.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		provider: provider,
		store:    store,
		catalog:  i18n.NewCatalog(),
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProviderSettings returns the public identity provider settings
func (c *Coordinator) ProviderSettings() identity.PublicSettings {
	return c.provider.Settings()
}

// Signup creates the provider account and the local record.
// An email already known locally fails with DuplicateUser before any provider call.
func (c *Coordinator) Signup(ctx context.Context, email, password string) (err error) {
	defer c.track("signup", time.Now(), &err)

	if err := validation.First(
		validation.Required("email", email),
		validation.Password("password", password),
	); err != nil {
		return c.invalid(ctx, err)
	}

	existing, err := c.store.FindByEmail(ctx, email)
	if err != nil {
		return c.failure(ctx, KindSignupFailure, i18n.KeySignupFailed, err)
	}
	if existing != nil {
		return c.duplicate(ctx, nil)
	}

	outcome, err := c.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return c.failure(ctx, KindSignupFailure, i18n.KeySignupFailed, err)
	}

	step := users.StepPendingConfirmation
	if outcome.Confirmed {
		step = users.StepDone
	}

	record := &users.Record{
		Email:            email,
		SubjectID:        outcome.SubjectID,
		RegistrationStep: step,
	}
	if err := c.store.Create(ctx, record); err != nil {
		c.diverged(ctx, "signup", email, outcome.SubjectID, err)
		if errors.Is(err, users.ErrDuplicate) {
			return c.duplicate(ctx, err)
		}
		return c.failure(ctx, KindSignupFailure, i18n.KeySignupFailed, err)
	}

	return nil
}

// ConfirmSignup submits the confirmation code and marks the record DONE
func (c *Coordinator) ConfirmSignup(ctx context.Context, email, code string) (err error) {
	defer c.track("confirm_signup", time.Now(), &err)

	if err := validation.First(
		validation.Required("email", email),
		validation.Code("code", code),
	); err != nil {
		return c.invalid(ctx, err)
	}

	if err := c.provider.ConfirmAccount(ctx, email, code); err != nil {
		return c.failure(ctx, KindConfirmationFailure, i18n.KeyConfirmationFailed, err)
	}

	if err := c.store.MarkConfirmed(ctx, email); err != nil {
		c.diverged(ctx, "confirm_signup", email, "", err)
		return c.failure(ctx, KindConfirmationFailure, i18n.KeyConfirmationFailed, err)
	}

	return nil
}

// Login checks credentials and classifies the provider's challenge.
// MFA_SETUP immediately requests the software token secret.
func (c *Coordinator) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	defer c.track("login", time.Now(), &err)

	if err := validation.First(
		validation.Required("email", email),
		validation.Required("password", password),
	); err != nil {
		return nil, c.invalid(ctx, err)
	}

	outcome, err := c.provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, c.failure(ctx, KindLoginFailure, i18n.KeyLoginFailed, err)
	}

	switch outcome.ChallengeName {
	case identity.ChallengeNewPasswordRequired:
		return &LoginResult{
			ChallengeName: outcome.ChallengeName,
			Session:       outcome.Session,
		}, nil

	case identity.ChallengeMFASetup:
		secret, err := c.provider.AssociateMFA(ctx, outcome.Session)
		if err != nil {
			return nil, c.failure(ctx, KindLoginFailure, i18n.KeyLoginFailed, err)
		}
		session := secret.Session
		if session == "" {
			session = outcome.Session
		}
		return &LoginResult{
			ChallengeName: outcome.ChallengeName,
			Session:       session,
			SecretCode:    secret.SecretCode,
		}, nil

	default:
		return &LoginResult{
			ChallengeName: outcome.ChallengeName,
			Session:       outcome.Session,
			Tokens:        outcome.Tokens,
		}, nil
	}
}

// SetupMFA verifies the first authenticator code of an MFA_SETUP session
func (c *Coordinator) SetupMFA(ctx context.Context, session, code string) (result *identity.Verification, err error) {
	defer c.track("setup_mfa", time.Now(), &err)

	if err := validation.First(
		validation.Required("session", session),
		validation.Code("code", code),
	); err != nil {
		return nil, c.invalid(ctx, err)
	}

	verification, err := c.provider.VerifyMFA(ctx, session, code)
	if err != nil {
		return nil, c.failure(ctx, KindSetupMFAFailure, i18n.KeySetupMFAFailed, err)
	}
	return verification, nil
}

// ConfirmLogin answers a SOFTWARE_TOKEN_MFA challenge.
// Code and session errors are reclassified; anything else is returned as-is.
func (c *Coordinator) ConfirmLogin(ctx context.Context, email, session, code string) (tokens *identity.Tokens, err error) {
	defer c.track("confirm_login", time.Now(), &err)

	if err := validation.First(
		validation.Required("email", email),
		validation.Required("session", session),
		validation.Code("code", code),
	); err != nil {
		return nil, c.invalid(ctx, err)
	}

	tokens, err = c.provider.RespondToChallenge(ctx, email, session, code)
	if err == nil {
		return tokens, nil
	}

	switch name := identity.ErrorName(err); name {
	case identity.ErrCodeMismatch, identity.ErrExpiredCode:
		return nil, &Error{
			Kind:    KindInvalidCode,
			Name:    name,
			Message: c.catalog.Message(ctx, i18n.KeyInvalidCode),
			Detail:  providerMessage(err),
			Err:     err,
		}
	case identity.ErrNotAuthorized:
		return nil, &Error{
			Kind:    KindSessionExpired,
			Name:    name,
			Message: c.catalog.Message(ctx, i18n.KeySessionExpired),
			Detail:  providerMessage(err),
			Err:     err,
		}
	default:
		return nil, err
	}
}

// ResendConfirmationCode asks the provider to send a new signup code
func (c *Coordinator) ResendConfirmationCode(ctx context.Context, email string) (err error) {
	defer c.track("resend_confirmation_code", time.Now(), &err)

	if err := validation.Required("email", email); err != nil {
		return c.invalid(ctx, err)
	}

	if err := c.provider.ResendCode(ctx, email); err != nil {
		return c.failure(ctx, KindResendFailure, i18n.KeyResendFailed, err)
	}
	return nil
}

// ForgotPassword starts a password reset. Provider errors pass through unchanged.
func (c *Coordinator) ForgotPassword(ctx context.Context, email string) (err error) {
	defer c.track("forgot_password", time.Now(), &err)

	if err := validation.Required("email", email); err != nil {
		return c.invalid(ctx, err)
	}

	return c.provider.ResetPassword(ctx, email)
}

// ResetPassword completes a password reset. The user message is chosen by
// the provider error name, falling back to a generic reset failure.
func (c *Coordinator) ResetPassword(ctx context.Context, email, code, newPassword string) (err error) {
	defer c.track("reset_password", time.Now(), &err)

	if err := validation.First(
		validation.Required("email", email),
		validation.Code("code", code),
		validation.Password("password", newPassword),
	); err != nil {
		return c.invalid(ctx, err)
	}

	err = c.provider.ConfirmPasswordReset(ctx, email, code, newPassword)
	if err == nil {
		return nil
	}

	name := identity.ErrorName(err)
	key := i18n.ResetKey(name)
	if name == "" || !c.catalog.Has(key) {
		key = i18n.KeyResetFailed
	}

	return &Error{
		Kind:    KindConfirmForgotPasswordFailure,
		Name:    nameOr(name, KindConfirmForgotPasswordFailure),
		Message: c.catalog.Message(ctx, key),
		Detail:  providerMessage(err),
		Err:     err,
	}
}

// RefreshToken exchanges a refresh token for new tokens. Provider errors pass through unchanged.
func (c *Coordinator) RefreshToken(ctx context.Context, refreshToken string) (tokens *identity.Tokens, err error) {
	defer c.track("refresh_token", time.Now(), &err)

	if err := validation.Required("refreshToken", refreshToken); err != nil {
		return nil, c.invalid(ctx, err)
	}

	return c.provider.RefreshToken(ctx, refreshToken)
}

func (c *Coordinator) invalid(ctx context.Context, err error) error {
	return &Error{
		Kind:    KindValidation,
		Name:    string(KindValidation),
		Message: c.catalog.Message(ctx, i18n.KeyValidationFailed),
		Detail:  err.Error(),
		Err:     err,
	}
}

func (c *Coordinator) duplicate(ctx context.Context, err error) error {
	return &Error{
		Kind:    KindDuplicateUser,
		Name:    string(KindDuplicateUser),
		Message: c.catalog.Message(ctx, i18n.KeyUserExists),
		Err:     err,
	}
}

// failure wraps err in a flow error of kind. SetupMFAFailure keeps the
// provider error name so callers can branch on the mismatch kind.
func (c *Coordinator) failure(ctx context.Context, kind Kind, key string, err error) error {
	name := string(kind)
	if kind == KindSetupMFAFailure {
		name = nameOr(identity.ErrorName(err), kind)
	}

	c.logger.WithFields(map[string]interface{}{
		"kind":           string(kind),
		"provider_error": identity.ErrorName(err),
	}).WithError(err).Debug("auth flow failure")

	return &Error{
		Kind:    kind,
		Name:    name,
		Message: c.catalog.Message(ctx, key),
		Detail:  providerMessage(err),
		Err:     err,
	}
}

// diverged reports a provider change the store could not mirror
func (c *Coordinator) diverged(ctx context.Context, operation, email, subjectID string, err error) {
	c.metrics.RecordDivergence(operation)
	observability.FromContext(ctx, c.logger).WithFields(map[string]interface{}{
		"operation":  operation,
		"email":      email,
		"subject_id": subjectID,
	}).WithError(err).Error("identity provider and user store diverged")
}

func (c *Coordinator) track(operation string, start time.Time, errp *error) {
	outcome := "success"
	if err := *errp; err != nil {
		if flowErr, ok := AsError(err); ok {
			outcome = string(flowErr.Kind)
		} else {
			outcome = "provider_error"
		}
	}
	c.metrics.RecordAuthOperation(operation, outcome, time.Since(start))
}

func providerMessage(err error) string {
	if pe, ok := identity.AsProviderError(err); ok {
		return pe.Message
	}
	return err.Error()
}

func nameOr(name string, kind Kind) string {
	if name == "" {
		return string(kind)
	}
	return name
}
