package identity

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/authgate/pkg/observability"
)

// cognitoAPI is the subset of the Cognito client used by the adapter
type cognitoAPI interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	AssociateSoftwareToken(ctx context.Context, params *cip.AssociateSoftwareTokenInput, optFns ...func(*cip.Options)) (*cip.AssociateSoftwareTokenOutput, error)
	VerifySoftwareToken(ctx context.Context, params *cip.VerifySoftwareTokenInput, optFns ...func(*cip.Options)) (*cip.VerifySoftwareTokenOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cip.RespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	ForgotPassword(ctx context.Context, params *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, params *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	AdminGetUser(ctx context.Context, params *cip.AdminGetUserInput, optFns ...func(*cip.Options)) (*cip.AdminGetUserOutput, error)
}

// CognitoConfig configures the Cognito user pool adapter
type CognitoConfig struct {
	AccessKey  string
	SecretKey  string
	Region     string
	ClientID   string
	Domain     string
	UserPoolID string
	Endpoint   string
}

// CognitoOption customizes a CognitoProvider
type CognitoOption func(*CognitoProvider)

// WithMetrics records provider calls in m
func WithMetrics(m *observability.Metrics) CognitoOption {
	return func(p *CognitoProvider) {
		p.metrics = m
	}
}

// CognitoProvider implements Provider against an AWS Cognito user pool app client
type CognitoProvider struct {
	api       cognitoAPI
	transport *http.Transport
	cfg       CognitoConfig
	metrics   *observability.Metrics
	tracer    trace.Tracer
	closed    atomic.Bool
}

var _ Provider = (*CognitoProvider)(nil)

// NewCognitoProvider builds the long-lived Cognito client with static credentials.
// The client owns a dedicated HTTP transport that Close releases.
func NewCognitoProvider(ctx context.Context, cfg CognitoConfig, opts ...CognitoOption) (*CognitoProvider, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithHTTPClient(&http.Client{Transport: transport}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := cip.NewFromConfig(awsCfg, func(o *cip.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	p := newCognitoProvider(client, cfg, opts...)
	p.transport = transport
	return p, nil
}

func newCognitoProvider(api cognitoAPI, cfg CognitoConfig, opts ...CognitoOption) *CognitoProvider {
	p := &CognitoProvider{
		api:    api,
		cfg:    cfg,
		tracer: observability.Tracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Settings returns the public provider settings
func (p *CognitoProvider) Settings() PublicSettings {
	return PublicSettings{
		Region:   p.cfg.Region,
		ClientID: p.cfg.ClientID,
		Domain:   p.cfg.Domain,
	}
}

// Close releases idle connections. Later calls fail with ErrClosed.
func (p *CognitoProvider) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if p.transport != nil {
		p.transport.CloseIdleConnections()
	}
	return nil
}

// call runs one provider operation inside a span and records its outcome
func (p *CognitoProvider) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	if p.closed.Load() {
		return ErrClosed
	}

	ctx, span := p.tracer.Start(ctx, "cognito."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cognito.operation", operation),
			attribute.String("cognito.region", p.cfg.Region),
		),
	)
	defer span.End()

	start := time.Now()
	err := normalizeError(fn(ctx))

	result := "success"
	if err != nil {
		result = ErrorName(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	p.metrics.RecordProviderCall(operation, result, time.Since(start))

	return err
}

// CreateAccount calls SignUp
func (p *CognitoProvider) CreateAccount(ctx context.Context, email, password string) (*SignupOutcome, error) {
	var out *cip.SignUpOutput
	err := p.call(ctx, "SignUp", func(ctx context.Context) error {
		var err error
		out, err = p.api.SignUp(ctx, &cip.SignUpInput{
			ClientId: aws.String(p.cfg.ClientID),
			Username: aws.String(email),
			Password: aws.String(password),
			UserAttributes: []types.AttributeType{
				{Name: aws.String("email"), Value: aws.String(email)},
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &SignupOutcome{
		SubjectID: aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}, nil
}

// ConfirmAccount calls ConfirmSignUp
func (p *CognitoProvider) ConfirmAccount(ctx context.Context, email, code string) error {
	return p.call(ctx, "ConfirmSignUp", func(ctx context.Context) error {
		_, err := p.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
			ClientId:         aws.String(p.cfg.ClientID),
			Username:         aws.String(email),
			ConfirmationCode: aws.String(code),
		})
		return err
	})
}

// Authenticate calls InitiateAuth with USER_PASSWORD_AUTH
func (p *CognitoProvider) Authenticate(ctx context.Context, email, password string) (*AuthOutcome, error) {
	var out *cip.InitiateAuthOutput
	err := p.call(ctx, "InitiateAuth", func(ctx context.Context) error {
		var err error
		out, err = p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
			AuthFlow: types.AuthFlowTypeUserPasswordAuth,
			ClientId: aws.String(p.cfg.ClientID),
			AuthParameters: map[string]string{
				"USERNAME": email,
				"PASSWORD": password,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutcome{
		ChallengeName:       ChallengeName(out.ChallengeName),
		Session:             aws.ToString(out.Session),
		ChallengeParameters: out.ChallengeParameters,
		Tokens:              tokensFrom(out.AuthenticationResult, ""),
	}, nil
}

// AssociateMFA calls AssociateSoftwareToken for a challenge session
func (p *CognitoProvider) AssociateMFA(ctx context.Context, session string) (*MFASecret, error) {
	var out *cip.AssociateSoftwareTokenOutput
	err := p.call(ctx, "AssociateSoftwareToken", func(ctx context.Context) error {
		var err error
		out, err = p.api.AssociateSoftwareToken(ctx, &cip.AssociateSoftwareTokenInput{
			Session: aws.String(session),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &MFASecret{
		SecretCode: aws.ToString(out.SecretCode),
		Session:    aws.ToString(out.Session),
	}, nil
}

// VerifyMFA calls VerifySoftwareToken
func (p *CognitoProvider) VerifyMFA(ctx context.Context, session, code string) (*Verification, error) {
	var out *cip.VerifySoftwareTokenOutput
	err := p.call(ctx, "VerifySoftwareToken", func(ctx context.Context) error {
		var err error
		out, err = p.api.VerifySoftwareToken(ctx, &cip.VerifySoftwareTokenInput{
			Session:  aws.String(session),
			UserCode: aws.String(code),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Verification{
		Status:  string(out.Status),
		Session: aws.ToString(out.Session),
	}, nil
}

// RespondToChallenge answers SOFTWARE_TOKEN_MFA via RespondToAuthChallenge
func (p *CognitoProvider) RespondToChallenge(ctx context.Context, email, session, code string) (*Tokens, error) {
	var out *cip.RespondToAuthChallengeOutput
	err := p.call(ctx, "RespondToAuthChallenge", func(ctx context.Context) error {
		var err error
		out, err = p.api.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
			ChallengeName: types.ChallengeNameTypeSoftwareTokenMfa,
			ClientId:      aws.String(p.cfg.ClientID),
			Session:       aws.String(session),
			ChallengeResponses: map[string]string{
				"USERNAME":                email,
				"SOFTWARE_TOKEN_MFA_CODE": code,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return requireTokens(out.AuthenticationResult, out.ChallengeName, "")
}

// ResendCode calls ResendConfirmationCode
func (p *CognitoProvider) ResendCode(ctx context.Context, email string) error {
	return p.call(ctx, "ResendConfirmationCode", func(ctx context.Context) error {
		_, err := p.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
			ClientId: aws.String(p.cfg.ClientID),
			Username: aws.String(email),
		})
		return err
	})
}

// ResetPassword calls ForgotPassword
func (p *CognitoProvider) ResetPassword(ctx context.Context, email string) error {
	return p.call(ctx, "ForgotPassword", func(ctx context.Context) error {
		_, err := p.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
			ClientId: aws.String(p.cfg.ClientID),
			Username: aws.String(email),
		})
		return err
	})
}

// ConfirmPasswordReset calls ConfirmForgotPassword
func (p *CognitoProvider) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	return p.call(ctx, "ConfirmForgotPassword", func(ctx context.Context) error {
		_, err := p.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
			ClientId:         aws.String(p.cfg.ClientID),
			Username:         aws.String(email),
			ConfirmationCode: aws.String(code),
			Password:         aws.String(newPassword),
		})
		return err
	})
}

// RefreshToken calls InitiateAuth with REFRESH_TOKEN_AUTH.
// Cognito does not rotate the refresh token here, so the input token is carried over.
func (p *CognitoProvider) RefreshToken(ctx context.Context, refreshToken string) (*Tokens, error) {
	var out *cip.InitiateAuthOutput
	err := p.call(ctx, "InitiateAuth", func(ctx context.Context) error {
		var err error
		out, err = p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
			AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
			ClientId: aws.String(p.cfg.ClientID),
			AuthParameters: map[string]string{
				"REFRESH_TOKEN": refreshToken,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return requireTokens(out.AuthenticationResult, out.ChallengeName, refreshToken)
}

// AccountStatus calls AdminGetUser. Requires a user pool id.
func (p *CognitoProvider) AccountStatus(ctx context.Context, email string) (AccountStatus, error) {
	if p.cfg.UserPoolID == "" {
		return AccountUnknown, ErrNoUserPool
	}

	var out *cip.AdminGetUserOutput
	err := p.call(ctx, "AdminGetUser", func(ctx context.Context) error {
		var err error
		out, err = p.api.AdminGetUser(ctx, &cip.AdminGetUserInput{
			UserPoolId: aws.String(p.cfg.UserPoolID),
			Username:   aws.String(email),
		})
		return err
	})
	if err != nil {
		return AccountUnknown, err
	}

	switch out.UserStatus {
	case types.UserStatusTypeConfirmed:
		return AccountConfirmed, nil
	case types.UserStatusTypeUnconfirmed:
		return AccountUnconfirmed, nil
	default:
		return AccountStatus(out.UserStatus), nil
	}
}

// requireTokens fails with ErrIncompleteAuth when the provider answered
// with another challenge (or nothing) instead of an authentication result
func requireTokens(result *types.AuthenticationResultType, challenge types.ChallengeNameType, fallbackRefresh string) (*Tokens, error) {
	if tokens := tokensFrom(result, fallbackRefresh); tokens != nil {
		return tokens, nil
	}
	message := "identity provider returned no tokens"
	if challenge != "" {
		message = fmt.Sprintf("identity provider requires challenge %s before issuing tokens", challenge)
	}
	return nil, &ProviderError{Name: ErrIncompleteAuth, Message: message}
}

func tokensFrom(result *types.AuthenticationResultType, fallbackRefresh string) *Tokens {
	if result == nil {
		return nil
	}
	tokens := &Tokens{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		TokenType:    aws.ToString(result.TokenType),
		ExpiresIn:    result.ExpiresIn,
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = fallbackRefresh
	}
	return tokens
}
