// Package api provides the HTTP JSON API for the auth gateway.
//
// # Overview
//
// Every endpoint lives under /auth and maps one request to one
// authflow.Coordinator operation:
//
//	POST /auth/signup              Signup                 201
//	POST /auth/signup/confirm      ConfirmSignup          200
//	POST /auth/signup/resend       ResendConfirmationCode 200
//	POST /auth/login               Login                  200
//	POST /auth/login/confirm       ConfirmLogin           200
//	POST /auth/mfa/setup           SetupMFA               200
//	POST /auth/password/forgot     ForgotPassword         200
//	POST /auth/password/reset      ResetPassword          200
//	POST /auth/token/refresh       RefreshToken           200
//	GET  /auth/provider            public provider settings
//
// # Errors
//
// Failures are written as {"error": message, "name": name, "detail": detail}.
// The message is localized from Accept-Language. LoginFailure never
// carries a detail so a failed login does not reveal whether the account
// exists.
//
//	Validation, InvalidCode, other flow failures   400
//	SessionExpired, LoginFailure                   401
//	DuplicateUser                                  409
//	provider throttling                            429
//	provider client faults                         400 (NotAuthorized 401)
//	other provider failures                        502
//	anything else                                  500
//
// # Usage
//
//	server := api.NewServer(coordinator,
//		api.WithLogger(logger),
//		api.WithMetrics(metrics),
//		api.WithMiddleware(rateLimit.Handler),
//	)
//	http.ListenAndServe(":8080", server)
package api
