package api

import (
	"net/http"

	"github.com/platinummonkey/authgate/pkg/httputil"
)

// signup handles POST /auth/signup
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.flow.Signup(r.Context(), req.Email, req.Password); err != nil {
		s.writeError(w, r, "signup", err)
		return
	}

	_ = httputil.WriteCreated(w, httputil.StatusResponse{Status: "ok"})
}

// confirmSignup handles POST /auth/signup/confirm
func (s *Server) confirmSignup(w http.ResponseWriter, r *http.Request) {
	var req ConfirmSignupRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.flow.ConfirmSignup(r.Context(), req.Email, req.Code); err != nil {
		s.writeError(w, r, "confirm_signup", err)
		return
	}

	_ = httputil.WriteOK(w)
}

// resendConfirmationCode handles POST /auth/signup/resend
func (s *Server) resendConfirmationCode(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.flow.ResendConfirmationCode(r.Context(), req.Email); err != nil {
		s.writeError(w, r, "resend_confirmation_code", err)
		return
	}

	_ = httputil.WriteOK(w)
}

// login handles POST /auth/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := s.flow.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, "login", err)
		return
	}

	_ = httputil.WriteSuccess(w, result)
}

// confirmLogin handles POST /auth/login/confirm
func (s *Server) confirmLogin(w http.ResponseWriter, r *http.Request) {
	var req ConfirmLoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tokens, err := s.flow.ConfirmLogin(r.Context(), req.Email, req.Session, req.Code)
	if err != nil {
		s.writeError(w, r, "confirm_login", err)
		return
	}

	_ = httputil.WriteSuccess(w, tokens)
}

// setupMFA handles POST /auth/mfa/setup
func (s *Server) setupMFA(w http.ResponseWriter, r *http.Request) {
	var req SetupMFARequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	verification, err := s.flow.SetupMFA(r.Context(), req.Session, req.Code)
	if err != nil {
		s.writeError(w, r, "setup_mfa", err)
		return
	}

	_ = httputil.WriteSuccess(w, verification)
}

// forgotPassword handles POST /auth/password/forgot
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.flow.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeError(w, r, "forgot_password", err)
		return
	}

	_ = httputil.WriteOK(w)
}

// resetPassword handles POST /auth/password/reset
func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.flow.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		s.writeError(w, r, "reset_password", err)
		return
	}

	_ = httputil.WriteOK(w)
}

// refreshToken handles POST /auth/token/refresh
func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	tokens, err := s.flow.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, "refresh_token", err)
		return
	}

	_ = httputil.WriteSuccess(w, tokens)
}

// providerSettings handles GET /auth/provider
func (s *Server) providerSettings(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteSuccess(w, s.flow.ProviderSettings())
}
