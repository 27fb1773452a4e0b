package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/authgate/pkg/httputil"
	"github.com/platinummonkey/authgate/pkg/middleware"
	"github.com/platinummonkey/authgate/pkg/observability"
)

const defaultMaxBodyBytes = 64 << 10

// Server represents the auth API server
type Server struct {
	router       *mux.Router
	handler      http.Handler
	flow         AuthFlow
	logger       *observability.Logger
	metrics      *observability.Metrics
	middleware   []func(http.Handler) http.Handler
	corsOrigins  []string
	maxBodyBytes int64
}

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the request and error logger
func WithLogger(logger *observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics enables HTTP request metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMiddleware appends router middleware. It runs after route matching,
// in the order given.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithCORSOrigins allows cross-origin requests from the given origins
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMaxBodyBytes caps request body size
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// NewServer creates a new API server
func NewServer(flow AuthFlow, opts ...Option) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		flow:         flow,
		logger:       observability.NopLogger(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	chain := []func(http.Handler) http.Handler{
		httputil.RequestIDMiddleware(s.logger),
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
	}
	if len(s.corsOrigins) > 0 {
		chain = append(chain, httputil.CORSMiddleware(s.corsOrigins))
	}
	chain = append(chain,
		middleware.LocaleMiddleware,
		httputil.MaxBytesMiddleware(s.maxBodyBytes),
		httputil.ContentTypeMiddleware,
	)
	s.handler = httputil.Chain(chain...)(s.router)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	for _, mw := range s.middleware {
		s.router.Use(mux.MiddlewareFunc(mw))
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorBody(w, http.StatusNotFound, httputil.ErrorBody{Error: "not found", Name: "NotFound"})
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorBody(w, http.StatusMethodNotAllowed, httputil.ErrorBody{Error: "method not allowed", Name: "MethodNotAllowed"})
	})

	auth := s.router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/signup", s.signup).Methods(http.MethodPost)
	auth.HandleFunc("/signup/confirm", s.confirmSignup).Methods(http.MethodPost)
	auth.HandleFunc("/signup/resend", s.resendConfirmationCode).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.login).Methods(http.MethodPost)
	auth.HandleFunc("/login/confirm", s.confirmLogin).Methods(http.MethodPost)
	auth.HandleFunc("/mfa/setup", s.setupMFA).Methods(http.MethodPost)
	auth.HandleFunc("/password/forgot", s.forgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/password/reset", s.resetPassword).Methods(http.MethodPost)
	auth.HandleFunc("/token/refresh", s.refreshToken).Methods(http.MethodPost)
	auth.HandleFunc("/provider", s.providerSettings).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
