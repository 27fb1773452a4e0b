package api

import (
	"net/http"

	"github.com/platinummonkey/authgate/pkg/authflow"
	"github.com/platinummonkey/authgate/pkg/httputil"
	"github.com/platinummonkey/authgate/pkg/identity"
	"github.com/platinummonkey/authgate/pkg/observability"
)

// flowStatus maps an auth flow failure kind to an HTTP status
func flowStatus(kind authflow.Kind) int {
	switch kind {
	case authflow.KindDuplicateUser:
		return http.StatusConflict
	case authflow.KindSessionExpired, authflow.KindLoginFailure:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// providerStatus maps an identity provider error name to an HTTP status
func providerStatus(name string) int {
	switch {
	case name == identity.ErrNotAuthorized:
		return http.StatusUnauthorized
	case identity.IsThrottle(name):
		return http.StatusTooManyRequests
	case identity.IsClientFault(name):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// providerUnavailable replaces transport error text, which can carry
// endpoint hosts and dial errors, in client responses
const providerUnavailable = "identity provider unavailable, please try again later"

// isTransport reports whether err wraps a provider transport failure
func isTransport(err error) bool {
	providerErr, ok := identity.AsProviderError(err)
	return ok && providerErr.Name == identity.ErrTransport
}

// writeError writes err as a JSON error body with the mapped status
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	logger := observability.FromContext(r.Context(), s.logger).
		WithField("operation", operation).
		WithError(err)

	if flowErr, ok := authflow.AsError(err); ok {
		body := httputil.ErrorBody{
			Error:  flowErr.Message,
			Name:   flowErr.Name,
			Detail: flowErr.Detail,
		}
		if flowErr.Kind == authflow.KindLoginFailure || isTransport(flowErr.Err) {
			body.Detail = ""
		}
		logger.WithField("kind", string(flowErr.Kind)).Debug("auth flow failed")
		httputil.WriteErrorBody(w, flowStatus(flowErr.Kind), body)
		return
	}

	if providerErr, ok := identity.AsProviderError(err); ok {
		status := providerStatus(providerErr.Name)
		if status >= http.StatusInternalServerError {
			logger.Error("identity provider call failed")
		} else {
			logger.Debug("identity provider rejected request")
		}
		message := providerErr.Message
		if providerErr.Name == identity.ErrTransport {
			message = providerUnavailable
		}
		httputil.WriteErrorBody(w, status, httputil.ErrorBody{
			Error: message,
			Name:  providerErr.Name,
		})
		return
	}

	logger.Error("unexpected error")
	httputil.WriteInternalError(w)
}
