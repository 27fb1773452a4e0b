// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// JSON encoding/decoding, the error body every endpoint returns, and the
// common middleware chain (request ids, access logging, panic recovery,
// CORS and body limits).
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteErrorBody(w, http.StatusConflict, httputil.ErrorBody{Error: msg, Name: "DuplicateUser"})
//
// # Request Parsing
//
//	var req SignupRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)
package httputil
