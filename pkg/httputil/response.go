package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON body of every error response
type ErrorBody struct {
	Error  string `json:"error"`
	Name   string `json:"name,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteErrorBody writes a structured JSON error response
func WriteErrorBody(w http.ResponseWriter, status int, body ErrorBody) {
	_ = WriteJSON(w, status, body)
}

// WriteErrorMessage writes a JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteErrorBody(w, status, ErrorBody{Error: message})
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteInternalError writes a generic internal server error (500).
// The underlying error is never echoed to the client.
func WriteInternalError(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
}

// WriteTooManyRequests writes a rate limit error (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusTooManyRequests, message)
}

// WriteServiceUnavailable writes a service unavailable error (503)
func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusServiceUnavailable, message)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// StatusResponse is the body of operations that return nothing but success
type StatusResponse struct {
	Status string `json:"status"`
}

// WriteOK writes {"status":"ok"} with 200
func WriteOK(w http.ResponseWriter) error {
	return WriteSuccess(w, StatusResponse{Status: "ok"})
}
