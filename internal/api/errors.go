package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"depmap/internal/errors"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// WriteError writes an error response with automatic status code mapping
func WriteError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  string(errors.InternalError),
	}

	var ee *errors.EngineError
	if stderrors.As(err, &ee) {
		resp.Code = string(ee.Code)
		resp.Details = ee.Details
	}

	WriteJSON(w, resp, statusFor(errors.CodeOf(err)))
}

// statusFor maps engine error codes to HTTP status codes
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ValidationFailed:
		return http.StatusBadRequest // 400
	case errors.RootNotFound:
		return http.StatusNotFound // 404
	case errors.UpstreamUnavailable:
		return http.StatusBadGateway // 502
	case errors.BudgetExceeded:
		return http.StatusRequestEntityTooLarge // 413
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// BadRequest writes a 400 Bad Request error
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, errors.NewValidation(message))
}

// InternalError writes a 500 Internal Server Error
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, errors.New(errors.InternalError, message, nil))
}
