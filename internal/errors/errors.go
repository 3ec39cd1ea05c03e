// Package errors defines the stable error taxonomy for the analysis engine.
// Only root-level failures surface as errors; per-file failures during
// traversal are absorbed into graph metadata instead.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ValidationFailed indicates bad or missing request fields
	ValidationFailed ErrorCode = "VALIDATION_FAILED"
	// RootNotFound indicates the root file of an analysis cannot be fetched
	RootNotFound ErrorCode = "ROOT_NOT_FOUND"
	// UpstreamUnavailable indicates the code-hosting service rejected or
	// timed out on a request (auth, rate limit, 5xx)
	UpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	// BudgetExceeded indicates a node-count or wall-clock budget was hit
	BudgetExceeded ErrorCode = "BUDGET_EXCEEDED"
	// InternalError indicates an unexpected failure
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// EngineError is the error type returned by engine entry points.
type EngineError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates an EngineError with the given code and message.
func New(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details to the error
func (e *EngineError) WithDetails(details interface{}) *EngineError {
	e.Details = details
	return e
}

// NewValidation creates a VALIDATION_FAILED error.
func NewValidation(message string) *EngineError {
	return New(ValidationFailed, message, nil)
}

// NewRootNotFound creates a ROOT_NOT_FOUND error for the given file.
func NewRootNotFound(repo, path string, cause error) *EngineError {
	return New(RootNotFound, fmt.Sprintf("root file %s not found in %s", path, repo), cause)
}

// NewUpstream creates an UPSTREAM_UNAVAILABLE error.
func NewUpstream(message string, cause error) *EngineError {
	return New(UpstreamUnavailable, message, cause)
}

// CodeOf extracts the error code from err, or INTERNAL_ERROR for plain errors.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee.Code
	}
	return InternalError
}

// IsValidation reports whether err carries VALIDATION_FAILED.
func IsValidation(err error) bool {
	return CodeOf(err) == ValidationFailed
}

// IsNotFound reports whether err carries ROOT_NOT_FOUND.
func IsNotFound(err error) bool {
	return CodeOf(err) == RootNotFound
}

// IsUpstream reports whether err carries UPSTREAM_UNAVAILABLE.
func IsUpstream(err error) bool {
	return CodeOf(err) == UpstreamUnavailable
}
