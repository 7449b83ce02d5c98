// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for LeadScout.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies LeadScout errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeNotFound indicates a resource was not found, such as an unknown
	// agent or task template id.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeMissingParameter indicates a template referenced a placeholder
	// for which no value was supplied at render time.
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"

	// CodeMalformedTemplate indicates a template references a placeholder
	// outside the recognized set. Detected at configuration load.
	CodeMalformedTemplate ErrorCode = "MALFORMED_TEMPLATE"

	// CodeSearchFailure indicates a web search request failed.
	CodeSearchFailure ErrorCode = "SEARCH_FAILURE"

	// CodeLLMError indicates an LLM provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeRateLimit indicates rate limiting was triggered.
	CodeRateLimit ErrorCode = "RATE_LIMITED"

	// CodeUnauthorized indicates authorization failed (e.g. bad API key).
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeContextLost indicates context was lost (e.g. canceled mid-retry).
	CodeContextLost ErrorCode = "CONTEXT_LOST"
)

// LeadScoutError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type LeadScoutError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int // For HTTP responses
}

// Error implements the error interface.
func (e *LeadScoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *LeadScoutError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *LeadScoutError) MarshalJSON() ([]byte, error) {
	type Alias LeadScoutError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new LeadScoutError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *LeadScoutError {
	return &LeadScoutError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *LeadScoutError) WithContext(key string, value interface{}) *LeadScoutError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *LeadScoutError) WithAttribute(key, value string) *LeadScoutError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *LeadScoutError) WithRecoverable(recoverable bool) *LeadScoutError {
	e.Recoverable = recoverable
	return e
}

// AsLeadScoutError attempts to convert an error to a LeadScoutError.
// Returns the error as LeadScoutError if it is one, or wraps it otherwise.
func AsLeadScoutError(err error) *LeadScoutError {
	if err == nil {
		return nil
	}
	if le, ok := err.(*LeadScoutError); ok {
		return le
	}
	// Wrap unknown error as internal
	return New(CodeInternal, "wrapped error", err)
}

// IsCode reports whether err is a LeadScoutError with the given code.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	le, ok := err.(*LeadScoutError)
	return ok && le.Code == code
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *LeadScoutError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeUnauthorized:
		return 401
	case CodeInvalidInput, CodeMissingParameter:
		return 400
	case CodeTimeout:
		return 408
	case CodeRateLimit:
		return 429
	default:
		return 500
	}
}
