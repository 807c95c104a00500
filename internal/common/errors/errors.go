// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	ErrCodeQuerySynthesisFailed ErrorCode = "QUERY_SYNTHESIS_FAILED"
	ErrCodeQueryRejected        ErrorCode = "QUERY_REJECTED"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreQueryFailed ErrorCode = "STORE_QUERY_FAILED"
	ErrCodeRecordNotFound   ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeNoData           ErrorCode = "NO_DATA"

	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed ErrorCode = "LLM_SYNTHESIS_FAILED"

	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newStandard(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return newStandard(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

// NewQuerySynthesisFailedError is recorded when the model could not produce a
// query. The turn still continues with the pass-through query.
func NewQuerySynthesisFailedError(err error) *StandardError {
	return newStandard(ErrCodeQuerySynthesisFailed, "Query synthesis failed", errDetails(err), false, err)
}

// NewQueryRejectedError is recorded when the validator replaced a query.
func NewQueryRejectedError(reason string) *StandardError {
	return newStandard(ErrCodeQueryRejected, "Synthesized query rejected", reason, false, nil)
}

// NewStoreUnavailableError creates a retryable store connectivity error.
func NewStoreUnavailableError(err error) *StandardError {
	return newStandard(ErrCodeStoreUnavailable, "Document store unavailable", errDetails(err), true, err)
}

// NewStoreQueryFailedError creates a retryable query execution error.
func NewStoreQueryFailedError(query string, err error) *StandardError {
	return newStandard(ErrCodeStoreQueryFailed, "Document store query failed",
		fmt.Sprintf("query: %s, error: %s", query, errDetails(err)), true, err)
}

// NewRecordNotFoundError creates a non-retryable lookup error.
func NewRecordNotFoundError(id string) *StandardError {
	return newStandard(ErrCodeRecordNotFound, "Record not found", fmt.Sprintf("id: %s", id), false, nil)
}

// NewNoDataError marks a turn whose fallback retrieval came back empty.
func NewNoDataError() *StandardError {
	return newStandard(ErrCodeNoData, "No records in the collection", "pass-through query returned nothing", false, nil)
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError(timeout time.Duration) *StandardError {
	return newStandard(ErrCodeLLMTimeout, "LLM call timeout",
		fmt.Sprintf("LLM call exceeded %s timeout", timeout), true, context.DeadlineExceeded)
}

// NewLLMSynthesisFailedError creates a retryable LLM error.
func NewLLMSynthesisFailedError(err error) *StandardError {
	return newStandard(ErrCodeLLMSynthesisFailed, "LLM synthesis API error", errDetails(err), true, err)
}

// NewEngineUnavailableError wraps a transient workflow-engine failure.
func NewEngineUnavailableError(err error) *StandardError {
	return newStandard(ErrCodeEngineUnavailable, "Workflow engine unavailable", errDetails(err), true, err)
}

// FromLLMError maps a model call failure onto LLM_TIMEOUT or LLM_SYNTHESIS_FAILED.
func FromLLMError(err error, timeout time.Duration) *StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewLLMTimeoutError(timeout)
	}
	return NewLLMSynthesisFailedError(err)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:         "INVALID_INPUT",
	ErrCodeQuerySynthesisFailed: "QUERY_SYNTHESIS_FAILED",
	ErrCodeQueryRejected:        "QUERY_REJECTED",
	ErrCodeStoreUnavailable:     "STORE_UNAVAILABLE",
	ErrCodeStoreQueryFailed:     "STORE_QUERY_FAILED",
	ErrCodeRecordNotFound:       "RECORD_NOT_FOUND",
	ErrCodeNoData:               "NO_DATA",
	ErrCodeLLMTimeout:           "LLM_TIMEOUT",
	ErrCodeLLMSynthesisFailed:   "LLM_SYNTHESIS_FAILED",
	ErrCodeEngineUnavailable:    "ENGINE_UNAVAILABLE",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreUnavailable,
		ErrCodeStoreQueryFailed,
		ErrCodeEngineUnavailable,
		ErrCodeLLMSynthesisFailed:
		return 3

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard unwraps err into a *StandardError when one is in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "QUERY"):
		return "QUERY"
	case strings.HasPrefix(codeStr, "STORE") || strings.HasPrefix(codeStr, "RECORD") || codeStr == string(ErrCodeNoData):
		return "STORE"
	case strings.HasPrefix(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
