// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Pipeline
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeProviderFailure       ErrorCode = "PROVIDER_FAILURE"
	ErrCodeProviderTimeout       ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeInternalDegradation   ErrorCode = "INTERNAL_DEGRADATION"
	ErrCodeUnknownPlatform       ErrorCode = "UNKNOWN_PLATFORM"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	// Profile store
	ErrCodeProfileNotFound         ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileValidationFailed ErrorCode = "PROFILE_VALIDATION_FAILED"

	// Database
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseQueryFailed      ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeDatabaseTimeout          ErrorCode = "DATABASE_TIMEOUT"

	// Cache
	ErrCodeCacheReadFailed  ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWriteFailed ErrorCode = "CACHE_WRITE_FAILED"

	// Search
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the structured error carried between components and onto Zeebe jobs.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches any StandardError with the same code, so sentinels work with errors.Is.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns e after setting key on its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels for errors.Is.
var (
	ErrInvalidInput    = &StandardError{Code: ErrCodeInvalidInput}
	ErrProfileNotFound = &StandardError{Code: ErrCodeProfileNotFound}
	ErrProviderFailure = &StandardError{Code: ErrCodeProviderFailure}
)

// AsStandardError unwraps err to a *StandardError if it holds one.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false)
}

func NewInputValidationFailedError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Job input failed schema validation", details, false)
}

func NewProviderFailureError(platform string, err error) *StandardError {
	return newError(ErrCodeProviderFailure, "Retrieval provider failed", err.Error(), true).
		WithMetadata("platform", platform)
}

func NewProviderTimeoutError(platform string, timeout time.Duration) *StandardError {
	return newError(ErrCodeProviderTimeout, "Retrieval provider timed out",
		fmt.Sprintf("platform: %s, timeout: %s", platform, timeout), true).
		WithMetadata("platform", platform)
}

func NewUnknownPlatformError(platform string) *StandardError {
	return newError(ErrCodeUnknownPlatform, "Platform is not registered",
		fmt.Sprintf("platform: %s", platform), false).
		WithMetadata("platform", platform)
}

func NewInternalDegradationError(stage string, cause interface{}) *StandardError {
	return newError(ErrCodeInternalDegradation, "Stage degraded to pass-through",
		fmt.Sprintf("stage: %s, cause: %v", stage, cause), false).
		WithMetadata("stage", stage)
}

func NewProfileNotFoundError(userID string) *StandardError {
	return newError(ErrCodeProfileNotFound, "User profile not found",
		fmt.Sprintf("userId: %s", userID), false)
}

func NewProfileValidationFailedError(details string) *StandardError {
	return newError(ErrCodeProfileValidationFailed, "Profile update validation failed", details, false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseQueryFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewDatabaseTimeoutError(operation string) *StandardError {
	return newError(ErrCodeDatabaseTimeout, "Database query timeout",
		fmt.Sprintf("operation: %s", operation), true)
}

func NewCacheReadFailedError(key string, err error) *StandardError {
	return newError(ErrCodeCacheReadFailed, "Cache read failed",
		fmt.Sprintf("key: %s, error: %s", key, err.Error()), true)
}

func NewCacheWriteFailedError(key string, err error) *StandardError {
	return newError(ErrCodeCacheWriteFailed, "Cache write failed",
		fmt.Sprintf("key: %s, error: %s", key, err.Error()), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeInputValidationFailed:    "INVALID_INPUT",
	ErrCodeProfileNotFound:          "PROFILE_NOT_FOUND",
	ErrCodeProfileValidationFailed:  "PROFILE_VALIDATION_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_ERROR",
	ErrCodeDatabaseQueryFailed:      "DATABASE_ERROR",
	ErrCodeDatabaseTimeout:          "DATABASE_ERROR",
	ErrCodeCacheReadFailed:          "CACHE_ERROR",
	ErrCodeCacheWriteFailed:         "CACHE_ERROR",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseQueryFailed,
		ErrCodeCacheReadFailed,
		ErrCodeCacheWriteFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeProviderFailure:
		return 3
	case ErrCodeDatabaseTimeout,
		ErrCodeProviderTimeout:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.HasPrefix(codeStr, "PROVIDER") || codeStr == string(ErrCodeUnknownPlatform):
		return "RETRIEVAL"
	case strings.HasPrefix(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.HasPrefix(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case codeStr == string(ErrCodeInternalDegradation):
		return "DEGRADATION"
	default:
		return "OTHER"
	}
}
