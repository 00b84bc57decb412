package llm

import (
	"errors"
	"time"
)

// Error is a provider-neutral LLM error. Every vendor failure is normalized
// into one of these at the adapter boundary, carrying the provider name, the
// model id, and the HTTP status code when the vendor reported one.
type Error struct {
	Type        ErrorType
	Provider    string
	Model       string
	Message     string
	Retryable   bool
	RetryAfter  *time.Duration
	StatusCode  int
	ProviderErr error // Original provider-specific error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypeRequestTooLarge ErrorType = "request_too_large"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeProvider        ErrorType = "provider"
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeUnknown         ErrorType = "unknown"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.ProviderErr != nil {
		return msg + ": " + e.ProviderErr.Error()
	}
	return msg
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == ErrorTypeRateLimit
	}
	return false
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// ExtractRetryAfter extracts the retry-after duration from an error.
func ExtractRetryAfter(err error) *time.Duration {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.RetryAfter
	}
	return nil
}

// NewRateLimitError creates a rate limit error for the given provider/model.
func NewRateLimitError(provider, model, message string, retryAfter *time.Duration, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeRateLimit,
		Provider:    provider,
		Model:       model,
		Message:     message,
		Retryable:   true,
		RetryAfter:  retryAfter,
		ProviderErr: providerErr,
	}
}

// NewProviderError creates a provider error with the vendor-reported status.
func NewProviderError(provider, model string, statusCode int, message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeProvider,
		Provider:    provider,
		Model:       model,
		Message:     message,
		Retryable:   statusCode >= 500,
		StatusCode:  statusCode,
		ProviderErr: providerErr,
	}
}

// NewInvalidRequestError creates an error for requests the vendor rejected.
func NewInvalidRequestError(provider, model string, statusCode int, message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeInvalidRequest,
		Provider:    provider,
		Model:       model,
		Message:     message,
		Retryable:   false,
		StatusCode:  statusCode,
		ProviderErr: providerErr,
	}
}
