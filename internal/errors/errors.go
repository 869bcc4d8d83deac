// Package errors defines the application error taxonomy and retry policy.
package errors

import (
	stderrors "errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries classification metadata alongside the underlying cause.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// NewValidationError marks bad user input: wrong argument count, unknown
// currency, malformed address. Never retried.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewExchangeAPIError marks a transient failure talking to the exchange API.
func NewExchangeAPIError(endpoint string, cause error) *AppError {
	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("exchange API %s failed: %v", endpoint, cause),
		UserMessage: "The exchange service is temporarily unavailable. Please try again.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewExchangeRejection marks a business-rule error returned inside an
// otherwise-successful API response. Surfaced verbatim, never retried.
func NewExchangeRejection(endpoint, apiError string) *AppError {
	return &AppError{
		Code:        "E201",
		Message:     fmt.Sprintf("exchange API %s rejected request: %s", endpoint, apiError),
		UserMessage: apiError,
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// RejectionReason returns the API error string when err is an exchange
// rejection, or "" for every other error.
func RejectionReason(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code == "E201" {
		return appErr.UserMessage
	}
	return ""
}

// NewTransportError marks a failure delivering through the messenger bridge.
func NewTransportError(cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("transport error: %v", cause),
		UserMessage: "Connection error. Please try again or contact support@exch.cx",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStateError marks an operation that is impossible in the user's
// current conversational state.
func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: msg,
		Severity:    SeverityMedium,
		Retryable:   false,
	}
}

// NewRateLimitError marks a command rejected by the cooldown gate.
func NewRateLimitError(waitSeconds int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("cooldown active: retry after %d seconds", waitSeconds),
		UserMessage: fmt.Sprintf("Too fast! Please wait %d seconds before the next command.", waitSeconds),
		Severity:    SeverityLow,
		Retryable:   false,
	}
}
