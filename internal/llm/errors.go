package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// TransportError represents a failure talking to the completion service
type TransportError struct {
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm transport error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("llm transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// AuthError represents rejected credentials for the completion service
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm auth error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("llm auth error: %s", e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// EmptyResponseError represents a completion that carried no usable text, such as a
// safety block or a token limit reached before any output
type EmptyResponseError struct {
	Reason string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("llm returned no output: %s", e.Reason)
}

// IsRetryable reports whether err is a transport failure worth retrying
func IsRetryable(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr) && tErr.Retryable
}

// ClassifyError wraps a raw client error into a TransportError or AuthError.
// Rate limits, timeouts, 5xx responses and dropped connections are retryable.
// Caller cancellation is returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var tErr *TransportError
	var aErr *AuthError
	if errors.As(err, &tErr) || errors.As(err, &aErr) {
		return err
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch {
		case gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden:
			return &AuthError{Message: "completion service rejected credentials", Cause: err}
		case gErr.Code == http.StatusTooManyRequests:
			return &TransportError{Message: "rate limited", StatusCode: gErr.Code, Retryable: true, Cause: err}
		case gErr.Code >= 500:
			return &TransportError{Message: "service unavailable", StatusCode: gErr.Code, Retryable: true, Cause: err}
		default:
			return &TransportError{Message: "request rejected", StatusCode: gErr.Code, Retryable: false, Cause: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Message: "timed out", Retryable: true, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Message: "network timeout", Retryable: true, Cause: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "api key not valid", "permission denied", "unauthenticated"):
		return &AuthError{Message: "completion service rejected credentials", Cause: err}
	case containsAny(msg, "429", "resource_exhausted", "rate limit", "quota"):
		return &TransportError{Message: "rate limited", StatusCode: http.StatusTooManyRequests, Retryable: true, Cause: err}
	case containsAny(msg, "timeout", "deadline exceeded", "unavailable", "503", "500 ", "internal error",
		"connection reset", "connection refused", "broken pipe", "eof"):
		return &TransportError{Message: "temporary failure", Retryable: true, Cause: err}
	}
	return &TransportError{Message: "request failed", Retryable: false, Cause: err}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
