package llm

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Status is the outcome of an orchestrated request
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorKind classifies a failed orchestrated request
type ErrorKind string

const (
	// ErrorExhaustedRetries means every attempt failed transiently
	ErrorExhaustedRetries ErrorKind = "exhausted_retries"
	// ErrorInvalidResponse means the service answered with nothing usable
	ErrorInvalidResponse ErrorKind = "invalid_response"
	// ErrorCancelled means the caller cancelled the request
	ErrorCancelled ErrorKind = "cancelled"
	// ErrorInvalidRequest means the request was malformed or rejected as such
	ErrorInvalidRequest ErrorKind = "invalid_request"
)

// ErrAttemptTimeout is the cause recorded when one attempt exceeds its deadline
var ErrAttemptTimeout = errors.New("attempt timed out")

// AIRequestError is the error carried by a failed Result
type AIRequestError struct {
	Kind     ErrorKind
	Attempts int
	Cause    error
}

func (e *AIRequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ai request failed (%s after %d attempt(s)): %v", e.Kind, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("ai request failed (%s after %d attempt(s))", e.Kind, e.Attempts)
}

func (e *AIRequestError) Unwrap() error {
	return e.Cause
}

// TransientError is a provider failure worth retrying (rate limits, 5xx)
type TransientError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransientError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("transient provider error: %s: %v", msg, e.Cause)
	}
	return "transient provider error: " + msg
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// RequestError is a request the provider will never accept (validation, 4xx)
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("invalid request (status %d): %s", e.StatusCode, e.Message)
	}
	return "invalid request: " + e.Message
}

// ResponseError is a well-formed exchange that produced no usable text
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string {
	return "invalid response: " + e.Message
}

// IsTransient reports whether err is worth another attempt
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAttemptTimeout) {
		return true
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classifyStatus maps an HTTP status code of a failed call to an error
func classifyStatus(code int, body string) error {
	switch {
	case code == 429 || code == 408 || code >= 500:
		return &TransientError{StatusCode: code, Message: body}
	case code >= 400:
		return &RequestError{StatusCode: code, Message: body}
	default:
		return &ResponseError{Message: fmt.Sprintf("unexpected status %d", code)}
	}
}
