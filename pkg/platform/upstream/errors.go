// Package upstream classifies failures of external services (face matching,
// ledger node) into a small category taxonomy.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	dErrors "facepay/pkg/domain-errors"
)

// Category is the normalized failure taxonomy for upstream errors.
type Category string

const (
	// Timeout: the upstream did not answer within the request deadline.
	Timeout Category = "timeout"
	// Outage: the upstream is unreachable or returned a 5xx.
	Outage Category = "outage"
	// BadData: the response could not be parsed or lacked required fields.
	BadData Category = "bad_data"
	// Authentication: the upstream rejected our API token or signer.
	Authentication Category = "authentication"
	// RateLimited: too many requests.
	RateLimited Category = "rate_limited"
	// Rejected: the upstream understood the request and refused it.
	Rejected Category = "rejected"
	// NotFound: the requested record does not exist.
	NotFound Category = "not_found"
	// CircuitOpen: the call was not attempted because the breaker is open.
	CircuitOpen Category = "circuit_open"
	// Internal: we failed before or after talking to the upstream.
	Internal Category = "internal"
)

// Error wraps an upstream failure with its category.
type Error struct {
	Category   Category
	Service    string
	Message    string
	StatusCode int
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s [%s]: %s", e.Service, e.Category, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates an upstream error. Timeout, Outage, RateLimited and CircuitOpen
// are retryable; the rest are not.
func New(category Category, service, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Service:    service,
		Message:    message,
		Underlying: underlying,
		Retryable: category == Timeout ||
			category == Outage ||
			category == RateLimited ||
			category == CircuitOpen,
	}
}

// FromStatus classifies a non-2xx HTTP status.
func FromStatus(service string, status int, message string) *Error {
	var category Category
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = Authentication
	case status == http.StatusNotFound:
		category = NotFound
	case status == http.StatusTooManyRequests:
		category = RateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		category = Timeout
	case status >= 500:
		category = Outage
	default:
		category = Rejected
	}
	e := New(category, service, message, nil)
	e.StatusCode = status
	return e
}

// FromTransport classifies an error returned by an HTTP client Do call.
func FromTransport(ctx context.Context, service string, err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return New(Timeout, service, "request timeout", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return New(Timeout, service, "request timeout", err)
	case errors.Is(err, context.Canceled):
		return New(Internal, service, "request canceled", err)
	default:
		return New(Outage, service, "request failed", err)
	}
}

// CategoryOf extracts the category from err, defaulting to Internal.
func CategoryOf(err error) Category {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return Internal
}

// IsRetryable reports whether err is a retryable upstream error.
func IsRetryable(err error) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Retryable
	}
	return false
}

// AsDomain wraps err in a domain error with code, keeping the upstream error
// in the chain. The message is generic so upstream bodies never reach callers.
func AsDomain(err error, code dErrors.Code, message string) error {
	if err == nil {
		return nil
	}
	if CategoryOf(err) == Timeout {
		message += " (timeout)"
	}
	return &dErrors.Error{Code: code, Message: message, Err: err}
}
