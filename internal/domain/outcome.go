package domain

import (
	"errors"
	"fmt"
)

// Errors returned by service adapters for caller precondition violations.
// Transport and validation outcomes are never returned as errors.
var (
	// ErrMissingCredentials is returned by login when username or password is empty.
	ErrMissingCredentials = errors.New("domain: username and password are required")
	// ErrNoSession is returned by operations that need an authenticated session.
	ErrNoSession = errors.New("domain: no active session")
)

// FailureKind classifies why an operation did not succeed.
type FailureKind string

// Failure kinds.
const (
	FailureNone                FailureKind = ""
	FailureTransport           FailureKind = "transport"
	FailureValidation          FailureKind = "validation"
	FailureInvalidQuantity     FailureKind = "invalid_quantity"
	FailureNegativeQuantity    FailureKind = "negative_quantity"
	FailureNonPositiveDecrease FailureKind = "non_positive_decrease"
	FailureNotFound            FailureKind = "not_found"
)

// Outcome is embedded in every canonical result.
type Outcome struct {
	Success bool
	Message string
	Failure FailureKind
}

// Succeeded returns a successful outcome.
func Succeeded() Outcome {
	return Outcome{Success: true}
}

// TransportFailed returns an outcome for a response that could not be evaluated.
func TransportFailed(format string, args ...any) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...), Failure: FailureTransport}
}

// Rejected returns an outcome for a backend-reported business rejection.
func Rejected(kind FailureKind, message string) Outcome {
	if kind == FailureNone {
		kind = FailureValidation
	}
	return Outcome{Message: message, Failure: kind}
}

// NotFound returns the canonical "<Entity> not found" outcome.
func NotFound(entity string) Outcome {
	return Outcome{Message: entity + " not found", Failure: FailureNotFound}
}

// IsTransportFailure reports whether the response could not be evaluated.
func (o Outcome) IsTransportFailure() bool {
	return o.Failure == FailureTransport
}

// Result exposes the outcome of any canonical result record.
func (o Outcome) Result() Outcome {
	return o
}

// Outcomer is implemented by every result record through the embedded Outcome.
type Outcomer interface {
	Result() Outcome
}
