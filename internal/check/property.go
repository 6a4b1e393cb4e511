// Package check records pass/fail properties evaluated while workflows run.
package check

import (
	"fmt"

	"github.com/example/shopcheck/internal/domain"
)

// Reason classifies a failed check.
type Reason string

// Failure reasons.
const (
	ReasonTransport  Reason = "transport"
	ReasonValidation Reason = "validation"
	ReasonAssertion  Reason = "assertion"
)

// Outcome is the evaluation of one property.
type Outcome struct {
	Passed bool

	// Reason is empty when the check passed.
	Reason Reason

	Expected string
	Actual   string

	// Detail carries the backend message or other context.
	Detail string
}

// Pass returns a passing outcome.
func Pass() Outcome {
	return Outcome{Passed: true}
}

// Fail returns a failing outcome.
func Fail(reason Reason, expected, actual string) Outcome {
	return Outcome{Reason: reason, Expected: expected, Actual: actual}
}

// Property is a named predicate, evaluated when recorded.
type Property struct {
	Name string
	Eval func() Outcome
}

// Equal passes when actual == expected.
func Equal[T comparable](name string, expected, actual T) Property {
	return Property{Name: name, Eval: func() Outcome {
		if expected == actual {
			return Outcome{Passed: true, Expected: fmt.Sprint(expected), Actual: fmt.Sprint(actual)}
		}
		return Fail(ReasonAssertion, fmt.Sprint(expected), fmt.Sprint(actual))
	}}
}

// True passes when cond holds. detail describes the failure.
func True(name string, cond bool, detail string) Property {
	return Property{Name: name, Eval: func() Outcome {
		if cond {
			return Pass()
		}
		o := Fail(ReasonAssertion, "true", "false")
		o.Detail = detail
		return o
	}}
}

// Succeeded passes when the operation succeeded. A rejection fails with
// ReasonValidation, an unusable response with ReasonTransport.
func Succeeded(name string, o domain.Outcome) Property {
	return Property{Name: name, Eval: func() Outcome {
		switch {
		case o.Success:
			return Outcome{Passed: true, Expected: "success", Actual: "success"}
		case o.IsTransportFailure():
			return Outcome{Reason: ReasonTransport, Expected: "success", Actual: "transport failure", Detail: o.Message}
		default:
			return Outcome{Reason: ReasonValidation, Expected: "success", Actual: describe(o), Detail: o.Message}
		}
	}}
}

// Failed passes when the backend rejected the operation, with kind when it is
// not domain.FailureNone.
func Failed(name string, o domain.Outcome, kind domain.FailureKind) Property {
	expected := "rejection"
	if kind != domain.FailureNone {
		expected = "rejection (" + string(kind) + ")"
	}
	return Property{Name: name, Eval: func() Outcome {
		switch {
		case o.IsTransportFailure():
			return Outcome{Reason: ReasonTransport, Expected: expected, Actual: "transport failure", Detail: o.Message}
		case o.Success:
			return Outcome{Reason: ReasonAssertion, Expected: expected, Actual: "success", Detail: o.Message}
		case kind != domain.FailureNone && o.Failure != kind:
			return Outcome{Reason: ReasonAssertion, Expected: expected, Actual: describe(o), Detail: o.Message}
		default:
			return Outcome{Passed: true, Expected: expected, Actual: describe(o), Detail: o.Message}
		}
	}}
}

// Transport passes unless the response could not be evaluated at all.
func Transport(name string, o domain.Outcome) Property {
	return Property{Name: name, Eval: func() Outcome {
		if o.IsTransportFailure() {
			return Outcome{Reason: ReasonTransport, Expected: "evaluable response", Actual: "transport failure", Detail: o.Message}
		}
		return Pass()
	}}
}

func describe(o domain.Outcome) string {
	if o.Success {
		return "success"
	}
	if o.Failure == domain.FailureNone {
		return "rejection"
	}
	return "rejection (" + string(o.Failure) + ")"
}
