// Package envelope unwraps the two response envelopes the backend speaks and
// normalizes their field encodings.
//
// GraphQL answers {"data": {"<field>": payload}, "errors": [...]}; mutation
// payloads carry their own success/message. REST answers
// {"success": bool, "message": string, "data": payload}. Both collapse into an
// Envelope whose Data is the payload.
package envelope

import (
	"errors"
	"fmt"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/transport"
)

// Errors returned by the envelope package.
var (
	// ErrTransport is returned when a response cannot be evaluated at all.
	ErrTransport = errors.New("envelope: response cannot be evaluated")
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("envelope: missing field")
	// ErrInvalidValue is returned when a field has an unusable type or value.
	ErrInvalidValue = errors.New("envelope: invalid value")
)

// Envelope is the protocol-neutral view of one response.
type Envelope struct {
	Status  int
	Success bool
	Message string
	Data    any
}

// Object returns Data as a JSON object, or nil.
func (e Envelope) Object() map[string]any {
	m, _ := e.Data.(map[string]any)
	return m
}

// FromGraphQL unwraps the payload stored under data.<field>.
func FromGraphQL(resp *transport.Response, reqErr error, field string) (Envelope, error) {
	if reqErr != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrTransport, reqErr)
	}
	root, err := root(resp)
	if err != nil {
		return Envelope{Status: statusOf(resp)}, err
	}

	env := Envelope{Status: resp.Status, Success: true}
	if msg := firstGraphQLError(root["errors"]); msg != "" {
		env.Success = false
		env.Message = msg
	}

	data, _ := root["data"].(map[string]any)
	if data == nil {
		if env.Success {
			return env, fmt.Errorf("%w: no data in GraphQL response (status %d)", ErrTransport, resp.Status)
		}
		return env, nil
	}
	env.Data = data[field]

	if payload, ok := env.Data.(map[string]any); ok {
		if s, ok := payload["success"].(bool); ok {
			env.Success = env.Success && s
		}
		if m := String(payload, "message"); m != "" && env.Message == "" {
			env.Message = m
		}
	}
	return env, nil
}

// FromREST unwraps a {success, message, data} envelope.
func FromREST(resp *transport.Response, reqErr error) (Envelope, error) {
	if reqErr != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrTransport, reqErr)
	}
	root, err := root(resp)
	if err != nil {
		return Envelope{Status: statusOf(resp)}, err
	}

	env := Envelope{Status: resp.Status, Data: root["data"], Message: errorMessage(root)}
	if s, ok := root["success"].(bool); ok {
		env.Success = s
	} else {
		env.Success = resp.OK()
	}
	if !resp.OK() {
		env.Success = false
	}
	return env, nil
}

// Outcome converts an envelope into a domain outcome. kind classifies a
// rejection; FailureNone means a generic validation failure.
func (e Envelope) Outcome(kind domain.FailureKind) domain.Outcome {
	if e.Success {
		return domain.Outcome{Success: true, Message: e.Message}
	}
	return domain.Rejected(kind, e.Message)
}

// TransportOutcome converts a transport-level error into a domain outcome.
func TransportOutcome(err error) domain.Outcome {
	return domain.TransportFailed("%v", err)
}

func root(resp *transport.Response) (map[string]any, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: no response", ErrTransport)
	}
	if resp.Parsed == nil {
		return nil, fmt.Errorf("%w: status %d, undecodable body %q", ErrTransport, resp.Status, resp.Snippet())
	}
	m, ok := resp.Parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: status %d, body is %T not an object", ErrTransport, resp.Status, resp.Parsed)
	}
	return m, nil
}

func statusOf(resp *transport.Response) int {
	if resp == nil {
		return 0
	}
	return resp.Status
}

func firstGraphQLError(v any) string {
	errs, ok := v.([]any)
	if !ok || len(errs) == 0 {
		return ""
	}
	if m, ok := errs[0].(map[string]any); ok {
		if msg := String(m, "message"); msg != "" {
			return msg
		}
	}
	return "GraphQL error"
}

// errorMessage extracts an error message from common fields.
func errorMessage(m map[string]any) string {
	for _, path := range []string{"message", "error", "msg", "error.message"} {
		v, err := Lookup(m, path)
		if err != nil {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
