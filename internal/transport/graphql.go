package transport

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// GraphQLRequest is one query or mutation document with its variables.
type GraphQLRequest struct {
	OperationName string
	Query         string
	Variables     map[string]any
}

// GraphQLClient executes GraphQL documents.
type GraphQLClient interface {
	Execute(ctx context.Context, req GraphQLRequest, headers map[string]string) (*Response, error)
}

// GraphQL posts documents to a single endpoint.
type GraphQL struct {
	cfg      Config
	endpoint string
	http     *resty.Client
}

// NewGraphQL creates a GraphQL client for the endpoint in cfg.BaseURL.
func NewGraphQL(cfg Config) (*GraphQL, error) {
	c, err := newResty(cfg)
	if err != nil {
		return nil, err
	}
	return &GraphQL{cfg: cfg, endpoint: cfg.BaseURL, http: c}, nil
}

type graphQLBody struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Execute sends the document. A non-nil error means no response was received.
func (g *GraphQL) Execute(ctx context.Context, req GraphQLRequest, headers map[string]string) (*Response, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("%w: empty GraphQL document", ErrRequestFailed)
	}

	resp, err := g.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(graphQLBody{Query: req.Query, Variables: req.Variables, OperationName: req.OperationName}).
		Post(g.endpoint)
	if err != nil {
		observe(g.cfg, Exchange{Protocol: ProtocolGraphQL, Operation: req.OperationName, Err: err})
		return nil, fmt.Errorf("%w: %s: %v", ErrRequestFailed, req.OperationName, err)
	}

	out := buildResponse(resp)
	observe(g.cfg, Exchange{Protocol: ProtocolGraphQL, Operation: req.OperationName, Status: out.Status, Duration: out.Duration})
	return out, nil
}
