package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/shopcheck/internal/catalog"
	"github.com/example/shopcheck/internal/envelope"
	"github.com/example/shopcheck/internal/session"
	"github.com/example/shopcheck/internal/transport"
)

type gqlCaller struct {
	client transport.GraphQLClient
	cat    *catalog.Catalog
	sess   *session.Context
}

func (g gqlCaller) call(ctx context.Context, op string, vars map[string]any) (envelope.Envelope, *transport.Response, error) {
	q, err := g.cat.Query(op)
	if err != nil {
		return envelope.Envelope{}, nil, fmt.Errorf("%w: %v", envelope.ErrTransport, err)
	}
	resp, err := g.client.Execute(ctx, transport.GraphQLRequest{
		OperationName: q.OperationName(),
		Query:         q.Document,
		Variables:     vars,
	}, g.sess.Headers())
	env, err := envelope.FromGraphQL(resp, err, q.Field)
	return env, resp, err
}

type restCaller struct {
	client transport.RESTClient
	cat    *catalog.Catalog
	sess   *session.Context
}

type restCall struct {
	params map[string]string
	body   any
	query  map[string]string
}

func (r restCaller) call(ctx context.Context, op string, c restCall) (envelope.Envelope, *transport.Response, error) {
	route, err := r.cat.Route(op)
	if err != nil {
		return envelope.Envelope{}, nil, fmt.Errorf("%w: %v", envelope.ErrTransport, err)
	}
	path, err := route.Expand(c.params)
	if errors.Is(err, catalog.ErrMissingParameter) {
		return missingKey(op), nil, nil
	}
	if err != nil {
		return envelope.Envelope{}, nil, fmt.Errorf("%w: %v", envelope.ErrTransport, err)
	}
	resp, err := r.client.Do(ctx, transport.RESTRequest{
		Name:        op,
		Method:      route.Method,
		Path:        path,
		Body:        c.body,
		QueryParams: c.query,
	}, r.sess.Headers())
	env, err := envelope.FromREST(resp, err)
	return env, resp, err
}

// keyEntities names what an operation looks up by its path key.
var keyEntities = map[string]string{
	"cart":     "Cart item",
	"category": "Category",
	"product":  "Product",
	"wallet":   "Wallet",
}

// missingKey answers a lookup whose path key is empty the way the backend
// answers an unknown key, since no resource can live at an empty segment.
func missingKey(op string) envelope.Envelope {
	prefix, _, _ := strings.Cut(op, ".")
	entity, ok := keyEntities[prefix]
	if !ok {
		entity = "Resource"
	}
	return envelope.Envelope{Status: http.StatusNotFound, Message: entity + " not found"}
}
