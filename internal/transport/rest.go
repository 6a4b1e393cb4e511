package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// RESTRequest is one resource request.
type RESTRequest struct {
	// Name identifies the catalog route for observers.
	Name        string
	Method      string
	Path        string
	Body        any
	QueryParams map[string]string
}

// RESTClient executes resource requests.
type RESTClient interface {
	Do(ctx context.Context, req RESTRequest, headers map[string]string) (*Response, error)
}

// REST issues method+path requests relative to a base URL.
type REST struct {
	cfg  Config
	http *resty.Client
}

// NewREST creates a REST client rooted at cfg.BaseURL.
func NewREST(cfg Config) (*REST, error) {
	c, err := newResty(cfg)
	if err != nil {
		return nil, err
	}
	c.SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/"))
	return &REST{cfg: cfg, http: c}, nil
}

// Do sends the request. A non-nil error means no response was received.
func (r *REST) Do(ctx context.Context, req RESTRequest, headers map[string]string) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	rr := r.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParams(req.QueryParams)
	if req.Body != nil {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(method, path)
	if err != nil {
		observe(r.cfg, Exchange{Protocol: ProtocolREST, Operation: req.Name, Err: err})
		return nil, fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}

	out := buildResponse(resp)
	observe(r.cfg, Exchange{Protocol: ProtocolREST, Operation: req.Name, Status: out.Status, Duration: out.Duration})
	return out, nil
}
