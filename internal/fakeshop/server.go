// Package fakeshop is an in-memory shop backend speaking both the GraphQL and
// the REST dialect, used to exercise the adapters and workflows in tests.
//
// Routes and GraphQL operation names are derived from the operation catalog,
// so the fake answers exactly what the adapters send.
package fakeshop

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/shopcheck/internal/catalog"
	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/session"
)

// GraphQLPath is where the GraphQL endpoint is mounted.
const GraphQLPath = "/graphql"

// Options configures a Server.
type Options struct {
	// CookieName carries the session token. Defaults to session.DefaultCookieName.
	CookieName string
	Catalog    *catalog.Catalog
	Logger     *zap.Logger
}

// Server is the fake backend.
type Server struct {
	store      *store
	cat        *catalog.Catalog
	cookieName string
	log        *zap.Logger
	engine     *gin.Engine
	// operation name declared in a GraphQL document -> catalog entry
	byOperationName map[string]string

	mu     sync.Mutex
	faults map[string]int
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// New builds a seeded server.
func New(opts Options) (*Server, error) {
	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cookie := opts.CookieName
	if cookie == "" {
		cookie = session.DefaultCookieName
	}

	s := &Server{
		store:           newStore(),
		cat:             cat,
		cookieName:      cookie,
		log:             log,
		byOperationName: make(map[string]string),
		faults:          make(map[string]int),
	}
	s.store.seed()

	for name, q := range cat.GraphQL {
		if _, ok := operations[name]; !ok {
			return nil, fmt.Errorf("fakeshop: no handler for %s", name)
		}
		s.byOperationName[q.OperationName()] = name
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.POST(GraphQLPath, s.handleGraphQL)

	names := make([]string, 0, len(cat.REST))
	for name := range cat.REST {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		op, ok := operations[name]
		if !ok {
			return nil, fmt.Errorf("fakeshop: no handler for %s", name)
		}
		route := cat.REST[name]
		engine.Handle(route.Method, placeholder.ReplaceAllString(route.Path, ":$1"), s.handleREST(name, op))
	}
	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler serving both protocols.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Fail makes the named catalog operation answer with status and an HTML body
// until Restore is called.
func (s *Server) Fail(operation string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[operation] = status
}

// Restore undoes Fail.
func (s *Server) Restore(operation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, operation)
}

// Product returns the current state of a seeded product.
func (s *Server) Product(slug string) (domain.Product, bool) {
	p, err := s.store.product(func(p *domain.Product) bool { return p.Slug == slug })
	if err != nil {
		return domain.Product{}, false
	}
	return *p, true
}

// SetStock overrides a product's stock.
func (s *Server) SetStock(slug string, qty int64) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	for _, p := range s.store.products {
		if p.Slug == slug {
			p.StockQty = qty
		}
	}
}

// OrderCount returns how many orders username has placed.
func (s *Server) OrderCount(username string) int {
	return len(s.store.ordersOf(username))
}

func (s *Server) faulted(c *gin.Context, operation string) bool {
	s.mu.Lock()
	status, ok := s.faults[operation]
	s.mu.Unlock()
	if !ok {
		return false
	}
	c.Data(status, "text/html; charset=utf-8", []byte("<html><body>upstream unavailable</body></html>"))
	return true
}

// invoke authenticates the caller and runs the operation.
func (s *Server) invoke(c *gin.Context, op operation, req *request) (any, error) {
	req.gin = c
	req.srv = s
	req.token, _ = c.Cookie(s.cookieName)
	if req.token != "" {
		req.acc = s.store.accountFor(req.token)
	}
	if op.auth && req.acc == nil {
		return nil, unauthorized("Authentication required")
	}
	return op.run(req)
}

func (s *Server) handleREST(name string, op operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.faulted(c, name) {
			return
		}

		args := make(map[string]any)
		for k, vs := range c.Request.URL.Query() {
			if len(vs) > 0 {
				args[k] = vs[0]
			}
		}
		body, err := decodeBody(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body", "data": nil})
			return
		}
		maps.Copy(args, body)
		for _, p := range c.Params {
			args[p.Key] = p.Value
		}

		data, err := s.invoke(c, op, &request{args: args, enc: encoder{}})
		if err != nil {
			status, msg := errorStatus(err)
			c.JSON(status, gin.H{"success": false, "message": msg, "data": nil})
			return
		}
		status := http.StatusOK
		if op.created {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"success": true, "message": op.message, "data": data})
	}
}

type graphQLBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

func (s *Server) handleGraphQL(c *gin.Context) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	var body graphQLBody
	if err := dec.Decode(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"message": "Invalid GraphQL request"}}})
		return
	}
	name, ok := s.byOperationName[body.OperationName]
	if !ok {
		c.JSON(http.StatusOK, gin.H{"data": nil, "errors": []gin.H{{"message": "Unknown operation " + body.OperationName}}})
		return
	}
	if s.faulted(c, name) {
		return
	}

	args := make(map[string]any)
	for k, v := range body.Variables {
		if input, ok := v.(map[string]any); ok && k == "input" {
			maps.Copy(args, input)
			continue
		}
		args[k] = v
	}

	op := operations[name]
	field := s.cat.GraphQL[name].Field
	data, err := s.invoke(c, op, &request{args: args, enc: encoder{graphql: true}})

	var apiErr *apiError
	isAPI := errors.As(err, &apiErr)
	switch {
	case err == nil && op.wrapped:
		payload := gin.H{"success": true, "message": op.message}
		if op.key != "" {
			payload[op.key] = data
		} else if m, ok := data.(map[string]any); ok {
			maps.Copy(payload, m)
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{field: payload}})
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"data": gin.H{field: data}})
	case isAPI && op.wrapped && apiErr.status != http.StatusUnauthorized:
		payload := gin.H{"success": false, "message": apiErr.message}
		if op.key != "" {
			payload[op.key] = nil
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{field: payload}})
	case isAPI && apiErr.status == http.StatusNotFound:
		c.JSON(http.StatusOK, gin.H{"data": gin.H{field: nil}})
	default:
		_, msg := errorStatus(err)
		c.JSON(http.StatusOK, gin.H{"data": gin.H{field: nil}, "errors": []gin.H{{"message": msg}}})
	}
}

func decodeBody(r io.Reader) (map[string]any, error) {
	if r == nil {
		return nil, nil
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return body, nil
}

func errorStatus(err error) (int, string) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status, apiErr.message
	}
	return http.StatusInternalServerError, "Internal server error"
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("fakeshop request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
