// Package catalog holds the static GraphQL documents and REST routes for every
// backend operation. The catalog is embedded YAML and treated as a fixed
// schema descriptor.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Errors returned by the catalog package.
var (
	// ErrUnknownOperation is returned when an operation is not in the catalog.
	ErrUnknownOperation = errors.New("catalog: unknown operation")
	// ErrInvalidCatalog is returned when the catalog document is malformed.
	ErrInvalidCatalog = errors.New("catalog: invalid catalog")
	// ErrMissingParameter is returned when a route placeholder has no value.
	ErrMissingParameter = errors.New("catalog: missing path parameter")
)

//go:embed catalog.yaml
var defaultDocument []byte

// Query is a GraphQL document and the data field its payload lives under.
type Query struct {
	Name     string `yaml:"-"`
	Field    string `yaml:"field"`
	Document string `yaml:"document"`
}

// OperationName returns the name declared by the document ("mutation Login(...)" → "Login").
func (q Query) OperationName() string {
	m := operationPattern.FindStringSubmatch(q.Document)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Route is a REST method and path template.
type Route struct {
	Name   string `yaml:"-"`
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
}

// Catalog indexes queries and routes by operation name (e.g. "cart.add").
type Catalog struct {
	GraphQL map[string]Query `yaml:"graphql"`
	REST    map[string]Route `yaml:"rest"`
}

var (
	placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)
	operationPattern   = regexp.MustCompile(`(?:query|mutation)\s+([A-Za-z_][A-Za-z0-9_]*)`)

	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultDocument)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for package initialization and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	for name, q := range c.GraphQL {
		q.Name = name
		c.GraphQL[name] = q
	}
	for name, r := range c.REST {
		r.Name = name
		r.Method = strings.ToUpper(r.Method)
		c.REST[name] = r
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every entry is usable.
func (c *Catalog) Validate() error {
	for name, q := range c.GraphQL {
		if q.Field == "" || strings.TrimSpace(q.Document) == "" {
			return fmt.Errorf("%w: graphql operation %q needs field and document", ErrInvalidCatalog, name)
		}
		if q.OperationName() == "" {
			return fmt.Errorf("%w: graphql operation %q has an anonymous document", ErrInvalidCatalog, name)
		}
	}
	validMethods := map[string]bool{"GET": true, "POST": true, "PUT": true, "DELETE": true, "PATCH": true}
	for name, r := range c.REST {
		if !validMethods[r.Method] {
			return fmt.Errorf("%w: route %q has invalid method %q", ErrInvalidCatalog, name, r.Method)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("%w: route %q path must start with '/'", ErrInvalidCatalog, name)
		}
	}
	return nil
}

// Query returns the GraphQL entry for an operation.
func (c *Catalog) Query(name string) (Query, error) {
	q, ok := c.GraphQL[name]
	if !ok {
		return Query{}, fmt.Errorf("%w: graphql %q", ErrUnknownOperation, name)
	}
	return q, nil
}

// Route returns the REST entry for an operation.
func (c *Catalog) Route(name string) (Route, error) {
	r, ok := c.REST[name]
	if !ok {
		return Route{}, fmt.Errorf("%w: rest %q", ErrUnknownOperation, name)
	}
	return r, nil
}

// Operations lists operation names present for both protocols, sorted.
func (c *Catalog) Operations() []string {
	var names []string
	for name := range c.GraphQL {
		if _, ok := c.REST[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Placeholders returns the placeholder names in the route path.
func (r Route) Placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(r.Path, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Expand fills the path placeholders with escaped values.
func (r Route) Expand(params map[string]string) (string, error) {
	var missing []string
	path := placeholderPattern.ReplaceAllStringFunc(r.Path, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := params[name]
		if !ok || v == "" {
			missing = append(missing, name)
			return match
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s for %s", ErrMissingParameter, strings.Join(missing, ", "), r.Name)
	}
	return path, nil
}
