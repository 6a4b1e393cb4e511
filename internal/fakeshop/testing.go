package fakeshop

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// Endpoints are the URLs of a running fake server.
type Endpoints struct {
	BaseURL    string
	GraphQLURL string
}

// Start runs a seeded server on a loopback listener for the life of tb.
func Start(tb testing.TB, opts Options) (*Server, Endpoints) {
	tb.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := New(opts)
	if err != nil {
		tb.Fatalf("fakeshop: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	tb.Cleanup(ts.Close)
	return srv, Endpoints{BaseURL: ts.URL, GraphQLURL: ts.URL + GraphQLPath}
}
