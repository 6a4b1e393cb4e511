package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientsValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid", baseURL: "http://localhost:8080/api", wantErr: false},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "relative", baseURL: "/api", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, gerr := NewGraphQL(Config{BaseURL: tt.baseURL})
			_, rerr := NewREST(Config{BaseURL: tt.baseURL})
			if tt.wantErr {
				assert.ErrorIs(t, gerr, ErrInvalidConfig)
				assert.ErrorIs(t, rerr, ErrInvalidConfig)
				return
			}
			assert.NoError(t, gerr)
			assert.NoError(t, rerr)
		})
	}
}

func TestGraphQLExecute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "GetCart", body["operationName"])
		assert.Contains(t, body["query"], "userCart")
		assert.Equal(t, "p1", body["variables"].(map[string]any)["productId"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"userCart":{"success":true,"total":"12345678901234567"}}}`))
	}))
	defer server.Close()

	var seen []Exchange
	client, err := NewGraphQL(Config{BaseURL: server.URL + "/graphql", Observe: func(ex Exchange) { seen = append(seen, ex) }})
	require.NoError(t, err)

	resp, err := client.Execute(context.Background(), GraphQLRequest{
		OperationName: "GetCart",
		Query:         "query GetCart($productId: ID) { userCart { success } }",
		Variables:     map[string]any{"productId": "p1"},
	}, map[string]string{"Cookie": "session=abc"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, resp.OK())
	data := resp.Parsed.(map[string]any)["data"].(map[string]any)["userCart"].(map[string]any)
	assert.Equal(t, "12345678901234567", data["total"])

	require.Len(t, seen, 1)
	assert.Equal(t, ProtocolGraphQL, seen[0].Protocol)
	assert.Equal(t, "GetCart", seen[0].Operation)
}

func TestGraphQLRejectsEmptyDocument(t *testing.T) {
	client, err := NewGraphQL(Config{BaseURL: "http://localhost:1/graphql"})
	require.NoError(t, err)

	_, err = client.Execute(context.Background(), GraphQLRequest{}, nil)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestRESTDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cart/items", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(2), body["quantity"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"price":24999}}`))
	}))
	defer server.Close()

	client, err := NewREST(Config{BaseURL: server.URL + "/", Timeout: 5 * time.Second})
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), RESTRequest{
		Name:        "cart.add",
		Method:      "post",
		Path:        "api/cart/items",
		Body:        map[string]any{"productId": "p1", "quantity": 2},
		QueryParams: map[string]string{"page": "2"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Status)
	data := resp.Parsed.(map[string]any)["data"].(map[string]any)
	assert.Equal(t, json.Number("24999"), data["price"])
}

func TestParsedIsNilOnUndecodableOrServerError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "html body", status: http.StatusOK, body: "<html>oops</html>"},
		{name: "empty body", status: http.StatusOK, body: ""},
		{name: "server error with json", status: http.StatusBadGateway, body: `{"success":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewREST(Config{BaseURL: server.URL})
			require.NoError(t, err)

			resp, err := client.Do(context.Background(), RESTRequest{Path: "/x"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Nil(t, resp.Parsed)
		})
	}
}

func TestClientErrorBodyStillParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Quantity must be positive"}`))
	}))
	defer server.Close()

	client, err := NewREST(Config{BaseURL: server.URL})
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), RESTRequest{Method: "POST", Path: "/api/cart/items"}, nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	require.NotNil(t, resp.Parsed)
	assert.Equal(t, "Quantity must be positive", resp.Parsed.(map[string]any)["message"])
}

func TestCookiesAreNotSharedBetweenRequests(t *testing.T) {
	var mu sync.Mutex
	var cookies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		cookies = append(cookies, r.Header.Get("Cookie"))
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok-1", Path: "/"})
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client, err := NewREST(Config{BaseURL: server.URL})
	require.NoError(t, err)

	first, err := client.Do(context.Background(), RESTRequest{Method: "POST", Path: "/api/auth/login"}, nil)
	require.NoError(t, err)
	token, ok := first.Cookie("session")
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	_, err = client.Do(context.Background(), RESTRequest{Path: "/api/auth/me"}, nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", ""}, cookies)
}

func TestRequestFailedWhenServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	var seen Exchange
	client, err := NewREST(Config{BaseURL: url, Timeout: time.Second, Observe: func(ex Exchange) { seen = ex }})
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), RESTRequest{Name: "auth.me", Path: "/api/auth/me"}, nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Error(t, seen.Err)
	assert.Equal(t, "auth.me", seen.Operation)
}

func TestResponseHelpers(t *testing.T) {
	var nilResp *Response
	assert.False(t, nilResp.OK())
	assert.Empty(t, nilResp.Snippet())
	_, ok := nilResp.Cookie("session")
	assert.False(t, ok)

	long := &Response{Raw: make([]byte, 300)}
	assert.Len(t, long.Snippet(), 203)
}
