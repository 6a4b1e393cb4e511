// Package session holds one actor's credentials and the headers attached to
// every request made on its behalf.
package session

import (
	"maps"
	"sync"

	"github.com/example/shopcheck/internal/domain"
)

// DefaultCookieName is the session cookie set by the backend on login.
const DefaultCookieName = "session"

// Context is the SessionContext of one actor. It is safe for concurrent use,
// though an actor's steps run sequentially.
type Context struct {
	mu         sync.RWMutex
	actor      domain.Actor
	cookieName string
	headers    map[string]string
}

// New creates a session for actor. Base headers are sent with every request.
func New(actor domain.Actor, cookieName string, base map[string]string) *Context {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	h := make(map[string]string, len(base)+1)
	maps.Copy(h, base)
	return &Context{actor: actor, cookieName: cookieName, headers: h}
}

// CookieName returns the name of the session cookie.
func (c *Context) CookieName() string {
	return c.cookieName
}

// Actor returns a copy of the actor, including the current token.
func (c *Context) Actor() domain.Actor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actor
}

// Credentials returns the actor's login credentials.
func (c *Context) Credentials() domain.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.Credentials{Username: c.actor.Username, Password: c.actor.Password}
}

// Token returns the session token, or "" when logged out.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.actor.SessionToken
}

// Active reports whether a session token is held.
func (c *Context) Active() bool {
	return c.Token() != ""
}

// SetToken stores the token extracted from the login response.
func (c *Context) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actor.SessionToken = token
}

// Clear drops the session token.
func (c *Context) Clear() {
	c.SetToken("")
}

// Headers returns a fresh copy of the default headers, with the session
// cookie when a token is held.
func (c *Context) Headers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h := make(map[string]string, len(c.headers)+1)
	maps.Copy(h, c.headers)
	if c.actor.SessionToken != "" {
		h["Cookie"] = c.cookieName + "=" + c.actor.SessionToken
	}
	return h
}
