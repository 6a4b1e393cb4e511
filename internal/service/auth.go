package service

import (
	"context"
	"fmt"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/envelope"
	"github.com/example/shopcheck/internal/transport"
)

type graphQLAuth struct{ gqlCaller }

func (a *graphQLAuth) Register(ctx context.Context, in domain.RegisterInput) domain.RegisterResult {
	env, _, err := a.call(ctx, "auth.register", map[string]any{"input": registerBody(in)})
	if err != nil {
		return domain.RegisterResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.RegisterResult{Outcome: rejection(env, domain.FailureNone)}
	}
	return domain.RegisterResult{Outcome: outcomeOf(env), User: decodeUser(envelope.Object(env.Object(), "user"))}
}

func (a *graphQLAuth) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	if err := checkCredentials(creds); err != nil {
		return domain.LoginResult{}, err
	}
	env, resp, err := a.call(ctx, "auth.login", map[string]any{"input": loginBody(creds)})
	return completeLogin(a.sess.CookieName(), a.sess.SetToken, env, resp, err,
		envelope.Object(env.Object(), "user")), nil
}

func (a *graphQLAuth) Me(ctx context.Context) (domain.MeResult, error) {
	if !a.sess.Active() {
		return domain.MeResult{}, domain.ErrNoSession
	}
	env, _, err := a.call(ctx, "auth.me", nil)
	return meResult(env, err), nil
}

func (a *graphQLAuth) Logout(ctx context.Context) domain.LogoutResult {
	if !a.sess.Active() {
		return alreadyLoggedOut()
	}
	env, _, err := a.call(ctx, "auth.logout", nil)
	a.sess.Clear()
	return logoutResult(env, err)
}

type restAuth struct{ restCaller }

func (a *restAuth) Register(ctx context.Context, in domain.RegisterInput) domain.RegisterResult {
	env, _, err := a.call(ctx, "auth.register", restCall{body: registerBody(in)})
	if err != nil {
		return domain.RegisterResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.RegisterResult{Outcome: rejection(env, domain.FailureNone)}
	}
	return domain.RegisterResult{Outcome: outcomeOf(env), User: decodeUser(env.Object())}
}

func (a *restAuth) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	if err := checkCredentials(creds); err != nil {
		return domain.LoginResult{}, err
	}
	env, resp, err := a.call(ctx, "auth.login", restCall{body: loginBody(creds)})
	return completeLogin(a.sess.CookieName(), a.sess.SetToken, env, resp, err, env.Object()), nil
}

func (a *restAuth) Me(ctx context.Context) (domain.MeResult, error) {
	if !a.sess.Active() {
		return domain.MeResult{}, domain.ErrNoSession
	}
	env, _, err := a.call(ctx, "auth.me", restCall{})
	return meResult(env, err), nil
}

func (a *restAuth) Logout(ctx context.Context) domain.LogoutResult {
	if !a.sess.Active() {
		return alreadyLoggedOut()
	}
	env, _, err := a.call(ctx, "auth.logout", restCall{})
	a.sess.Clear()
	return logoutResult(env, err)
}

func registerBody(in domain.RegisterInput) map[string]any {
	return map[string]any{"username": in.Username, "email": in.Email, "password": in.Password}
}

func loginBody(creds domain.Credentials) map[string]any {
	return map[string]any{"username": creds.Username, "password": creds.Password}
}

func checkCredentials(creds domain.Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return fmt.Errorf("login: %w", domain.ErrMissingCredentials)
	}
	return nil
}

// completeLogin reads the session token from Set-Cookie and stores it.
func completeLogin(cookie string, store func(string), env envelope.Envelope, resp *transport.Response, err error, user map[string]any) domain.LoginResult {
	if err != nil {
		return domain.LoginResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.LoginResult{Outcome: rejection(env, domain.FailureNone)}
	}
	token, ok := resp.Cookie(cookie)
	if !ok || token == "" {
		return domain.LoginResult{Outcome: domain.TransportFailed("login succeeded without a %q cookie", cookie)}
	}
	store(token)
	return domain.LoginResult{Outcome: outcomeOf(env), User: decodeUser(user), SessionToken: token}
}

func meResult(env envelope.Envelope, err error) domain.MeResult {
	if err != nil {
		return domain.MeResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.MeResult{Outcome: rejection(env, domain.FailureNone)}
	}
	user := decodeUser(env.Object())
	if user == nil {
		return domain.MeResult{Outcome: domain.NotFound("User")}
	}
	return domain.MeResult{Outcome: outcomeOf(env), User: user}
}

func logoutResult(env envelope.Envelope, err error) domain.LogoutResult {
	if err != nil {
		return domain.LogoutResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.LogoutResult{Outcome: rejection(env, domain.FailureNone)}
	}
	return domain.LogoutResult{Outcome: outcomeOf(env)}
}

func alreadyLoggedOut() domain.LogoutResult {
	return domain.LogoutResult{
		Outcome:          domain.Outcome{Success: true, Message: "already logged out"},
		AlreadyLoggedOut: true,
	}
}
