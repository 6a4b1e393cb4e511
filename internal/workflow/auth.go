package workflow

import (
	"context"
	"errors"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/domain"
)

// RunAuth walks the session lifecycle: profile, duplicate registration, bad
// credentials, logout, idempotent logout and re-login.
func (o *Orchestrator) RunAuth(ctx context.Context) error {
	if err := o.Authenticate(ctx); err != nil {
		return err
	}
	actor := o.session.Actor()
	token := o.session.Token()

	var meErr error
	me := step(o, "auth.me", func() domain.MeResult {
		r, err := o.suite.Auth.Me(ctx)
		meErr = err
		return r
	})
	if meErr != nil {
		return &SetupError{Workflow: o.current, Step: "me", Err: meErr}
	}
	if o.succeeded("me returns the profile", me.Outcome) {
		o.rec.Check(
			check.True("me has a user", me.User != nil, "user is nil"),
			check.Equal("me username", actor.Username, usernameOf(me.User)),
		)
	}

	dup := step(o, "auth.register", func() domain.RegisterResult {
		return o.suite.Auth.Register(ctx, domain.RegisterInput{Username: actor.Username, Email: actor.Email, Password: actor.Password})
	})
	o.rec.Check(check.Failed("duplicate registration is rejected", dup.Outcome, domain.FailureNone))

	var badErr error
	bad := step(o, "auth.login", func() domain.LoginResult {
		r, err := o.suite.Auth.Login(ctx, domain.Credentials{Username: actor.Username, Password: actor.Password + "-wrong"})
		badErr = err
		return r
	})
	if badErr != nil {
		return &SetupError{Workflow: o.current, Step: "login", Err: badErr}
	}
	o.rec.Check(
		check.Failed("wrong password is rejected", bad.Outcome, domain.FailureNone),
		check.Equal("failed login keeps the session", token, o.session.Token()),
	)

	out := step(o, "auth.logout", func() domain.LogoutResult { return o.suite.Auth.Logout(ctx) })
	o.rec.Check(
		check.Succeeded("logout", out.Outcome),
		check.True("logout clears the token", !o.session.Active(), "token still held"),
	)

	_, err := o.suite.Auth.Me(ctx)
	o.rec.Check(check.True("me without a session is refused", errors.Is(err, domain.ErrNoSession), "me did not report a missing session"))

	again := step(o, "auth.logout", func() domain.LogoutResult { return o.suite.Auth.Logout(ctx) })
	o.rec.Check(
		check.Succeeded("second logout", again.Outcome),
		check.True("second logout is a no-op", again.AlreadyLoggedOut, "second logout reached the backend"),
	)

	if err := o.Authenticate(ctx); err != nil {
		return err
	}
	o.rec.Check(check.True("re-login issues a new token", o.session.Token() != "" && o.session.Token() != token, "token was not replaced"))

	var reErr error
	me = step(o, "auth.me", func() domain.MeResult {
		r, err := o.suite.Auth.Me(ctx)
		reErr = err
		return r
	})
	if reErr != nil {
		return &SetupError{Workflow: o.current, Step: "me", Err: reErr}
	}
	o.rec.Check(check.Succeeded("me after re-login", me.Outcome))
	return nil
}

func usernameOf(u *domain.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}
