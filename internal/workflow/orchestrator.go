package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/service"
	"github.com/example/shopcheck/internal/session"
)

// Fixtures name the seeded data the workflows rely on.
type Fixtures struct {
	// ProductSlug is a purchasable product.
	ProductSlug string
	// Currency is the product's currency, used for the paying wallet.
	Currency string
	// InitialBalance funds the paying wallet, in minor units.
	InitialBalance int64
	// OrderQty is how many units the positive order buys.
	OrderQty int64
	// SearchQuery is matched against product names and slugs.
	SearchQuery string
	// ZeroCurrency must not have a wallet, for zero-default balance checks.
	ZeroCurrency string
	// WalletCurrencies are created and deleted by the wallet flow. They must
	// differ from Currency.
	WalletCurrencies [2]string
}

// DefaultFixtures returns fixtures matching the reference shop seed.
func DefaultFixtures() Fixtures {
	return Fixtures{
		ProductSlug:      "wireless-headphones",
		Currency:         "USD",
		InitialBalance:   1000000,
		OrderQty:         2,
		SearchQuery:      "cable",
		ZeroCurrency:     "JPY",
		WalletCurrencies: [2]string{"EUR", "GBP"},
	}
}

// Options configures an Orchestrator.
type Options struct {
	Fixtures Fixtures
	Hooks    Hooks
	Logger   *zap.Logger
	// Locks is shared by every orchestrator whose actors order concurrently
	// against the same backend. Nil gives the orchestrator its own set.
	Locks *ProductLocks
}

// Orchestrator runs workflows for one actor against one protocol suite.
type Orchestrator struct {
	suite    *service.Suite
	session  *session.Context
	rec      *check.Recorder
	log      *zap.Logger
	hooks    Hooks
	fixtures Fixtures
	locks    *ProductLocks

	current string
}

// New creates an orchestrator. Zero-value fixtures fall back to DefaultFixtures.
func New(suite *service.Suite, sess *session.Context, rec *check.Recorder, opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fx := opts.Fixtures
	if fx.ProductSlug == "" {
		fx = DefaultFixtures()
	}
	locks := opts.Locks
	if locks == nil {
		locks = NewProductLocks()
	}
	return &Orchestrator{
		suite:    suite,
		session:  sess,
		rec:      rec,
		log:      log,
		hooks:    opts.Hooks,
		fixtures: fx,
		locks:    locks,
	}
}

// Recorder returns the recorder checks are filed in.
func (o *Orchestrator) Recorder() *check.Recorder {
	return o.rec
}

// Run executes a registered workflow by name.
func (o *Orchestrator) Run(ctx context.Context, def Definition) Result {
	o.current = def.Name
	o.rec.Scenario(def.Name)
	if o.hooks.OnWorkflowStart != nil {
		o.hooks.OnWorkflowStart(def.Name)
	}

	start := time.Now()
	err := def.Run(ctx, o)
	res := Result{Workflow: def.Name, Duration: time.Since(start), Err: err}

	if err != nil {
		o.log.Warn("workflow aborted", zap.String("workflow", def.Name), zap.Error(err))
	} else {
		o.log.Debug("workflow completed", zap.String("workflow", def.Name), zap.Duration("duration", res.Duration))
	}
	if o.hooks.OnWorkflowComplete != nil {
		o.hooks.OnWorkflowComplete(res)
	}
	return res
}

// Authenticate registers the session's actor and logs in. An already
// registered actor is not an error; a failed login is.
func (o *Orchestrator) Authenticate(ctx context.Context) error {
	if o.session.Active() {
		return nil
	}
	actor := o.session.Actor()
	step(o, "auth.register", func() domain.RegisterResult {
		return o.suite.Auth.Register(ctx, domain.RegisterInput{Username: actor.Username, Email: actor.Email, Password: actor.Password})
	})

	var loginErr error
	res := step(o, "auth.login", func() domain.LoginResult {
		r, err := o.suite.Auth.Login(ctx, o.session.Credentials())
		loginErr = err
		return r
	})
	if loginErr != nil {
		return &SetupError{Workflow: o.workflowName("session"), Step: "login", Err: loginErr}
	}
	if !res.Success {
		return setupFailed(o.workflowName("session"), "login", res.Outcome)
	}
	return nil
}

// Logout ends the session, ignoring failures.
func (o *Orchestrator) Logout(ctx context.Context) {
	res := step(o, "auth.logout", func() domain.LogoutResult { return o.suite.Auth.Logout(ctx) })
	if !res.Success {
		o.log.Debug("logout failed", zap.String("message", res.Message))
	}
	o.session.Clear()
}

func (o *Orchestrator) workflowName(fallback string) string {
	if o.current != "" {
		return o.current
	}
	return fallback
}

// step runs one service call and reports it to the hooks.
func step[T domain.Outcomer](o *Orchestrator, name string, fn func() T) T {
	start := time.Now()
	res := fn()
	out := res.Result()
	if o.hooks.OnStep != nil {
		o.hooks.OnStep(StepEvent{
			Workflow: o.current,
			Step:     name,
			Protocol: o.suite.Protocol,
			Duration: time.Since(start),
			Outcome:  out,
		})
	}
	if out.IsTransportFailure() {
		o.log.Warn("transport failure", zap.String("workflow", o.current), zap.String("step", name), zap.String("message", out.Message))
	}
	return res
}

// succeeded records that out succeeded and reports whether steps depending
// on it may run.
func (o *Orchestrator) succeeded(name string, out domain.Outcome) bool {
	return o.rec.Check(check.Succeeded(name, out))
}
