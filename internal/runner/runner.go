// Package runner drives many concurrent actors through the configured
// workflows and folds their checks into one summary.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/example/shopcheck/internal/catalog"
	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/config"
	"github.com/example/shopcheck/internal/generator"
	"github.com/example/shopcheck/internal/logger"
	"github.com/example/shopcheck/internal/metrics"
	"github.com/example/shopcheck/internal/service"
	"github.com/example/shopcheck/internal/session"
	"github.com/example/shopcheck/internal/transport"
	"github.com/example/shopcheck/internal/workflow"
)

// Options configures a Runner. Only Config is required.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Exporter
	Catalog  *catalog.Catalog
	Registry *workflow.Registry
}

// Runner executes actors and iterations.
type Runner struct {
	cfg       *config.Config
	log       *zap.Logger
	metrics   *metrics.Exporter
	catalog   *catalog.Catalog
	clients   service.Clients
	defs      []workflow.Definition
	selector  *workflow.Selector
	actors    *generator.ActorGenerator
	fixtures  workflow.Fixtures
	locks     *workflow.ProductLocks
	protocol  transport.Protocol
	spawnRate rate.Limit
}

// SetupFailure is an iteration cut short by a *workflow.SetupError.
type SetupFailure struct {
	Actor     int
	Iteration string
	Username  string
	Err       error
}

// Summary is the outcome of a whole run.
type Summary struct {
	Report        *check.Report
	Iterations    int
	Workflows     int
	SetupFailures []SetupFailure
	Duration      time.Duration
}

// Failed reports whether any check failed or any iteration aborted.
func (s *Summary) Failed() bool {
	return !s.Report.AllPassed || len(s.SetupFailures) > 0
}

// ExitCode returns check.ExitCodeFailure when the run failed.
func (s *Summary) ExitCode() int {
	if s.Failed() {
		return check.ExitCodeFailure
	}
	return check.ExitCodeSuccess
}

// String renders the one-line result.
func (s *Summary) String() string {
	return fmt.Sprintf("%d iterations, %d workflows, %d setup failures in %s. %s",
		s.Iterations, s.Workflows, len(s.SetupFailures), s.Duration.Round(time.Millisecond), s.Report.Summary())
}

// New validates the configuration and builds the transport clients.
func New(opts Options) (*Runner, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = workflow.NewRegistry()
	}
	defs, err := reg.Resolve(cfg.Run.Workflows)
	if err != nil {
		return nil, err
	}

	actors, err := generator.New(generator.Config{
		Prefix:         cfg.Actor.Prefix,
		PasswordLength: cfg.Actor.PasswordLength,
		Seed:           cfg.Actor.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("creating actor generator: %w", err)
	}

	r := &Runner{
		cfg:      cfg,
		log:      log,
		metrics:  opts.Metrics,
		catalog:  opts.Catalog,
		defs:     defs,
		selector: workflow.NewSelector(defs),
		actors:   actors,
		fixtures: fixturesFrom(cfg.Fixtures),
		locks:    workflow.NewProductLocks(),
		protocol: transport.Protocol(cfg.Target.Protocol),
	}
	r.spawnRate = rate.Inf
	if cfg.Run.SpawnRate > 0 {
		r.spawnRate = rate.Limit(cfg.Run.SpawnRate)
	}

	if r.clients, err = r.newClients(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) newClients() (service.Clients, error) {
	base := transport.Config{
		Timeout:       r.cfg.Target.Timeout,
		TLSSkipVerify: r.cfg.Target.TLSSkipVerify,
	}
	if r.metrics != nil {
		base.Observe = r.metrics.ObserveExchange
	}

	var clients service.Clients
	switch r.protocol {
	case transport.ProtocolGraphQL:
		c := base
		c.BaseURL = r.cfg.Target.GraphQLURL
		gql, err := transport.NewGraphQL(c)
		if err != nil {
			return clients, fmt.Errorf("creating GraphQL client: %w", err)
		}
		clients.GraphQL = gql
	case transport.ProtocolREST:
		c := base
		c.BaseURL = r.cfg.Target.RESTURL
		rest, err := transport.NewREST(c)
		if err != nil {
			return clients, fmt.Errorf("creating REST client: %w", err)
		}
		clients.REST = rest
	}
	return clients, nil
}

func fixturesFrom(f config.FixturesConfig) workflow.Fixtures {
	fx := workflow.Fixtures{
		ProductSlug:    f.ProductSlug,
		Currency:       f.Currency,
		InitialBalance: f.InitialBalance,
		OrderQty:       f.OrderQty,
		SearchQuery:    f.SearchQuery,
		ZeroCurrency:   f.ZeroCurrency,
	}
	copy(fx.WalletCurrencies[:], f.WalletCurrencies)
	return fx
}

// Run starts Actors actors, at most Concurrency at a time and SpawnRate per
// second, and waits for all of them. It returns an error only when ctx ends
// before every actor has been started.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	col := &collector{}

	limiter := rate.NewLimiter(r.spawnRate, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Run.Concurrency)

	r.log.Info("run started",
		zap.String("protocol", string(r.protocol)),
		zap.Int("actors", r.cfg.Run.Actors),
		zap.Int("iterations", r.cfg.Run.Iterations),
		zap.String("mode", r.cfg.Run.Mode),
	)

	var spawnErr error
	for i := 0; i < r.cfg.Run.Actors; i++ {
		if err := limiter.Wait(gctx); err != nil {
			spawnErr = fmt.Errorf("spawning actor %d: %w", i, err)
			break
		}
		actor := i
		g.Go(func() error {
			r.runActor(gctx, actor, col)
			return nil
		})
	}
	_ = g.Wait()

	summary := col.summary(time.Since(start))
	r.log.Info("run finished",
		zap.Int("checks", summary.Report.TotalCount),
		zap.Int("failed", summary.Report.FailedCount),
		zap.Int("setupFailures", len(summary.SetupFailures)),
		zap.Duration("duration", summary.Duration),
	)
	return summary, spawnErr
}

func (r *Runner) runActor(ctx context.Context, actor int, col *collector) {
	log := r.log.With(zap.Int("actor", actor))
	for i := 0; i < r.cfg.Run.Iterations; i++ {
		if ctx.Err() != nil {
			return
		}
		r.runIteration(ctx, actor, log, col)
	}
}

// runIteration signs up a fresh actor, runs the workflows with a fresh
// recorder and logs out.
func (r *Runner) runIteration(ctx context.Context, actorIdx int, base *zap.Logger, col *collector) {
	iterationID := uuid.NewString()
	ctx, log := logger.WithIteration(ctx, base, iterationID)

	actor := r.actors.Next()
	log = log.With(zap.String("username", actor.Username))
	sess := session.New(actor, r.cfg.Target.CookieName, nil)
	suite, err := service.NewSuite(r.protocol, r.clients, r.catalog, sess)
	if err != nil {
		col.fail(SetupFailure{Actor: actorIdx, Iteration: iterationID, Username: actor.Username, Err: err})
		return
	}

	rec := check.NewRecorder(iterationID)
	hooks := workflow.Hooks{}
	if r.metrics != nil {
		rec.OnResult(r.metrics.ObserveCheck)
		hooks.OnWorkflowComplete = r.metrics.ObserveWorkflow
	}
	orch := workflow.New(suite, sess, rec, workflow.Options{Fixtures: r.fixtures, Hooks: hooks, Logger: log, Locks: r.locks})

	defer func() {
		orch.Logout(context.WithoutCancel(ctx))
		col.add(rec.Report())
	}()

	if err := orch.Authenticate(ctx); err != nil {
		log.Warn("authentication failed", zap.Error(err))
		col.fail(SetupFailure{Actor: actorIdx, Iteration: iterationID, Username: actor.Username, Err: err})
		return
	}

	for _, def := range r.pick() {
		res := orch.Run(ctx, def)
		col.workflow()
		if res.Err != nil {
			if !errors.Is(res.Err, workflow.ErrSetup) {
				log.Error("workflow failed", zap.String("workflow", def.Name), zap.Error(res.Err))
			}
			col.fail(SetupFailure{Actor: actorIdx, Iteration: iterationID, Username: actor.Username, Err: res.Err})
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// pick returns the workflows for one iteration.
func (r *Runner) pick() []workflow.Definition {
	if r.cfg.Run.Mode != config.ModeWeighted {
		return r.defs
	}
	def, ok := r.selector.Select()
	if !ok {
		return nil
	}
	return []workflow.Definition{def}
}

// collector gathers per-iteration results from all actors.
type collector struct {
	mu         sync.Mutex
	reports    []*check.Report
	failures   []SetupFailure
	iterations int
	workflows  int
}

func (c *collector) add(rep *check.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, rep)
	c.iterations++
}

func (c *collector) fail(f SetupFailure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, f)
}

func (c *collector) workflow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.workflows++
}

func (c *collector) summary(d time.Duration) *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Summary{
		Report:        check.Merge(c.reports...),
		Iterations:    c.iterations,
		Workflows:     c.workflows,
		SetupFailures: append([]SetupFailure(nil), c.failures...),
		Duration:      d,
	}
}
