package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/fakeshop"
	"github.com/example/shopcheck/internal/service"
	"github.com/example/shopcheck/internal/session"
	"github.com/example/shopcheck/internal/transport"
	"github.com/example/shopcheck/internal/workflow"
)

var protocols = []transport.Protocol{transport.ProtocolGraphQL, transport.ProtocolREST}

type fixture struct {
	shop  *fakeshop.Server
	orch  *workflow.Orchestrator
	rec   *check.Recorder
	sess  *session.Context
	actor domain.Actor
}

func newFixture(t *testing.T, protocol transport.Protocol, hooks workflow.Hooks) *fixture {
	t.Helper()
	shop, ep := fakeshop.Start(t, fakeshop.Options{})

	gql, err := transport.NewGraphQL(transport.Config{BaseURL: ep.GraphQLURL})
	require.NoError(t, err)
	rest, err := transport.NewREST(transport.Config{BaseURL: ep.BaseURL})
	require.NoError(t, err)

	id := uuid.NewString()[:8]
	actor := domain.Actor{Username: "actor-" + id, Email: "actor-" + id + "@example.com", Password: "secret123"}
	sess := session.New(actor, "", nil)
	suite, err := service.NewSuite(protocol, service.Clients{GraphQL: gql, REST: rest}, nil, sess)
	require.NoError(t, err)

	rec := check.NewRecorder(id)
	orch := workflow.New(suite, sess, rec, workflow.Options{Hooks: hooks})
	return &fixture{shop: shop, orch: orch, rec: rec, sess: sess, actor: actor}
}

// newActor builds an orchestrator for a fresh actor against an existing shop.
func newActor(t *testing.T, protocol transport.Protocol, ep fakeshop.Endpoints, locks *workflow.ProductLocks) (*workflow.Orchestrator, *check.Recorder) {
	t.Helper()
	gql, err := transport.NewGraphQL(transport.Config{BaseURL: ep.GraphQLURL})
	require.NoError(t, err)
	rest, err := transport.NewREST(transport.Config{BaseURL: ep.BaseURL})
	require.NoError(t, err)

	id := uuid.NewString()[:8]
	sess := session.New(domain.Actor{Username: "actor-" + id, Email: "actor-" + id + "@example.com", Password: "secret123"}, "", nil)
	suite, err := service.NewSuite(protocol, service.Clients{GraphQL: gql, REST: rest}, nil, sess)
	require.NoError(t, err)

	rec := check.NewRecorder(id)
	return workflow.New(suite, sess, rec, workflow.Options{Locks: locks}), rec
}

func forEachProtocol(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for _, p := range protocols {
		t.Run(string(p), func(t *testing.T) {
			fn(t, newFixture(t, p, workflow.Hooks{}))
		})
	}
}

func run(t *testing.T, f *fixture, name string) workflow.Result {
	t.Helper()
	def, ok := workflow.NewRegistry().Lookup(name)
	require.True(t, ok, name)
	return f.orch.Run(context.Background(), def)
}

func requireAllPassed(t *testing.T, rec *check.Recorder) {
	t.Helper()
	report := rec.Report()
	for _, r := range report.FailedResults() {
		t.Errorf("%s / %s: expected %s, got %s (%s)", r.Scenario, r.Name, r.Outcome.Expected, r.Outcome.Actual, r.Outcome.Detail)
	}
	require.True(t, report.AllPassed)
	require.Positive(t, report.TotalCount)
}

func TestBuiltinWorkflowsPass(t *testing.T) {
	for _, name := range workflow.NewRegistry().Names() {
		t.Run(name, func(t *testing.T) {
			forEachProtocol(t, func(t *testing.T, f *fixture) {
				res := run(t, f, name)
				require.NoError(t, res.Err)
				assert.Equal(t, name, res.Workflow)
				requireAllPassed(t, f.rec)
				for _, s := range f.rec.Report().Scenarios {
					assert.Equal(t, name, s.Name)
				}
			})
		})
	}
}

func TestOrder_CommittedSideEffects(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		before, ok := f.shop.Product(fakeshop.HeadphonesSlug)
		require.True(t, ok)

		res := run(t, f, "order")
		require.NoError(t, res.Err)
		requireAllPassed(t, f.rec)

		after, _ := f.shop.Product(fakeshop.HeadphonesSlug)
		assert.Equal(t, before.StockQty-2, after.StockQty)
		assert.Equal(t, 1, f.shop.OrderCount(f.actor.Username))
	})
}

func TestOrder_UnknownWalletRejected(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		before, _ := f.shop.Product(fakeshop.HeadphonesSlug)

		res := run(t, f, "order-negative")
		require.NoError(t, res.Err)
		requireAllPassed(t, f.rec)

		after, _ := f.shop.Product(fakeshop.HeadphonesSlug)
		assert.Equal(t, before.StockQty, after.StockQty)
		assert.Zero(t, f.shop.OrderCount(f.actor.Username))
	})
}

func TestOrder_InsufficientBalanceRejected(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		err := f.orch.RunOrder(context.Background(), workflow.OrderPlan{
			FundWallet:     true,
			InitialBalance: fakeshop.HeadphonesPrice,
			Qty:            2,
			Expect:         workflow.StateRejected,
		})
		require.NoError(t, err)
		requireAllPassed(t, f.rec)
	})
}

func TestOrder_UnexpectedRejectionIsRecorded(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		err := f.orch.RunOrder(context.Background(), workflow.OrderPlan{
			FundWallet:     true,
			InitialBalance: 1,
			Qty:            1,
			Expect:         workflow.StateCommitted,
		})
		require.NoError(t, err)

		report := f.rec.Report()
		assert.False(t, report.AllPassed)
		var outcome *check.Result
		for _, r := range report.FailedResults() {
			if r.Name == "order outcome" {
				outcome = &r
			}
		}
		require.NotNil(t, outcome)
		assert.Equal(t, check.ReasonValidation, outcome.Outcome.Reason)
		assert.Equal(t, string(workflow.StateRejected), outcome.Outcome.Actual)
	})
}

func TestOrder_MissingProductIsSetupFailure(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		err := f.orch.RunOrder(context.Background(), workflow.OrderPlan{ProductSlug: "no-such-product"})
		require.Error(t, err)
		assert.ErrorIs(t, err, workflow.ErrSetup)

		var setupErr *workflow.SetupError
		require.True(t, errors.As(err, &setupErr))
		assert.Contains(t, setupErr.Step, "no-such-product")
		assert.Zero(t, f.shop.OrderCount(f.actor.Username))
	})
}

func TestOrder_MissingWalletIsSetupFailure(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		before, _ := f.shop.Product(fakeshop.HeadphonesSlug)

		err := f.orch.RunOrder(context.Background(), workflow.OrderPlan{Expect: workflow.StateCommitted})
		require.Error(t, err)
		assert.ErrorIs(t, err, workflow.ErrSetup)

		var setupErr *workflow.SetupError
		require.True(t, errors.As(err, &setupErr))
		assert.Equal(t, "fetch USD wallet", setupErr.Step)
		assert.Equal(t, "Wallet not found", setupErr.Err.Error())

		after, _ := f.shop.Product(fakeshop.HeadphonesSlug)
		assert.Equal(t, before.StockQty, after.StockQty)
		assert.Zero(t, f.shop.OrderCount(f.actor.Username))
	})
}

func TestOrder_ConcurrentActorsSeeOnlyTheirOwnOrder(t *testing.T) {
	for _, p := range protocols {
		t.Run(string(p), func(t *testing.T) {
			shop, ep := fakeshop.Start(t, fakeshop.Options{})
			before, _ := shop.Product(fakeshop.HeadphonesSlug)
			locks := workflow.NewProductLocks()

			const actors = 8
			recs := make([]*check.Recorder, actors)
			var wg sync.WaitGroup
			for i := range actors {
				orch, rec := newActor(t, p, ep, locks)
				recs[i] = rec
				def, _ := workflow.NewRegistry().Lookup("order")
				wg.Add(1)
				go func() {
					defer wg.Done()
					orch.Run(context.Background(), def)
				}()
			}
			wg.Wait()

			for _, rec := range recs {
				requireAllPassed(t, rec)
			}
			after, _ := shop.Product(fakeshop.HeadphonesSlug)
			assert.Equal(t, before.StockQty-2*actors, after.StockQty)
		})
	}
}

func TestProductLocks(t *testing.T) {
	locks := workflow.NewProductLocks()

	unlock := locks.Lock("a")
	other := locks.Lock("b")
	other()

	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		locks.Lock("a")()
	}()
	select {
	case <-acquired:
		t.Fatal("second holder acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired
}

func TestOrder_TransportFailureSkipsDependentChecks(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		f.shop.Fail("order.create", 502)
		t.Cleanup(func() { f.shop.Restore("order.create") })

		err := f.orch.RunOrder(context.Background(), workflow.OrderPlan{FundWallet: true})
		require.NoError(t, err)

		failed := f.rec.Report().FailedResults()
		require.Len(t, failed, 1)
		assert.Equal(t, check.ReasonTransport, failed[0].Outcome.Reason)
		assert.Zero(t, f.shop.OrderCount(f.actor.Username))
	})
}

func TestAuthenticate_LoginFailureIsSetupFailure(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		f.shop.Fail("auth.login", 503)

		err := f.orch.RunAuth(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, workflow.ErrSetup)
		assert.False(t, f.sess.Active())
	})
}

func TestCatalog_LookupMissesAreNotFound(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		require.NoError(t, run(t, f, "catalog").Err)

		var names []string
		for _, r := range f.rec.Report().PassedResults() {
			names = append(names, r.Name)
		}
		assert.Contains(t, names, "unknown category message")
		assert.Contains(t, names, "unknown product message")
		assert.Contains(t, names, "search is case-insensitive")
	})
}

func TestHooksObserveSteps(t *testing.T) {
	for _, p := range protocols {
		t.Run(string(p), func(t *testing.T) {
			var (
				mu       sync.Mutex
				started  []string
				finished []workflow.Result
				steps    = map[string]int{}
			)
			hooks := workflow.Hooks{
				OnWorkflowStart:    func(name string) { started = append(started, name) },
				OnWorkflowComplete: func(res workflow.Result) { finished = append(finished, res) },
				OnStep: func(ev workflow.StepEvent) {
					mu.Lock()
					defer mu.Unlock()
					assert.Equal(t, p, ev.Protocol)
					assert.Equal(t, "cart", ev.Workflow)
					steps[ev.Step]++
				},
			}
			f := newFixture(t, p, hooks)

			require.NoError(t, run(t, f, "cart").Err)
			assert.Equal(t, []string{"cart"}, started)
			require.Len(t, finished, 1)
			assert.NoError(t, finished[0].Err)
			assert.Equal(t, 1, steps["auth.login"])
			assert.Equal(t, 5, steps["cart.add"])
			assert.Positive(t, steps["cart.get"])
		})
	}
}

func TestHooksObserveWrongPasswordLogin(t *testing.T) {
	for _, p := range protocols {
		t.Run(string(p), func(t *testing.T) {
			var logins []domain.Outcome
			hooks := workflow.Hooks{
				OnStep: func(ev workflow.StepEvent) {
					if ev.Step == "auth.login" {
						logins = append(logins, ev.Outcome)
					}
				},
			}
			f := newFixture(t, p, hooks)

			require.NoError(t, run(t, f, "auth").Err)
			require.Len(t, logins, 3)
			assert.True(t, logins[0].Success)
			assert.False(t, logins[1].Success)
			assert.True(t, logins[2].Success)
		})
	}
}

func TestCart_FirstAddLeavesOneLine(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		require.NoError(t, run(t, f, "cart").Err)

		var names []string
		for _, r := range f.rec.Report().PassedResults() {
			names = append(names, r.Name)
		}
		assert.Contains(t, names, "cart has one line")
		assert.Contains(t, names, "cart line holds the added quantity")
	})
}

func TestLogoutIsBestEffort(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		require.NoError(t, f.orch.Authenticate(ctx))
		require.True(t, f.sess.Active())

		f.shop.Fail("auth.logout", 500)
		f.orch.Logout(ctx)
		assert.False(t, f.sess.Active())
		assert.Zero(t, f.rec.Report().TotalCount)
	})
}

func TestSetupErrorUnwrap(t *testing.T) {
	cause := errors.New("seed missing")
	err := error(&workflow.SetupError{Workflow: "order", Step: "fetch product", Err: cause})

	assert.ErrorIs(t, err, workflow.ErrSetup)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "workflow order: setup step fetch product: seed missing", err.Error())
}

func TestRegistry(t *testing.T) {
	reg := workflow.NewRegistry()
	assert.Equal(t, []string{"auth", "cart", "cart-negative", "catalog", "order", "order-negative", "wallet"}, reg.Names())

	defs, err := reg.Resolve([]string{"order", "auth"})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "order", defs[0].Name)
	assert.Equal(t, "auth", defs[1].Name)

	all, err := reg.Resolve(nil)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	_, err = reg.Resolve([]string{"auth", "checkout"})
	assert.ErrorIs(t, err, workflow.ErrUnknownWorkflow)
	assert.Contains(t, err.Error(), "checkout")

	reg.Register(workflow.Definition{Name: "noop", Run: func(context.Context, *workflow.Orchestrator) error { return nil }})
	_, ok := reg.Lookup("noop")
	assert.True(t, ok)
}
