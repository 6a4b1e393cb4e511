package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/domain"
)

// OrderState is a state of the order placement flow.
type OrderState string

// Order flow states.
const (
	StateFetchPrerequisites OrderState = "FetchPrerequisites"
	StateAddToCart          OrderState = "AddToCart"
	StateCreateOrder        OrderState = "CreateOrder"
	StateCommitted          OrderState = "Committed"
	StateRejected           OrderState = "Rejected"
)

// OrderPlan parameterizes one pass through the order flow.
type OrderPlan struct {
	ProductSlug string
	Currency    string
	Qty         int64
	// FundWallet creates a wallet for Currency holding InitialBalance when the
	// actor has none. Without it a missing wallet aborts the flow.
	FundWallet bool
	// InitialBalance is the funded wallet's balance. Zero means the fixture
	// balance.
	InitialBalance int64
	// WalletID overrides the paying wallet, e.g. with an id that does not exist.
	WalletID string
	// Expect is StateCommitted or StateRejected.
	Expect OrderState
}

// Snapshot is the state the order flow compares before and after CreateOrder.
type Snapshot struct {
	Stock      int64
	Balance    int64
	OrderCount int
}

type orderRun struct {
	plan    OrderPlan
	state   OrderState
	product *domain.Product
	wallet  *domain.Wallet
	before  Snapshot
	after   Snapshot
	result  domain.OrderResult
}

// transition moves the flow to next, logging the edge.
func (o *Orchestrator) transition(run *orderRun, next OrderState) {
	o.log.Debug("order transition", zap.String("from", string(run.state)), zap.String("to", string(next)))
	run.state = next
}

// RunOrder drives FetchPrerequisites -> AddToCart -> CreateOrder ->
// {Committed | Rejected} and checks the side effects of the terminal state.
// A missing product or wallet, or a failed AddToCart, aborts with a
// *SetupError. The wallet is only created when plan.FundWallet is set.
func (o *Orchestrator) RunOrder(ctx context.Context, plan OrderPlan) error {
	if err := o.Authenticate(ctx); err != nil {
		return err
	}
	plan = o.withDefaults(plan)
	run := &orderRun{plan: plan, state: StateFetchPrerequisites}

	if err := o.fetchPrerequisites(ctx, run); err != nil {
		return err
	}

	o.transition(run, StateAddToCart)
	if err := o.addToCart(ctx, run); err != nil {
		return err
	}

	o.transition(run, StateCreateOrder)
	if err := o.placeOrder(ctx, run); err != nil {
		return err
	}
	if run.result.IsTransportFailure() {
		o.rec.Check(check.Transport("create order", run.result.Outcome))
		step(o, "cart.clear", func() domain.DeleteResult { return o.suite.Cart.Clear(ctx) })
		return nil
	}

	if run.result.Success {
		o.transition(run, StateCommitted)
	} else {
		o.transition(run, StateRejected)
	}
	o.rec.Check(check.Property{Name: "order outcome", Eval: func() check.Outcome {
		if run.state == plan.Expect {
			return check.Outcome{Passed: true, Expected: string(plan.Expect), Actual: string(run.state)}
		}
		out := check.Fail(check.ReasonValidation, string(plan.Expect), string(run.state))
		out.Detail = run.result.Message
		return out
	}})

	switch run.state {
	case StateCommitted:
		o.checkCommitted(ctx, run)
	case StateRejected:
		o.checkRejected(run)
		step(o, "cart.clear", func() domain.DeleteResult { return o.suite.Cart.Clear(ctx) })
	}
	return nil
}

// placeOrder creates the order between the before and after snapshots while
// holding the product's lock. After a transport failure there is no after
// snapshot.
func (o *Orchestrator) placeOrder(ctx context.Context, run *orderRun) error {
	unlock := o.locks.Lock(run.plan.ProductSlug)
	defer unlock()

	var err error
	if run.before, err = o.snapshot(ctx, run); err != nil {
		return err
	}
	walletID := run.plan.WalletID
	if walletID == "" {
		walletID = run.wallet.ID
	}
	run.result = step(o, "order.create", func() domain.OrderResult { return o.suite.Order.CreateFromCart(ctx, walletID) })
	if run.result.IsTransportFailure() {
		return nil
	}
	run.after, err = o.snapshot(ctx, run)
	return err
}

func (o *Orchestrator) withDefaults(plan OrderPlan) OrderPlan {
	if plan.ProductSlug == "" {
		plan.ProductSlug = o.fixtures.ProductSlug
	}
	if plan.Currency == "" {
		plan.Currency = o.fixtures.Currency
	}
	if plan.Qty == 0 {
		plan.Qty = o.fixtures.OrderQty
	}
	if plan.FundWallet && plan.InitialBalance == 0 {
		plan.InitialBalance = o.fixtures.InitialBalance
	}
	if plan.Expect == "" {
		plan.Expect = StateCommitted
	}
	return plan
}

func (o *Orchestrator) fetchPrerequisites(ctx context.Context, run *orderRun) error {
	plan := run.plan
	p := step(o, "product.bySlug", func() domain.ProductResult { return o.suite.Product.BySlug(ctx, plan.ProductSlug) })
	if !p.Success || p.Product == nil {
		return setupFailed(o.current, "fetch product "+plan.ProductSlug, p.Outcome)
	}
	run.product = p.Product

	w := step(o, "wallet.byCurrency", func() domain.WalletResult { return o.suite.Wallet.ByCurrency(ctx, plan.Currency) })
	if !w.Success && w.Failure == domain.FailureNotFound && plan.FundWallet {
		created := step(o, "wallet.create", func() domain.WalletResult {
			return o.suite.Wallet.Create(ctx, plan.Currency, plan.InitialBalance)
		})
		if !created.Success {
			return setupFailed(o.current, "provision "+plan.Currency+" wallet", created.Outcome)
		}
		w = step(o, "wallet.byCurrency", func() domain.WalletResult { return o.suite.Wallet.ByCurrency(ctx, plan.Currency) })
	}
	if !w.Success || w.Wallet == nil {
		return setupFailed(o.current, "fetch "+plan.Currency+" wallet", w.Outcome)
	}
	run.wallet = w.Wallet
	return nil
}

func (o *Orchestrator) addToCart(ctx context.Context, run *orderRun) error {
	if clr := step(o, "cart.clear", func() domain.DeleteResult { return o.suite.Cart.Clear(ctx) }); !clr.Success {
		return setupFailed(o.current, "clear cart", clr.Outcome)
	}
	add := step(o, "cart.add", func() domain.CartItemResult {
		return o.suite.Cart.AddItem(ctx, run.product.ID, run.plan.Qty)
	})
	if !add.Success {
		return setupFailed(o.current, "add to cart", add.Outcome)
	}
	return nil
}

// snapshot reads stock, balance and order count. Any unreadable value aborts
// the flow, since the side effects could not be compared.
func (o *Orchestrator) snapshot(ctx context.Context, run *orderRun) (Snapshot, error) {
	p := step(o, "product.byId", func() domain.ProductResult { return o.suite.Product.ByID(ctx, run.product.ID) })
	if !p.Success || p.Product == nil {
		return Snapshot{}, setupFailed(o.current, "snapshot stock", p.Outcome)
	}
	b := step(o, "wallet.balance", func() domain.BalanceResult { return o.suite.Wallet.Balance(ctx, run.wallet.Currency) })
	if !b.Success {
		return Snapshot{}, setupFailed(o.current, "snapshot balance", b.Outcome)
	}
	orders := step(o, "order.list", func() domain.OrderList { return o.suite.Order.List(ctx) })
	if !orders.Success {
		return Snapshot{}, setupFailed(o.current, "snapshot orders", orders.Outcome)
	}
	return Snapshot{Stock: p.Product.StockQty, Balance: b.BalanceMinor, OrderCount: len(orders.Orders)}, nil
}

func (o *Orchestrator) checkCommitted(ctx context.Context, run *orderRun) {
	order := run.result.Order
	if !o.rec.Check(check.True("committed order is returned", order != nil, "order is nil")) {
		return
	}
	want := run.plan.Qty * run.product.PriceMinor
	o.rec.Check(
		check.Equal("order total", want, order.TotalMinor),
		check.Equal("order total matches items", order.ComputedTotal(), order.TotalMinor),
		check.Equal("order currency", run.product.Currency, order.Currency),
		check.Equal("stock decremented", run.before.Stock-run.plan.Qty, run.after.Stock),
		check.Equal("balance decremented", run.before.Balance-order.TotalMinor, run.after.Balance),
		check.Equal("order count incremented", run.before.OrderCount+1, run.after.OrderCount),
		o.cartEmpty(ctx, "cart emptied by order"),
	)
}

func (o *Orchestrator) checkRejected(run *orderRun) {
	o.rec.Check(
		check.True("rejected order carries no order", run.result.Order == nil, fmt.Sprintf("order %v returned", run.result.Order)),
		check.True("rejection has a message", run.result.Message != "", "empty message"),
		check.Equal("stock unchanged", run.before.Stock, run.after.Stock),
		check.Equal("balance unchanged", run.before.Balance, run.after.Balance),
		check.Equal("order count unchanged", run.before.OrderCount, run.after.OrderCount),
	)
}
