package workflow

import (
	"context"
	"fmt"
	"slices"
)

// Definition is a named, runnable workflow.
type Definition struct {
	Name        string
	Description string
	// Weight is the relative frequency under weighted selection. Zero means 1.
	Weight int
	Run    func(ctx context.Context, o *Orchestrator) error
}

// Registry holds the built-in workflows keyed by name.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns a registry populated with the built-in workflows.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range builtins() {
		r.Register(def)
	}
	return r
}

// Register adds or replaces a workflow.
func (r *Registry) Register(def Definition) {
	r.defs[def.Name] = def
}

// Lookup returns the workflow registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve maps names to definitions, keeping their order. An empty list
// resolves to every registered workflow.
func (r *Registry) Resolve(names []string) ([]Definition, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		def, ok := r.defs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func builtins() []Definition {
	return []Definition{
		{
			Name:        "auth",
			Description: "session lifecycle: me, duplicate register, wrong password, logout, re-login",
			Weight:      2,
			Run:         func(ctx context.Context, o *Orchestrator) error { return o.RunAuth(ctx) },
		},
		{
			Name:        "cart",
			Description: "add, merge, update, decrease, remove and clear cart lines",
			Weight:      4,
			Run:         func(ctx context.Context, o *Orchestrator) error { return o.RunCartPositive(ctx) },
		},
		{
			Name:        "cart-negative",
			Description: "invalid quantities and unknown items are rejected with their kind",
			Weight:      2,
			Run:         func(ctx context.Context, o *Orchestrator) error { return o.RunCartNegative(ctx) },
		},
		{
			Name:        "order",
			Description: "order placement commits and moves stock, balance and order count",
			Weight:      3,
			Run: func(ctx context.Context, o *Orchestrator) error {
				return o.RunOrder(ctx, OrderPlan{FundWallet: true, Expect: StateCommitted})
			},
		},
		{
			Name:        "order-negative",
			Description: "an order paid from an unknown wallet is rejected without side effects",
			Weight:      1,
			Run: func(ctx context.Context, o *Orchestrator) error {
				return o.RunOrder(ctx, OrderPlan{FundWallet: true, WalletID: "invalid-wallet-id", Expect: StateRejected})
			},
		},
		{
			Name:        "wallet",
			Description: "wallet creation, funding, zero-default balance, transfer and deletion",
			Weight:      2,
			Run:         func(ctx context.Context, o *Orchestrator) error { return o.RunWallet(ctx) },
		},
		{
			Name:        "catalog",
			Description: "category and product listing, lookup misses and search",
			Weight:      5,
			Run:         func(ctx context.Context, o *Orchestrator) error { return o.RunCatalog(ctx) },
		},
	}
}
