package workflow

import (
	"context"
	"fmt"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/domain"
)

// RunCartPositive exercises every cart mutation on the fixture product and
// checks the resulting quantities.
func (o *Orchestrator) RunCartPositive(ctx context.Context) error {
	if err := o.Authenticate(ctx); err != nil {
		return err
	}
	product, err := o.fetchProduct(ctx)
	if err != nil {
		return err
	}
	pid := product.ID
	cart := o.suite.Cart

	clr := step(o, "cart.clear", func() domain.DeleteResult { return cart.Clear(ctx) })
	if !o.succeeded("clear cart", clr.Outcome) {
		return nil
	}

	add := step(o, "cart.add", func() domain.CartItemResult { return cart.AddItem(ctx, pid, 2) })
	if !o.succeeded("add item", add.Outcome) {
		return nil
	}
	o.rec.Check(check.Equal("added quantity", int64(2), qtyOf(add.Item)))

	first := step(o, "cart.get", func() domain.CartResult { return cart.GetCart(ctx) })
	if o.succeeded("get cart after add", first.Outcome) {
		item, _ := first.Cart.Item(pid)
		o.rec.Check(
			check.Equal("cart has one line", 1, len(first.Cart.Items)),
			check.Equal("cart line holds the added quantity", int64(2), item.Qty),
		)
	}

	merged := step(o, "cart.add", func() domain.CartItemResult { return cart.AddItem(ctx, pid, 1) })
	if o.succeeded("add same item again", merged.Outcome) {
		o.rec.Check(check.Equal("quantities merge", int64(3), qtyOf(merged.Item)))
	}

	upd := step(o, "cart.update", func() domain.CartItemResult { return cart.UpdateQuantity(ctx, pid, 5) })
	if o.succeeded("update quantity", upd.Outcome) {
		o.rec.Check(check.Equal("updated quantity", int64(5), qtyOf(upd.Item)))
	}

	dec := step(o, "cart.decrease", func() domain.CartItemResult { return cart.DecreaseQuantity(ctx, pid, 2) })
	if o.succeeded("decrease quantity", dec.Outcome) {
		o.rec.Check(check.Equal("decreased quantity", int64(3), qtyOf(dec.Item)))
	}

	got := step(o, "cart.get", func() domain.CartResult { return cart.GetCart(ctx) })
	if o.succeeded("get cart", got.Outcome) {
		item, _ := got.Cart.Item(pid)
		o.rec.Check(check.Equal("cart holds the decreased quantity", int64(3), item.Qty))
	}

	over := step(o, "cart.decrease", func() domain.CartItemResult { return cart.DecreaseQuantity(ctx, pid, 10) })
	if o.succeeded("decrease beyond held quantity", over.Outcome) {
		o.rec.Check(
			check.True("over-decrease never goes negative", over.Item == nil || over.Item.Qty >= 0, fmt.Sprintf("qty %d", qtyOf(over.Item))),
			o.itemAbsent(ctx, "over-decrease removes the item", pid),
		)
	}

	if o.succeeded("re-add item", step(o, "cart.add", func() domain.CartItemResult { return cart.AddItem(ctx, pid, 1) }).Outcome) {
		zero := step(o, "cart.update", func() domain.CartItemResult { return cart.UpdateQuantity(ctx, pid, 0) })
		o.rec.Check(check.Succeeded("update to zero is accepted", zero.Outcome), o.itemAbsent(ctx, "update to zero removes the item", pid))
	}

	if o.succeeded("add item to remove", step(o, "cart.add", func() domain.CartItemResult { return cart.AddItem(ctx, pid, 1) }).Outcome) {
		rm := step(o, "cart.remove", func() domain.DeleteResult { return cart.RemoveItem(ctx, pid) })
		o.rec.Check(check.Succeeded("remove item", rm.Outcome), o.itemAbsent(ctx, "removed item is gone", pid))
	}

	step(o, "cart.add", func() domain.CartItemResult { return cart.AddItem(ctx, pid, 1) })
	final := step(o, "cart.clear", func() domain.DeleteResult { return cart.Clear(ctx) })
	o.rec.Check(check.Succeeded("clear cart", final.Outcome), o.cartEmpty(ctx, "cleared cart is empty"))
	return nil
}

// RunCartNegative sends invalid cart mutations and checks each is rejected
// with the right classification and leaves the cart untouched.
func (o *Orchestrator) RunCartNegative(ctx context.Context) error {
	if err := o.Authenticate(ctx); err != nil {
		return err
	}
	product, err := o.fetchProduct(ctx)
	if err != nil {
		return err
	}
	pid := product.ID
	cart := o.suite.Cart

	step(o, "cart.clear", func() domain.DeleteResult { return cart.Clear(ctx) })

	for _, qty := range []int64{0, -1} {
		res := step(o, "cart.add", func() domain.CartItemResult { return cart.AddItem(ctx, pid, qty) })
		o.rec.Check(check.Failed(fmt.Sprintf("add quantity %d is rejected", qty), res.Outcome, domain.FailureInvalidQuantity))
	}
	o.rec.Check(o.cartEmpty(ctx, "rejected adds leave the cart empty"))

	seed := step(o, "cart.add", func() domain.CartItemResult { return cart.AddItem(ctx, pid, 1) })
	if !seed.Success {
		return setupFailed(o.current, "seed cart item", seed.Outcome)
	}

	neg := step(o, "cart.update", func() domain.CartItemResult { return cart.UpdateQuantity(ctx, pid, -1) })
	o.rec.Check(check.Failed("negative quantity is rejected", neg.Outcome, domain.FailureNegativeQuantity))

	for _, by := range []int64{0, -2} {
		res := step(o, "cart.decrease", func() domain.CartItemResult { return cart.DecreaseQuantity(ctx, pid, by) })
		o.rec.Check(check.Failed(fmt.Sprintf("decrease by %d is rejected", by), res.Outcome, domain.FailureNonPositiveDecrease))
	}

	missing := "missing-" + pid
	rm := step(o, "cart.remove", func() domain.DeleteResult { return cart.RemoveItem(ctx, missing) })
	o.rec.Check(check.Failed("removing an absent item is not found", rm.Outcome, domain.FailureNotFound))

	ghost := step(o, "cart.add", func() domain.CartItemResult { return cart.AddItem(ctx, missing, 1) })
	o.rec.Check(check.Failed("adding an unknown product is rejected", ghost.Outcome, domain.FailureNone))

	got := step(o, "cart.get", func() domain.CartResult { return cart.GetCart(ctx) })
	if o.succeeded("get cart", got.Outcome) {
		item, _ := got.Cart.Item(pid)
		o.rec.Check(
			check.Equal("rejected mutations leave the quantity", int64(1), item.Qty),
			check.Equal("rejected mutations add no lines", 1, len(got.Cart.Items)),
		)
	}

	step(o, "cart.clear", func() domain.DeleteResult { return cart.Clear(ctx) })
	return nil
}

// fetchProduct looks up the fixture product. A miss is a setup failure.
func (o *Orchestrator) fetchProduct(ctx context.Context) (*domain.Product, error) {
	res := step(o, "product.bySlug", func() domain.ProductResult { return o.suite.Product.BySlug(ctx, o.fixtures.ProductSlug) })
	if !res.Success || res.Product == nil {
		return nil, setupFailed(o.current, "fetch product "+o.fixtures.ProductSlug, res.Outcome)
	}
	return res.Product, nil
}

// itemAbsent re-reads the cart and checks productID is not in it.
func (o *Orchestrator) itemAbsent(ctx context.Context, name, productID string) check.Property {
	got := step(o, "cart.get", func() domain.CartResult { return o.suite.Cart.GetCart(ctx) })
	if !got.Success {
		return check.Succeeded(name, got.Outcome)
	}
	item, ok := got.Cart.Item(productID)
	return check.True(name, !ok, fmt.Sprintf("item still present with qty %d", item.Qty))
}

func (o *Orchestrator) cartEmpty(ctx context.Context, name string) check.Property {
	got := step(o, "cart.get", func() domain.CartResult { return o.suite.Cart.GetCart(ctx) })
	if !got.Success {
		return check.Succeeded(name, got.Outcome)
	}
	return check.Equal(name, 0, len(got.Cart.Items))
}

func qtyOf(item *domain.CartItem) int64 {
	if item == nil {
		return 0
	}
	return item.Qty
}
