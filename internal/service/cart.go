package service

import (
	"context"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/envelope"
)

type graphQLCart struct{ gqlCaller }

func (c *graphQLCart) GetCart(ctx context.Context) domain.CartResult {
	env, _, err := c.call(ctx, "cart.get", nil)
	return cartResult(env, err, env.Object()["items"])
}

func (c *graphQLCart) AddItem(ctx context.Context, productID string, qty int64) domain.CartItemResult {
	env, _, err := c.call(ctx, "cart.add", map[string]any{"productId": productID, "quantity": qty})
	return cartItemResult(env, err, addFailure(qty), envelope.Object(env.Object(), "cartItem"))
}

func (c *graphQLCart) UpdateQuantity(ctx context.Context, productID string, qty int64) domain.CartItemResult {
	env, _, err := c.call(ctx, "cart.update", map[string]any{"productId": productID, "quantity": qty})
	return cartItemResult(env, err, updateFailure(qty), envelope.Object(env.Object(), "cartItem"))
}

func (c *graphQLCart) DecreaseQuantity(ctx context.Context, productID string, by int64) domain.CartItemResult {
	env, _, err := c.call(ctx, "cart.decrease", map[string]any{"productId": productID, "quantity": by})
	return cartItemResult(env, err, decreaseFailure(by), envelope.Object(env.Object(), "cartItem"))
}

func (c *graphQLCart) RemoveItem(ctx context.Context, productID string) domain.DeleteResult {
	env, _, err := c.call(ctx, "cart.remove", map[string]any{"productId": productID})
	return deleteResult(env, err)
}

func (c *graphQLCart) Clear(ctx context.Context) domain.DeleteResult {
	env, _, err := c.call(ctx, "cart.clear", nil)
	return deleteResult(env, err)
}

type restCart struct{ restCaller }

func (c *restCart) GetCart(ctx context.Context) domain.CartResult {
	env, _, err := c.call(ctx, "cart.get", restCall{})
	return cartResult(env, err, env.Object()["items"])
}

func (c *restCart) AddItem(ctx context.Context, productID string, qty int64) domain.CartItemResult {
	env, _, err := c.call(ctx, "cart.add", restCall{body: map[string]any{"productId": productID, "quantity": qty}})
	return cartItemResult(env, err, addFailure(qty), env.Object())
}

func (c *restCart) UpdateQuantity(ctx context.Context, productID string, qty int64) domain.CartItemResult {
	env, _, err := c.call(ctx, "cart.update", restCall{
		params: map[string]string{"productId": productID},
		body:   map[string]any{"quantity": qty},
	})
	return cartItemResult(env, err, updateFailure(qty), env.Object())
}

func (c *restCart) DecreaseQuantity(ctx context.Context, productID string, by int64) domain.CartItemResult {
	env, _, err := c.call(ctx, "cart.decrease", restCall{
		params: map[string]string{"productId": productID},
		body:   map[string]any{"quantity": by},
	})
	return cartItemResult(env, err, decreaseFailure(by), env.Object())
}

func (c *restCart) RemoveItem(ctx context.Context, productID string) domain.DeleteResult {
	env, _, err := c.call(ctx, "cart.remove", restCall{params: map[string]string{"productId": productID}})
	return deleteResult(env, err)
}

func (c *restCart) Clear(ctx context.Context) domain.DeleteResult {
	env, _, err := c.call(ctx, "cart.clear", restCall{})
	return deleteResult(env, err)
}

func addFailure(qty int64) domain.FailureKind {
	if qty <= 0 {
		return domain.FailureInvalidQuantity
	}
	return domain.FailureNone
}

func updateFailure(qty int64) domain.FailureKind {
	if qty < 0 {
		return domain.FailureNegativeQuantity
	}
	return domain.FailureNone
}

func decreaseFailure(by int64) domain.FailureKind {
	if by <= 0 {
		return domain.FailureNonPositiveDecrease
	}
	return domain.FailureNone
}

func cartResult(env envelope.Envelope, err error, items any) domain.CartResult {
	if err != nil {
		return domain.CartResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.CartResult{Outcome: rejection(env, domain.FailureNone)}
	}
	decoded, derr := decodeCartItems(items)
	if derr != nil {
		return domain.CartResult{Outcome: decodeFailed(derr)}
	}
	return domain.CartResult{Outcome: outcomeOf(env), Cart: domain.Cart{Items: decoded}}
}

// cartItemResult maps add/update/decrease. A nil item on success means the
// line was removed.
func cartItemResult(env envelope.Envelope, err error, kind domain.FailureKind, item map[string]any) domain.CartItemResult {
	if err != nil {
		return domain.CartItemResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.CartItemResult{Outcome: rejection(env, kind)}
	}
	decoded, derr := decodeCartItem(item)
	if derr != nil {
		return domain.CartItemResult{Outcome: decodeFailed(derr)}
	}
	if decoded != nil && decoded.Qty <= 0 {
		decoded = nil
	}
	return domain.CartItemResult{Outcome: outcomeOf(env), Item: decoded}
}

func deleteResult(env envelope.Envelope, err error) domain.DeleteResult {
	if err != nil {
		return domain.DeleteResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.DeleteResult{Outcome: rejection(env, domain.FailureNone)}
	}
	return domain.DeleteResult{Outcome: outcomeOf(env)}
}
