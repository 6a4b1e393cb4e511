package service

import (
	"context"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/envelope"
)

type graphQLOrder struct{ gqlCaller }

func (o *graphQLOrder) List(ctx context.Context) domain.OrderList {
	env, _, err := o.call(ctx, "order.list", nil)
	return orderList(env, err)
}

func (o *graphQLOrder) CreateFromCart(ctx context.Context, walletID string) domain.OrderResult {
	env, _, err := o.call(ctx, "order.create", map[string]any{"walletId": walletID})
	return orderResult(env, err, envelope.Object(env.Object(), "order"))
}

type restOrder struct{ restCaller }

func (o *restOrder) List(ctx context.Context) domain.OrderList {
	env, _, err := o.call(ctx, "order.list", restCall{})
	return orderList(env, err)
}

func (o *restOrder) CreateFromCart(ctx context.Context, walletID string) domain.OrderResult {
	env, _, err := o.call(ctx, "order.create", restCall{body: map[string]any{"walletId": walletID}})
	return orderResult(env, err, env.Object())
}

func orderList(env envelope.Envelope, err error) domain.OrderList {
	if err != nil {
		return domain.OrderList{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.OrderList{Outcome: rejection(env, domain.FailureNone)}
	}
	orders, derr := decodeOrders(env.Data)
	if derr != nil {
		return domain.OrderList{Outcome: decodeFailed(derr)}
	}
	return domain.OrderList{Outcome: outcomeOf(env), Orders: orders}
}

// orderResult never carries an order on rejection, whatever the payload holds.
func orderResult(env envelope.Envelope, err error, payload map[string]any) domain.OrderResult {
	if err != nil {
		return domain.OrderResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.OrderResult{Outcome: rejection(env, domain.FailureNone)}
	}
	order, derr := decodeOrder(payload)
	if derr != nil {
		return domain.OrderResult{Outcome: decodeFailed(derr)}
	}
	if order == nil {
		return domain.OrderResult{Outcome: domain.TransportFailed("order created without an order payload")}
	}
	return domain.OrderResult{Outcome: outcomeOf(env), Order: order}
}
