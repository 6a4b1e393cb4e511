package service

import (
	"fmt"
	"strings"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/envelope"
)

func decodeUser(m map[string]any) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:       envelope.String(m, "id"),
		Username: envelope.String(m, "username"),
		Email:    envelope.String(m, "email"),
	}
}

func decodeCategory(m map[string]any) *domain.Category {
	if m == nil {
		return nil
	}
	return &domain.Category{
		ID:   envelope.String(m, "id"),
		Slug: envelope.String(m, "slug"),
		Name: envelope.String(m, "name"),
	}
}

func decodeCategories(v any) []domain.Category {
	raw := envelope.Array(v)
	out := make([]domain.Category, 0, len(raw))
	for _, item := range raw {
		if c := decodeCategory(asObject(item)); c != nil {
			out = append(out, *c)
		}
	}
	return out
}

func decodePagination(m map[string]any) domain.Pagination {
	return domain.Pagination{
		Page:       int(envelope.IntOr(m, "page", 0)),
		Limit:      int(envelope.IntOr(m, "limit", 0)),
		Total:      int(envelope.IntOr(m, "total", 0)),
		TotalPages: int(envelope.IntOr(m, "totalPages", 0)),
	}
}

func decodeProduct(m map[string]any) (*domain.Product, error) {
	if m == nil {
		return nil, fmt.Errorf("product: %w", envelope.ErrMissingField)
	}
	price, err := envelope.Int(m, "price")
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", envelope.String(m, "id"), err)
	}
	return &domain.Product{
		ID:         envelope.String(m, "id"),
		Slug:       envelope.String(m, "slug"),
		Name:       envelope.String(m, "name"),
		PriceMinor: price,
		Currency:   envelope.String(m, "currency"),
		StockQty:   envelope.IntOr(m, "stockQuantity", 0),
		Category:   decodeCategory(envelope.Object(m, "category")),
	}, nil
}

func decodeProducts(v any) ([]domain.Product, error) {
	raw := envelope.Array(v)
	out := make([]domain.Product, 0, len(raw))
	for _, item := range raw {
		p, err := decodeProduct(asObject(item))
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func decodeCartItem(m map[string]any) (*domain.CartItem, error) {
	if m == nil {
		return nil, nil
	}
	qty, err := envelope.Int(m, "quantity")
	if err != nil {
		return nil, fmt.Errorf("cart item: %w", err)
	}
	return &domain.CartItem{ProductID: envelope.String(m, "productId"), Qty: qty}, nil
}

func decodeCartItems(v any) ([]domain.CartItem, error) {
	raw := envelope.Array(v)
	out := make([]domain.CartItem, 0, len(raw))
	for _, item := range raw {
		it, err := decodeCartItem(asObject(item))
		if err != nil {
			return nil, err
		}
		if it != nil {
			out = append(out, *it)
		}
	}
	return out, nil
}

func decodeWallet(m map[string]any) (*domain.Wallet, error) {
	if m == nil {
		return nil, nil
	}
	balance, err := envelope.Int(m, "balance")
	if err != nil {
		return nil, fmt.Errorf("wallet %s: %w", envelope.String(m, "id"), err)
	}
	return &domain.Wallet{
		ID:           envelope.String(m, "id"),
		Currency:     envelope.String(m, "currency"),
		BalanceMinor: balance,
	}, nil
}

func decodeWallets(v any) ([]domain.Wallet, error) {
	raw := envelope.Array(v)
	out := make([]domain.Wallet, 0, len(raw))
	for _, item := range raw {
		w, err := decodeWallet(asObject(item))
		if err != nil {
			return nil, err
		}
		if w != nil {
			out = append(out, *w)
		}
	}
	return out, nil
}

func decodeOrder(m map[string]any) (*domain.Order, error) {
	if m == nil {
		return nil, nil
	}
	total, err := envelope.Int(m, "total")
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", envelope.String(m, "id"), err)
	}
	order := &domain.Order{
		ID:         envelope.String(m, "id"),
		Status:     envelope.String(m, "status"),
		TotalMinor: total,
		Currency:   envelope.String(m, "currency"),
	}
	for _, raw := range envelope.Array(m["items"]) {
		item := asObject(raw)
		unit, err := envelope.Int(item, "unitPrice")
		if err != nil {
			return nil, fmt.Errorf("order %s item: %w", order.ID, err)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:      envelope.String(item, "productId"),
			Qty:            envelope.IntOr(item, "quantity", 0),
			UnitPriceMinor: unit,
		})
	}
	return order, nil
}

func decodeOrders(v any) ([]domain.Order, error) {
	raw := envelope.Array(v)
	out := make([]domain.Order, 0, len(raw))
	for _, item := range raw {
		o, err := decodeOrder(asObject(item))
		if err != nil {
			return nil, err
		}
		if o != nil {
			out = append(out, *o)
		}
	}
	return out, nil
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// decodeFailed reports a malformed payload as an outcome that cannot be evaluated.
func decodeFailed(err error) domain.Outcome {
	return domain.TransportFailed("decode response: %v", err)
}

// rejection classifies a failed envelope. kind applies when the caller's
// input explains the rejection; a 404 or a "not found" message wins otherwise.
func rejection(env envelope.Envelope, kind domain.FailureKind) domain.Outcome {
	if kind == domain.FailureNone && isNotFound(env) {
		kind = domain.FailureNotFound
	}
	return env.Outcome(kind)
}

func isNotFound(env envelope.Envelope) bool {
	return env.Status == 404 || strings.Contains(strings.ToLower(env.Message), "not found")
}

func outcomeOf(env envelope.Envelope) domain.Outcome {
	return domain.Outcome{Success: true, Message: env.Message}
}

// lookupFailure reports a rejected lookup, using the canonical message when
// the backend says the entity does not exist.
func lookupFailure(env envelope.Envelope, entity string) domain.Outcome {
	if isNotFound(env) {
		return domain.NotFound(entity)
	}
	return env.Outcome(domain.FailureNone)
}
