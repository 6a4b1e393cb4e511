package fakeshop

import (
	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/envelope"
)

// encoder renders entities in one protocol's wire format. GraphQL carries
// money as decimal strings, REST as JSON numbers.
type encoder struct {
	graphql bool
}

func (e encoder) money(n int64) any {
	if e.graphql {
		return envelope.FormatMinor(n)
	}
	return n
}

func (e encoder) user(u domain.User) map[string]any {
	return map[string]any{"id": u.ID, "username": u.Username, "email": u.Email}
}

func (e encoder) category(c *domain.Category) map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{"id": c.ID, "slug": c.Slug, "name": c.Name}
}

func (e encoder) categories(cs []domain.Category) []any {
	out := make([]any, 0, len(cs))
	for i := range cs {
		out = append(out, e.category(&cs[i]))
	}
	return out
}

func (e encoder) product(p domain.Product) map[string]any {
	m := map[string]any{
		"id":            p.ID,
		"slug":          p.Slug,
		"name":          p.Name,
		"price":         e.money(p.PriceMinor),
		"currency":      p.Currency,
		"stockQuantity": p.StockQty,
	}
	if p.Category != nil {
		m["category"] = e.category(p.Category)
	}
	return m
}

func (e encoder) products(ps []domain.Product) []any {
	out := make([]any, 0, len(ps))
	for _, p := range ps {
		out = append(out, e.product(p))
	}
	return out
}

func (e encoder) page(items []any, pg domain.Pagination) map[string]any {
	return map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":       pg.Page,
			"limit":      pg.Limit,
			"total":      pg.Total,
			"totalPages": pg.TotalPages,
		},
	}
}

func (e encoder) cartItem(it *domain.CartItem) any {
	if it == nil {
		return nil
	}
	return map[string]any{"productId": it.ProductID, "quantity": it.Qty}
}

func (e encoder) cart(items []domain.CartItem) map[string]any {
	out := make([]any, 0, len(items))
	for i := range items {
		out = append(out, e.cartItem(&items[i]))
	}
	return map[string]any{"items": out}
}

func (e encoder) wallet(w domain.Wallet) map[string]any {
	return map[string]any{"id": w.ID, "currency": w.Currency, "balance": e.money(w.BalanceMinor)}
}

func (e encoder) wallets(ws []domain.Wallet) []any {
	out := make([]any, 0, len(ws))
	for _, w := range ws {
		out = append(out, e.wallet(w))
	}
	return out
}

func (e encoder) order(o domain.Order) map[string]any {
	items := make([]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"productId": it.ProductID,
			"quantity":  it.Qty,
			"unitPrice": e.money(it.UnitPriceMinor),
		})
	}
	return map[string]any{
		"id":       o.ID,
		"status":   o.Status,
		"total":    e.money(o.TotalMinor),
		"currency": o.Currency,
		"items":    items,
	}
}

func (e encoder) orders(os []domain.Order) []any {
	out := make([]any, 0, len(os))
	for _, o := range os {
		out = append(out, e.order(o))
	}
	return out
}
