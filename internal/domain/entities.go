// Package domain holds the canonical records every protocol adapter maps its
// responses into, independent of how the backend encoded them on the wire.
package domain

import "strings"

// Actor is the authenticated user a workflow runs as.
type Actor struct {
	Username     string
	Email        string
	Password     string
	SessionToken string
}

// User is the profile returned by register, login and me.
type User struct {
	ID       string
	Username string
	Email    string
}

// Category groups products. Slugs are unique.
type Category struct {
	ID   string
	Slug string
	Name string
}

// Pagination describes one page of a paginated collection.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Product is read-only from this layer except for StockQty, which only
// changes as a side effect of a committed order.
type Product struct {
	ID         string
	Slug       string
	Name       string
	PriceMinor int64
	Currency   string
	StockQty   int64
	Category   *Category
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.StockQty > 0
}

// MatchesSearch applies the backend's search contract locally: a
// case-insensitive substring match over name and slug, optionally limited to
// products with stock.
func MatchesSearch(p Product, query string, inStockOnly bool) bool {
	if inStockOnly && !p.InStock() {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Slug), q)
}

// CartItem is one line of a cart, keyed by product.
type CartItem struct {
	ProductID string
	Qty       int64
}

// Cart is the set of items held by one actor.
type Cart struct {
	Items []CartItem
}

// Item returns the line for productID, if present.
func (c Cart) Item(productID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

// Wallet holds a balance in one currency. An actor has at most one wallet per
// currency.
type Wallet struct {
	ID           string
	Currency     string
	BalanceMinor int64
}

// OrderItem is a snapshot of one ordered product at its unit price.
type OrderItem struct {
	ProductID      string
	Qty            int64
	UnitPriceMinor int64
}

// Order is immutable once created.
type Order struct {
	ID         string
	Status     string
	TotalMinor int64
	Currency   string
	Items      []OrderItem
}

// ComputedTotal returns the sum of qty * unit price over all items.
func (o Order) ComputedTotal() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.Qty * it.UnitPriceMinor
	}
	return total
}
