// Package service presents the backend's operations through one canonical
// interface per domain, with a GraphQL adapter and a REST adapter behind each.
//
// Adapters never return errors for transport or business outcomes; those are
// reported in the result's domain.Outcome. Errors are reserved for caller
// preconditions (missing credentials, no session).
package service

import (
	"context"

	"github.com/example/shopcheck/internal/domain"
)

// AuthService registers, logs in and out, and reads the current profile.
type AuthService interface {
	Register(ctx context.Context, in domain.RegisterInput) domain.RegisterResult
	// Login stores the session token on success. It returns
	// domain.ErrMissingCredentials when username or password is empty.
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error)
	// Me returns domain.ErrNoSession when no token is held.
	Me(ctx context.Context) (domain.MeResult, error)
	// Logout clears the token. Without a token it is a local no-op.
	Logout(ctx context.Context) domain.LogoutResult
}

// CartService manipulates the actor's cart.
type CartService interface {
	GetCart(ctx context.Context) domain.CartResult
	AddItem(ctx context.Context, productID string, qty int64) domain.CartItemResult
	UpdateQuantity(ctx context.Context, productID string, qty int64) domain.CartItemResult
	DecreaseQuantity(ctx context.Context, productID string, by int64) domain.CartItemResult
	RemoveItem(ctx context.Context, productID string) domain.DeleteResult
	Clear(ctx context.Context) domain.DeleteResult
}

// CategoryService lists and looks up categories.
type CategoryService interface {
	List(ctx context.Context, params domain.ListParams) domain.CategoryPage
	BySlug(ctx context.Context, slug string) domain.CategoryResult
	Products(ctx context.Context, slug string, page, limit int) domain.ProductPage
}

// ProductService lists, looks up and searches products.
type ProductService interface {
	List(ctx context.Context, page, limit int) domain.ProductPage
	BySlug(ctx context.Context, slug string) domain.ProductResult
	ByID(ctx context.Context, id string) domain.ProductResult
	Featured(ctx context.Context, limit int) domain.ProductList
	Search(ctx context.Context, params domain.SearchParams) domain.ProductList
}

// OrderService lists orders and creates one from the cart.
type OrderService interface {
	List(ctx context.Context) domain.OrderList
	CreateFromCart(ctx context.Context, walletID string) domain.OrderResult
}

// WalletService manages the actor's wallets.
type WalletService interface {
	List(ctx context.Context) domain.WalletList
	// ByCurrency reports not found for a currency without a wallet.
	ByCurrency(ctx context.Context, currency string) domain.WalletResult
	// Balance reports "0" for a currency without a wallet.
	Balance(ctx context.Context, currency string) domain.BalanceResult
	Create(ctx context.Context, currency string, initialBalanceMinor int64) domain.WalletResult
	IncreaseBalance(ctx context.Context, walletID string, amountMinor int64) domain.WalletResult
	Delete(ctx context.Context, walletID string) domain.DeleteResult
	Transfer(ctx context.Context, in domain.TransferInput) domain.TransferResult
}
