package fakeshop

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/envelope"
)

// request is one decoded call, whichever protocol it arrived on. GraphQL
// variables (with input objects flattened) and REST path, query and body
// values all end up in args.
type request struct {
	gin   *gin.Context
	srv   *Server
	acc   *account
	token string
	args  map[string]any
	enc   encoder
}

func (r *request) str(key string) string {
	return envelope.String(r.args, key)
}

func (r *request) int(key string) (int64, error) {
	n, err := envelope.Int(r.args, key)
	if err != nil {
		return 0, badRequest(fmt.Sprintf("Invalid %s", key))
	}
	return n, nil
}

func (r *request) intOr(key string, fallback int64) int64 {
	return envelope.IntOr(r.args, key, fallback)
}

func (r *request) bool(key string) bool {
	switch v := r.args[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func (r *request) page() (int, int) {
	return int(r.intOr("page", 0)), int(r.intOr("limit", 0))
}

func (r *request) user() string {
	return r.acc.username
}

// operation describes how the fake backend serves one catalog entry.
type operation struct {
	// auth requires a valid session cookie.
	auth bool
	// wrapped GraphQL payloads carry success and message next to the entity.
	wrapped bool
	// key names the entity inside a wrapped payload; empty merges it.
	key     string
	message string
	created bool
	run     func(r *request) (any, error)
}

var operations = map[string]operation{
	"auth.register": {wrapped: true, key: "user", message: "User registered successfully", created: true,
		run: func(r *request) (any, error) {
			u, err := r.srv.store.register(r.str("username"), r.str("email"), r.str("password"))
			if err != nil {
				return nil, err
			}
			return r.enc.user(u), nil
		}},
	"auth.login": {wrapped: true, key: "user", message: "Login successful",
		run: func(r *request) (any, error) {
			u, token, err := r.srv.store.login(r.str("username"), r.str("password"))
			if err != nil {
				return nil, err
			}
			r.gin.SetCookie(r.srv.cookieName, token, 3600, "/", "", false, true)
			return r.enc.user(u), nil
		}},
	"auth.me": {auth: true,
		run: func(r *request) (any, error) {
			return r.enc.user(r.acc.user()), nil
		}},
	"auth.logout": {auth: true, wrapped: true, message: "Logged out",
		run: func(r *request) (any, error) {
			r.srv.store.logout(r.token)
			r.gin.SetCookie(r.srv.cookieName, "", -1, "/", "", false, true)
			return nil, nil
		}},

	"cart.get": {auth: true, wrapped: true,
		run: func(r *request) (any, error) {
			return r.enc.cart(r.srv.store.cart(r.user())), nil
		}},
	"cart.add": {auth: true, wrapped: true, key: "cartItem", message: "Item added to cart", created: true,
		run: func(r *request) (any, error) {
			qty, err := r.int("quantity")
			if err != nil {
				return nil, err
			}
			item, err := r.srv.store.addItem(r.user(), r.str("productId"), qty)
			if err != nil {
				return nil, err
			}
			return r.enc.cartItem(item), nil
		}},
	"cart.update": {auth: true, wrapped: true, key: "cartItem", message: "Cart item updated",
		run: func(r *request) (any, error) {
			qty, err := r.int("quantity")
			if err != nil {
				return nil, err
			}
			item, err := r.srv.store.updateQuantity(r.user(), r.str("productId"), qty)
			if err != nil {
				return nil, err
			}
			return r.enc.cartItem(item), nil
		}},
	"cart.decrease": {auth: true, wrapped: true, key: "cartItem", message: "Cart item decreased",
		run: func(r *request) (any, error) {
			by, err := r.int("quantity")
			if err != nil {
				return nil, err
			}
			item, err := r.srv.store.decreaseQuantity(r.user(), r.str("productId"), by)
			if err != nil {
				return nil, err
			}
			return r.enc.cartItem(item), nil
		}},
	"cart.remove": {auth: true, wrapped: true, message: "Item removed from cart",
		run: func(r *request) (any, error) {
			return nil, r.srv.store.removeItem(r.user(), r.str("productId"))
		}},
	"cart.clear": {auth: true, wrapped: true, message: "Cart cleared",
		run: func(r *request) (any, error) {
			r.srv.store.clearCart(r.user())
			return nil, nil
		}},

	"category.list": {
		run: func(r *request) (any, error) {
			page, limit := r.page()
			items, pg, err := r.srv.store.listCategories(page, limit, r.str("search"))
			if err != nil {
				return nil, err
			}
			return r.enc.page(r.enc.categories(items), pg), nil
		}},
	"category.bySlug": {
		run: func(r *request) (any, error) {
			c, err := r.srv.store.categoryBySlug(r.str("slug"))
			if err != nil {
				return nil, err
			}
			return r.enc.category(c), nil
		}},
	"category.products": {
		run: func(r *request) (any, error) {
			page, limit := r.page()
			items, pg, err := r.srv.store.listProducts(r.str("slug"), page, limit)
			if err != nil {
				return nil, err
			}
			return r.enc.page(r.enc.products(items), pg), nil
		}},

	"product.list": {
		run: func(r *request) (any, error) {
			page, limit := r.page()
			items, pg, err := r.srv.store.listProducts("", page, limit)
			if err != nil {
				return nil, err
			}
			return r.enc.page(r.enc.products(items), pg), nil
		}},
	"product.bySlug": {
		run: func(r *request) (any, error) {
			slug := r.str("slug")
			p, err := r.srv.store.product(func(p *domain.Product) bool { return p.Slug == slug })
			if err != nil {
				return nil, err
			}
			return r.enc.product(*p), nil
		}},
	"product.byId": {
		run: func(r *request) (any, error) {
			id := r.str("id")
			p, err := r.srv.store.product(func(p *domain.Product) bool { return p.ID == id })
			if err != nil {
				return nil, err
			}
			return r.enc.product(*p), nil
		}},
	"product.featured": {
		run: func(r *request) (any, error) {
			return r.enc.products(r.srv.store.featured(int(r.intOr("limit", 0)))), nil
		}},
	"product.search": {
		run: func(r *request) (any, error) {
			query := r.str("query")
			if query == "" {
				query = r.str("q")
			}
			return r.enc.products(r.srv.store.search(query, r.bool("inStockOnly"))), nil
		}},

	"order.list": {auth: true,
		run: func(r *request) (any, error) {
			return r.enc.orders(r.srv.store.ordersOf(r.user())), nil
		}},
	"order.create": {auth: true, wrapped: true, key: "order", message: "Order created", created: true,
		run: func(r *request) (any, error) {
			o, err := r.srv.store.createOrder(r.user(), r.str("walletId"))
			if err != nil {
				return nil, err
			}
			return r.enc.order(o), nil
		}},

	"wallet.list": {auth: true,
		run: func(r *request) (any, error) {
			return r.enc.wallets(r.srv.store.walletsOf(r.user())), nil
		}},
	"wallet.byCurrency": {auth: true,
		run: func(r *request) (any, error) {
			w, err := r.srv.store.walletByCurrency(r.user(), r.str("currency"))
			if err != nil {
				return nil, err
			}
			return r.enc.wallet(*w), nil
		}},
	"wallet.balance": {auth: true,
		run: func(r *request) (any, error) {
			currency := r.str("currency")
			var balance int64
			if w, err := r.srv.store.walletByCurrency(r.user(), currency); err == nil {
				balance = w.BalanceMinor
			}
			return map[string]any{"currency": currency, "balance": r.enc.money(balance)}, nil
		}},
	"wallet.create": {auth: true, wrapped: true, key: "wallet", message: "Wallet created", created: true,
		run: func(r *request) (any, error) {
			initial := int64(0)
			if r.args["initialBalance"] != nil {
				var err error
				if initial, err = r.int("initialBalance"); err != nil {
					return nil, err
				}
			}
			w, err := r.srv.store.createWallet(r.user(), r.str("currency"), initial)
			if err != nil {
				return nil, err
			}
			return r.enc.wallet(w), nil
		}},
	"wallet.increase": {auth: true, wrapped: true, key: "wallet", message: "Balance increased",
		run: func(r *request) (any, error) {
			amount, err := r.int("amount")
			if err != nil {
				return nil, err
			}
			w, err := r.srv.store.increaseBalance(r.user(), r.str("walletId"), amount)
			if err != nil {
				return nil, err
			}
			return r.enc.wallet(w), nil
		}},
	"wallet.delete": {auth: true, wrapped: true, message: "Wallet deleted",
		run: func(r *request) (any, error) {
			return nil, r.srv.store.deleteWallet(r.user(), r.str("walletId"))
		}},
	"wallet.transfer": {auth: true, wrapped: true, message: "Transfer completed",
		run: func(r *request) (any, error) {
			amount, err := r.int("amount")
			if err != nil {
				return nil, err
			}
			from, to, err := r.srv.store.transfer(r.user(), r.str("fromWalletId"), r.str("toWalletId"), r.str("currency"), amount)
			if err != nil {
				return nil, err
			}
			return map[string]any{"fromWallet": r.enc.wallet(from), "toWallet": r.enc.wallet(to)}, nil
		}},
}
