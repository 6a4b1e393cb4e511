package fakeshop

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/example/shopcheck/internal/domain"
)

// apiError is a business rejection with the HTTP status REST reports for it.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(msg string) error { return &apiError{status: http.StatusBadRequest, message: msg} }
func notFound(entity string) error {
	return &apiError{status: http.StatusNotFound, message: entity + " not found"}
}
func conflict(msg string) error     { return &apiError{status: http.StatusConflict, message: msg} }
func unauthorized(msg string) error { return &apiError{status: http.StatusUnauthorized, message: msg} }

type account struct {
	id       string
	username string
	email    string
	password string
}

func (a *account) user() domain.User {
	return domain.User{ID: a.id, Username: a.username, Email: a.email}
}

// store is the shop state. Every operation holds mu for its whole duration, so
// order creation is all-or-nothing.
type store struct {
	mu         sync.Mutex
	accounts   map[string]*account
	sessions   map[string]string
	categories []domain.Category
	products   []*domain.Product
	carts      map[string][]domain.CartItem
	wallets    map[string][]*domain.Wallet
	orders     map[string][]domain.Order
}

func newStore() *store {
	return &store{
		accounts: make(map[string]*account),
		sessions: make(map[string]string),
		carts:    make(map[string][]domain.CartItem),
		wallets:  make(map[string][]*domain.Wallet),
		orders:   make(map[string][]domain.Order),
	}
}

// Auth

func (s *store) register(username, email, password string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == "" || email == "" || password == "" {
		return domain.User{}, badRequest("Username, email and password are required")
	}
	if len(password) < 6 {
		return domain.User{}, badRequest("Password must be at least 6 characters")
	}
	if !strings.Contains(email, "@") {
		return domain.User{}, badRequest("Invalid email address")
	}
	if _, ok := s.accounts[username]; ok {
		return domain.User{}, conflict("Username already taken")
	}
	acc := &account{id: uuid.NewString(), username: username, email: email, password: password}
	s.accounts[username] = acc
	return acc.user(), nil
}

func (s *store) login(username, password string) (domain.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[username]
	if !ok || acc.password != password {
		return domain.User{}, "", unauthorized("Invalid username or password")
	}
	token := uuid.NewString()
	s.sessions[token] = username
	return acc.user(), token, nil
}

func (s *store) logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *store) accountFor(token string) *account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if username, ok := s.sessions[token]; ok {
		return s.accounts[username]
	}
	return nil
}

// Cart

func (s *store) cart(user string) []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartItem(nil), s.carts[user]...)
}

func (s *store) addItem(user, productID string, qty int64) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty <= 0 {
		return nil, badRequest("Quantity must be greater than zero")
	}
	if s.productLocked(productID) == nil {
		return nil, notFound("Product")
	}
	items := s.carts[user]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Qty += qty
			item := items[i]
			return &item, nil
		}
	}
	item := domain.CartItem{ProductID: productID, Qty: qty}
	s.carts[user] = append(items, item)
	return &item, nil
}

// setQuantity replaces the line's quantity. Zero or less removes the line and
// returns nil.
func (s *store) setQuantity(user, productID string, qty func(current int64) int64) (*domain.CartItem, error) {
	items := s.carts[user]
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		next := qty(items[i].Qty)
		if next <= 0 {
			s.carts[user] = append(items[:i:i], items[i+1:]...)
			return nil, nil
		}
		items[i].Qty = next
		item := items[i]
		return &item, nil
	}
	return nil, notFound("Cart item")
}

func (s *store) updateQuantity(user, productID string, qty int64) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < 0 {
		return nil, badRequest("Quantity cannot be negative")
	}
	return s.setQuantity(user, productID, func(int64) int64 { return qty })
}

func (s *store) decreaseQuantity(user, productID string, by int64) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if by <= 0 {
		return nil, badRequest("Decrease amount must be greater than zero")
	}
	return s.setQuantity(user, productID, func(current int64) int64 { return current - by })
}

func (s *store) removeItem(user, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[user]
	for i := range items {
		if items[i].ProductID == productID {
			s.carts[user] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return notFound("Cart item")
}

func (s *store) clearCart(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, user)
}

// Catalog

func (s *store) listCategories(page, limit int, search string) ([]domain.Category, domain.Pagination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(search)
	var matched []domain.Category
	for _, c := range s.categories {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(c.Slug, q) {
			matched = append(matched, c)
		}
	}
	return paginate(matched, page, limit)
}

func (s *store) categoryBySlug(slug string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryLocked(slug)
}

func (s *store) categoryLocked(slug string) (*domain.Category, error) {
	for _, c := range s.categories {
		if c.Slug == slug {
			c := c
			return &c, nil
		}
	}
	return nil, notFound("Category")
}

func (s *store) listProducts(categorySlug string, page, limit int) ([]domain.Product, domain.Pagination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if categorySlug != "" {
		if _, err := s.categoryLocked(categorySlug); err != nil {
			return nil, domain.Pagination{}, err
		}
	}
	var matched []domain.Product
	for _, p := range s.products {
		if categorySlug == "" || (p.Category != nil && p.Category.Slug == categorySlug) {
			matched = append(matched, *p)
		}
	}
	return paginate(matched, page, limit)
}

func (s *store) product(match func(*domain.Product) bool) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, notFound("Product")
}

func (s *store) productLocked(id string) *domain.Product {
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// featured returns the in-stock products with the highest stock first.
func (s *store) featured(limit int) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 4
	}
	var out []domain.Product
	for _, p := range s.products {
		if p.InStock() {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StockQty > out[j].StockQty })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *store) search(query string, inStockOnly bool) []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Product{}
	for _, p := range s.products {
		if domain.MatchesSearch(*p, query, inStockOnly) {
			out = append(out, *p)
		}
	}
	return out
}

// Orders

func (s *store) ordersOf(user string) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Order{}, s.orders[user]...)
}

// createOrder validates everything before mutating anything.
func (s *store) createOrder(user, walletID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if walletID == "" {
		return domain.Order{}, badRequest("Wallet ID is required")
	}
	items := s.carts[user]
	if len(items) == 0 {
		return domain.Order{}, badRequest("Cart is empty")
	}
	wallet := s.walletLocked(user, walletID)
	if wallet == nil {
		return domain.Order{}, notFound("Wallet")
	}

	order := domain.Order{ID: uuid.NewString(), Status: "CONFIRMED", Currency: wallet.Currency}
	for _, it := range items {
		p := s.productLocked(it.ProductID)
		if p == nil {
			return domain.Order{}, notFound("Product")
		}
		if p.Currency != wallet.Currency {
			return domain.Order{}, badRequest("Wallet currency " + wallet.Currency + " does not match product currency " + p.Currency)
		}
		if p.StockQty < it.Qty {
			return domain.Order{}, badRequest("Insufficient stock for " + p.Slug)
		}
		order.Items = append(order.Items, domain.OrderItem{ProductID: p.ID, Qty: it.Qty, UnitPriceMinor: p.PriceMinor})
	}
	order.TotalMinor = order.ComputedTotal()
	if wallet.BalanceMinor < order.TotalMinor {
		return domain.Order{}, badRequest("Insufficient wallet balance")
	}

	for _, it := range order.Items {
		s.productLocked(it.ProductID).StockQty -= it.Qty
	}
	wallet.BalanceMinor -= order.TotalMinor
	s.orders[user] = append(s.orders[user], order)
	delete(s.carts, user)
	return order, nil
}

// Wallets

func (s *store) walletsOf(user string) []domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Wallet{}
	for _, w := range s.wallets[user] {
		out = append(out, *w)
	}
	return out
}

func (s *store) walletLocked(user, id string) *domain.Wallet {
	for _, w := range s.wallets[user] {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (s *store) walletByCurrency(user, currency string) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.wallets[user] {
		if w.Currency == strings.ToUpper(currency) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, notFound("Wallet")
}

func (s *store) createWallet(user, currency string, initial int64) (domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(currency) != 3 {
		return domain.Wallet{}, badRequest("Currency must be a 3-letter code")
	}
	if initial < 0 {
		return domain.Wallet{}, badRequest("Initial balance cannot be negative")
	}
	currency = strings.ToUpper(currency)
	for _, w := range s.wallets[user] {
		if w.Currency == currency {
			return domain.Wallet{}, conflict("Wallet for " + currency + " already exists")
		}
	}
	w := &domain.Wallet{ID: uuid.NewString(), Currency: currency, BalanceMinor: initial}
	s.wallets[user] = append(s.wallets[user], w)
	return *w, nil
}

func (s *store) increaseBalance(user, walletID string, amount int64) (domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 {
		return domain.Wallet{}, badRequest("Amount must be greater than zero")
	}
	w := s.walletLocked(user, walletID)
	if w == nil {
		return domain.Wallet{}, notFound("Wallet")
	}
	w.BalanceMinor += amount
	return *w, nil
}

func (s *store) deleteWallet(user, walletID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := s.wallets[user]
	for i, w := range ws {
		if w.ID == walletID {
			s.wallets[user] = append(ws[:i:i], ws[i+1:]...)
			return nil
		}
	}
	return notFound("Wallet")
}

func (s *store) transfer(user, fromID, toID, currency string, amount int64) (domain.Wallet, domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount <= 0 {
		return domain.Wallet{}, domain.Wallet{}, badRequest("Amount must be greater than zero")
	}
	if fromID == toID {
		return domain.Wallet{}, domain.Wallet{}, badRequest("Cannot transfer to the same wallet")
	}
	from, to := s.walletLocked(user, fromID), s.walletLocked(user, toID)
	if from == nil || to == nil {
		return domain.Wallet{}, domain.Wallet{}, notFound("Wallet")
	}
	currency = strings.ToUpper(currency)
	if from.Currency != currency || to.Currency != currency {
		return domain.Wallet{}, domain.Wallet{}, badRequest("Currency mismatch")
	}
	if from.BalanceMinor < amount {
		return domain.Wallet{}, domain.Wallet{}, badRequest("Insufficient wallet balance")
	}
	from.BalanceMinor -= amount
	to.BalanceMinor += amount
	return *from, *to, nil
}

// paginate applies 1-based paging. Zero page or limit falls back to the
// defaults; negative values are rejected.
func paginate[T any](items []T, page, limit int) ([]T, domain.Pagination, error) {
	if page < 0 || limit < 0 {
		return nil, domain.Pagination{}, badRequest("Page and limit must not be negative")
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	total := len(items)
	pg := domain.Pagination{Page: page, Limit: limit, Total: total, TotalPages: (total + limit - 1) / limit}

	start := (page - 1) * limit
	if start >= total {
		return []T{}, pg, nil
	}
	end := min(start+limit, total)
	return append([]T{}, items[start:end]...), pg, nil
}
