package domain

// RegisterInput is the payload for creating a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Credentials are used to log in.
type Credentials struct {
	Username string
	Password string
}

// RegisterResult is the canonical result of register.
type RegisterResult struct {
	Outcome
	User *User
}

// LoginResult is the canonical result of login.
type LoginResult struct {
	Outcome
	User         *User
	SessionToken string
}

// MeResult is the canonical result of me.
type MeResult struct {
	Outcome
	User *User
}

// LogoutResult is the canonical result of logout.
type LogoutResult struct {
	Outcome
	AlreadyLoggedOut bool
}

// CartResult is the canonical result of reading the cart.
type CartResult struct {
	Outcome
	Cart Cart
}

// CartItemResult is the result of add/update/decrease. Item is nil when the
// operation removed the line.
type CartItemResult struct {
	Outcome
	Item *CartItem
}

// ListParams are passed through to paginated listings untouched.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// SearchParams drive product search.
type SearchParams struct {
	Query       string
	InStockOnly bool
}

// CategoryPage is one page of categories.
type CategoryPage struct {
	Outcome
	Items      []Category
	Pagination Pagination
}

// CategoryResult is a single category lookup.
type CategoryResult struct {
	Outcome
	Category *Category
}

// ProductPage is one page of products.
type ProductPage struct {
	Outcome
	Items      []Product
	Pagination Pagination
}

// ProductList is an unpaginated product collection (featured, search).
type ProductList struct {
	Outcome
	Items []Product
}

// ProductResult is a single product lookup.
type ProductResult struct {
	Outcome
	Product *Product
}

// OrderList is the actor's orders.
type OrderList struct {
	Outcome
	Orders []Order
}

// OrderResult is the result of creating an order. Order is nil on rejection.
type OrderResult struct {
	Outcome
	Order *Order
}

// WalletList is the actor's wallets.
type WalletList struct {
	Outcome
	Wallets []Wallet
}

// WalletResult is a single wallet lookup or mutation.
type WalletResult struct {
	Outcome
	Wallet *Wallet
}

// BalanceResult uses zero-default semantics: a currency without a wallet
// reports Success with Balance "0".
type BalanceResult struct {
	Outcome
	Currency     string
	Balance      string
	BalanceMinor int64
}

// TransferInput moves Amount minor units between two wallets of Currency.
type TransferInput struct {
	FromWalletID string
	ToWalletID   string
	Currency     string
	Amount       int64
}

// TransferResult is the result of a transfer.
type TransferResult struct {
	Outcome
	From *Wallet
	To   *Wallet
}

// DeleteResult is the result of removing a wallet or cart line.
type DeleteResult struct {
	Outcome
}
