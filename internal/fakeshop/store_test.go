package fakeshop

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shopcheck/internal/domain"
)

func seededStore(t *testing.T) *store {
	t.Helper()
	s := newStore()
	s.seed()
	_, err := s.register("alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	return s
}

func statusOf(err error) int {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status
	}
	return 0
}

func TestStore_Register(t *testing.T) {
	s := seededStore(t)

	_, err := s.register("alice", "other@example.com", "secret123")
	assert.Equal(t, http.StatusConflict, statusOf(err))

	_, err = s.register("bob", "bob@example.com", "123")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = s.register("", "", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestStore_LoginAndLogout(t *testing.T) {
	s := seededStore(t)

	_, _, err := s.login("alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	user, token, err := s.login("alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, s.accountFor(token))

	s.logout(token)
	assert.Nil(t, s.accountFor(token))
}

func TestStore_CartQuantities(t *testing.T) {
	s := seededStore(t)

	_, err := s.addItem("alice", "prod-cable", 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	_, err = s.addItem("alice", "missing", 1)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	item, err := s.addItem("alice", "prod-cable", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), item.Qty)

	item, err = s.addItem("alice", "prod-cable", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.Qty, "adding an existing product merges quantities")

	_, err = s.updateQuantity("alice", "prod-cable", -1)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	item, err = s.decreaseQuantity("alice", "prod-cable", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), item.Qty)

	item, err = s.decreaseQuantity("alice", "prod-cable", 10)
	require.NoError(t, err)
	assert.Nil(t, item, "over-decrease removes the line")
	assert.Empty(t, s.cart("alice"))

	_, err = s.decreaseQuantity("alice", "prod-cable", 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	assert.Equal(t, http.StatusNotFound, statusOf(s.removeItem("alice", "prod-cable")))
}

func TestStore_UpdateToZeroRemoves(t *testing.T) {
	s := seededStore(t)
	_, err := s.addItem("alice", "prod-book", 1)
	require.NoError(t, err)

	item, err := s.updateQuantity("alice", "prod-book", 0)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Empty(t, s.cart("alice"))
}

func TestStore_CreateOrder_Committed(t *testing.T) {
	s := seededStore(t)
	w, err := s.createWallet("alice", "USD", 1000000)
	require.NoError(t, err)
	_, err = s.addItem("alice", "prod-headphones", 2)
	require.NoError(t, err)

	order, err := s.createOrder("alice", w.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(49998), order.TotalMinor)
	assert.Equal(t, order.ComputedTotal(), order.TotalMinor)
	p, err := s.product(func(p *domain.Product) bool { return p.ID == "prod-headphones" })
	require.NoError(t, err)
	assert.Equal(t, int64(498), p.StockQty)
	got, err := s.walletByCurrency("alice", "USD")
	require.NoError(t, err)
	assert.Equal(t, int64(950002), got.BalanceMinor)
	assert.Len(t, s.ordersOf("alice"), 1)
	assert.Empty(t, s.cart("alice"))
}

func TestStore_CreateOrder_RejectedLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name     string
		balance  int64
		currency string
		walletID string
		status   int
	}{
		{name: "unknown wallet", balance: 1000000, currency: "USD", walletID: "invalid-wallet-id", status: http.StatusNotFound},
		{name: "insufficient balance", balance: 100, currency: "USD", status: http.StatusBadRequest},
		{name: "currency mismatch", balance: 1000000, currency: "EUR", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seededStore(t)
			w, err := s.createWallet("alice", tt.currency, tt.balance)
			require.NoError(t, err)
			_, err = s.addItem("alice", "prod-headphones", 2)
			require.NoError(t, err)
			walletID := w.ID
			if tt.walletID != "" {
				walletID = tt.walletID
			}

			_, err = s.createOrder("alice", walletID)
			assert.Equal(t, tt.status, statusOf(err))

			p, _ := s.product(func(p *domain.Product) bool { return p.ID == "prod-headphones" })
			assert.Equal(t, int64(500), p.StockQty)
			got, _ := s.walletByCurrency("alice", tt.currency)
			assert.Equal(t, tt.balance, got.BalanceMinor)
			assert.Empty(t, s.ordersOf("alice"))
			assert.Len(t, s.cart("alice"), 1)
		})
	}
}

func TestStore_Wallets(t *testing.T) {
	s := seededStore(t)

	_, err := s.createWallet("alice", "TOOLONG", 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Empty(t, s.walletsOf("alice"))

	usd, err := s.createWallet("alice", "usd", 500)
	require.NoError(t, err)
	assert.Equal(t, "USD", usd.Currency)
	_, err = s.createWallet("alice", "USD", 1)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	usd, err = s.increaseBalance("alice", usd.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(750), usd.BalanceMinor)

	eur, err := s.createWallet("alice", "EUR", 0)
	require.NoError(t, err)
	_, _, err = s.transfer("alice", usd.ID, eur.ID, "USD", 10)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	require.NoError(t, s.deleteWallet("alice", eur.ID))
	assert.Equal(t, http.StatusNotFound, statusOf(s.deleteWallet("alice", eur.ID)))
	_, err = s.walletByCurrency("alice", "EUR")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	got, pg, err := paginate(items, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, got)
	assert.Equal(t, 3, pg.TotalPages)

	got, pg, err = paginate(items, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 1, pg.Page)
	assert.Equal(t, 10, pg.Limit)

	got, _, err = paginate(items, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, _, err = paginate(items, -1, 2)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}
