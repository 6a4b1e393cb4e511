package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/fakeshop"
	"github.com/example/shopcheck/internal/service"
	"github.com/example/shopcheck/internal/session"
	"github.com/example/shopcheck/internal/transport"
)

var protocols = []transport.Protocol{transport.ProtocolGraphQL, transport.ProtocolREST}

type fixture struct {
	shop  *fakeshop.Server
	suite *service.Suite
	sess  *session.Context
	actor domain.Actor
}

func newFixture(t *testing.T, protocol transport.Protocol) *fixture {
	t.Helper()
	shop, ep := fakeshop.Start(t, fakeshop.Options{})

	gql, err := transport.NewGraphQL(transport.Config{BaseURL: ep.GraphQLURL})
	require.NoError(t, err)
	rest, err := transport.NewREST(transport.Config{BaseURL: ep.BaseURL})
	require.NoError(t, err)

	actor := domain.Actor{Username: "buyer", Email: "buyer@example.com", Password: "secret123"}
	sess := session.New(actor, "", nil)
	suite, err := service.NewSuite(protocol, service.Clients{GraphQL: gql, REST: rest}, nil, sess)
	require.NoError(t, err)
	return &fixture{shop: shop, suite: suite, sess: sess, actor: actor}
}

// login registers and logs in the fixture's actor.
func (f *fixture) login(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	reg := f.suite.Auth.Register(ctx, domain.RegisterInput{Username: f.actor.Username, Email: f.actor.Email, Password: f.actor.Password})
	require.True(t, reg.Success, reg.Message)
	res, err := f.suite.Auth.Login(ctx, f.sess.Credentials())
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
}

func forEachProtocol(t *testing.T, fn func(t *testing.T, f *fixture)) {
	for _, p := range protocols {
		t.Run(string(p), func(t *testing.T) {
			fn(t, newFixture(t, p))
		})
	}
}

func TestNewSuite(t *testing.T) {
	sess := session.New(domain.Actor{}, "", nil)

	_, err := service.NewSuite("soap", service.Clients{}, nil, sess)
	assert.ErrorIs(t, err, service.ErrUnsupportedProtocol)

	_, err = service.NewSuite(transport.ProtocolREST, service.Clients{}, nil, sess)
	assert.ErrorIs(t, err, service.ErrUnsupportedProtocol)

	_, err = service.NewSuite(transport.ProtocolREST, service.Clients{}, nil, nil)
	assert.Error(t, err)
}

func TestAuth_Lifecycle(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		_, err := f.suite.Auth.Me(ctx)
		assert.ErrorIs(t, err, domain.ErrNoSession)

		reg := f.suite.Auth.Register(ctx, domain.RegisterInput{Username: "buyer", Email: "buyer@example.com", Password: "secret123"})
		require.True(t, reg.Success, reg.Message)
		require.NotNil(t, reg.User)
		assert.Equal(t, "buyer", reg.User.Username)

		dup := f.suite.Auth.Register(ctx, domain.RegisterInput{Username: "buyer", Email: "buyer@example.com", Password: "secret123"})
		assert.False(t, dup.Success)
		assert.Equal(t, domain.FailureValidation, dup.Failure)

		_, err = f.suite.Auth.Login(ctx, domain.Credentials{Username: "buyer"})
		assert.ErrorIs(t, err, domain.ErrMissingCredentials)

		bad, err := f.suite.Auth.Login(ctx, domain.Credentials{Username: "buyer", Password: "nope"})
		require.NoError(t, err)
		assert.False(t, bad.Success)
		assert.False(t, f.sess.Active())

		login, err := f.suite.Auth.Login(ctx, domain.Credentials{Username: "buyer", Password: "secret123"})
		require.NoError(t, err)
		require.True(t, login.Success, login.Message)
		assert.NotEmpty(t, login.SessionToken)
		assert.Equal(t, login.SessionToken, f.sess.Token())

		me, err := f.suite.Auth.Me(ctx)
		require.NoError(t, err)
		require.True(t, me.Success, me.Message)
		assert.Equal(t, "buyer@example.com", me.User.Email)

		out := f.suite.Auth.Logout(ctx)
		assert.True(t, out.Success)
		assert.False(t, out.AlreadyLoggedOut)
		assert.False(t, f.sess.Active())

		again := f.suite.Auth.Logout(ctx)
		assert.True(t, again.Success)
		assert.True(t, again.AlreadyLoggedOut)
	})
}

func TestCart_Operations(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.login(t)
		const pid = "prod-cable"

		add := f.suite.Cart.AddItem(ctx, pid, 2)
		require.True(t, add.Success, add.Message)
		require.NotNil(t, add.Item)
		assert.Equal(t, int64(2), add.Item.Qty)

		upd := f.suite.Cart.UpdateQuantity(ctx, pid, 5)
		require.True(t, upd.Success, upd.Message)
		assert.Equal(t, int64(5), upd.Item.Qty)

		dec := f.suite.Cart.DecreaseQuantity(ctx, pid, 2)
		require.True(t, dec.Success, dec.Message)
		assert.Equal(t, int64(3), dec.Item.Qty)

		cart := f.suite.Cart.GetCart(ctx)
		require.True(t, cart.Success, cart.Message)
		item, ok := cart.Cart.Item(pid)
		require.True(t, ok)
		assert.Equal(t, int64(3), item.Qty)

		over := f.suite.Cart.DecreaseQuantity(ctx, pid, 10)
		require.True(t, over.Success, over.Message)
		assert.Nil(t, over.Item)
		assert.Empty(t, f.suite.Cart.GetCart(ctx).Cart.Items)

		rm := f.suite.Cart.RemoveItem(ctx, pid)
		assert.False(t, rm.Success)
		assert.Equal(t, domain.FailureNotFound, rm.Failure)

		f.suite.Cart.AddItem(ctx, pid, 1)
		clr := f.suite.Cart.Clear(ctx)
		assert.True(t, clr.Success)
		assert.Empty(t, f.suite.Cart.GetCart(ctx).Cart.Items)
	})
}

func TestCart_RejectionsAreClassified(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.login(t)
		f.suite.Cart.AddItem(ctx, "prod-cable", 1)

		tests := []struct {
			name string
			run  func() domain.Outcome
			want domain.FailureKind
		}{
			{"add zero", func() domain.Outcome { return f.suite.Cart.AddItem(ctx, "prod-cable", 0).Outcome }, domain.FailureInvalidQuantity},
			{"add negative", func() domain.Outcome { return f.suite.Cart.AddItem(ctx, "prod-cable", -3).Outcome }, domain.FailureInvalidQuantity},
			{"update negative", func() domain.Outcome { return f.suite.Cart.UpdateQuantity(ctx, "prod-cable", -1).Outcome }, domain.FailureNegativeQuantity},
			{"decrease zero", func() domain.Outcome { return f.suite.Cart.DecreaseQuantity(ctx, "prod-cable", 0).Outcome }, domain.FailureNonPositiveDecrease},
			{"add unknown product", func() domain.Outcome { return f.suite.Cart.AddItem(ctx, "nope", 1).Outcome }, domain.FailureNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got := tt.run()
				assert.False(t, got.Success)
				assert.Equal(t, tt.want, got.Failure)
				assert.NotEmpty(t, got.Message)
			})
		}
	})
}

func TestCatalog_Lookups(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		cats := f.suite.Category.List(ctx, domain.ListParams{Page: 1, Limit: 2})
		require.True(t, cats.Success, cats.Message)
		assert.Len(t, cats.Items, 2)
		assert.Equal(t, 3, cats.Pagination.Total)
		assert.Equal(t, 2, cats.Pagination.TotalPages)

		neg := f.suite.Category.List(ctx, domain.ListParams{Page: -1, Limit: -5})
		assert.False(t, neg.Success)
		assert.False(t, neg.IsTransportFailure())

		cat := f.suite.Category.BySlug(ctx, "books")
		require.True(t, cat.Success, cat.Message)
		assert.Equal(t, "Books", cat.Category.Name)

		missing := f.suite.Category.BySlug(ctx, "no-such-category")
		assert.False(t, missing.Success)
		assert.Nil(t, missing.Category)
		assert.Equal(t, "Category not found", missing.Message)

		inCat := f.suite.Category.Products(ctx, "electronics", 1, 10)
		require.True(t, inCat.Success, inCat.Message)
		assert.Len(t, inCat.Items, 2)

		p := f.suite.Product.BySlug(ctx, fakeshop.HeadphonesSlug)
		require.True(t, p.Success, p.Message)
		assert.Equal(t, fakeshop.HeadphonesPrice, p.Product.PriceMinor)
		assert.Equal(t, "USD", p.Product.Currency)
		require.NotNil(t, p.Product.Category)
		assert.Equal(t, "electronics", p.Product.Category.Slug)

		byID := f.suite.Product.ByID(ctx, p.Product.ID)
		require.True(t, byID.Success)
		assert.Equal(t, p.Product.Slug, byID.Product.Slug)

		none := f.suite.Product.BySlug(ctx, "ghost")
		assert.False(t, none.Success)
		assert.Nil(t, none.Product)
		assert.Equal(t, "Product not found", none.Message)
		assert.Equal(t, domain.FailureNotFound, none.Failure)

		list := f.suite.Product.List(ctx, 1, 100)
		require.True(t, list.Success)
		assert.Len(t, list.Items, 5)

		featured := f.suite.Product.Featured(ctx, 2)
		require.True(t, featured.Success)
		assert.Len(t, featured.Items, 2)
	})
}

func TestLookup_EmptyKeyIsNotFound(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.login(t)

		product := f.suite.Product.BySlug(ctx, "")
		assert.False(t, product.Success)
		assert.Equal(t, domain.FailureNotFound, product.Failure)
		assert.Equal(t, "Product not found", product.Message)
		assert.Nil(t, product.Product)

		byID := f.suite.Product.ByID(ctx, "")
		assert.Equal(t, domain.FailureNotFound, byID.Failure)

		category := f.suite.Category.BySlug(ctx, "")
		assert.Equal(t, domain.FailureNotFound, category.Failure)
		assert.Equal(t, "Category not found", category.Message)

		wallet := f.suite.Wallet.ByCurrency(ctx, "")
		assert.Equal(t, domain.FailureNotFound, wallet.Failure)
		assert.Equal(t, "Wallet not found", wallet.Message)
		assert.Nil(t, wallet.Wallet)

		rm := f.suite.Cart.RemoveItem(ctx, "")
		assert.False(t, rm.Success)
		assert.Equal(t, domain.FailureNotFound, rm.Failure)
		assert.False(t, rm.IsTransportFailure())
	})
}

func TestProduct_Search(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()

		res := f.suite.Product.Search(ctx, domain.SearchParams{Query: "LAMP"})
		require.True(t, res.Success, res.Message)
		require.Len(t, res.Items, 1)
		assert.Equal(t, fakeshop.LampSlug, res.Items[0].Slug)

		inStock := f.suite.Product.Search(ctx, domain.SearchParams{Query: "lamp", InStockOnly: true})
		require.True(t, inStock.Success)
		assert.Empty(t, inStock.Items)

		all := f.suite.Product.Search(ctx, domain.SearchParams{Query: "e", InStockOnly: true})
		require.True(t, all.Success)
		for _, p := range all.Items {
			assert.True(t, domain.MatchesSearch(p, "e", true), p.Slug)
		}
	})
}

func TestOrder_CreateFromCart(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.login(t)

		w := f.suite.Wallet.Create(ctx, "USD", 1000000)
		require.True(t, w.Success, w.Message)
		require.True(t, f.suite.Cart.AddItem(ctx, "prod-headphones", 2).Success)

		rejected := f.suite.Order.CreateFromCart(ctx, "invalid-wallet-id")
		assert.False(t, rejected.Success)
		assert.Nil(t, rejected.Order)
		assert.False(t, rejected.IsTransportFailure())

		res := f.suite.Order.CreateFromCart(ctx, w.Wallet.ID)
		require.True(t, res.Success, res.Message)
		require.NotNil(t, res.Order)
		assert.Equal(t, int64(49998), res.Order.TotalMinor)
		assert.Equal(t, res.Order.ComputedTotal(), res.Order.TotalMinor)
		require.Len(t, res.Order.Items, 1)
		assert.Equal(t, fakeshop.HeadphonesPrice, res.Order.Items[0].UnitPriceMinor)

		orders := f.suite.Order.List(ctx)
		require.True(t, orders.Success)
		assert.Len(t, orders.Orders, 1)

		bal := f.suite.Wallet.Balance(ctx, "USD")
		assert.Equal(t, int64(950002), bal.BalanceMinor)
		assert.Equal(t, "950002", bal.Balance)
	})
}

func TestWallet_Operations(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.login(t)

		tooLong := f.suite.Wallet.Create(ctx, "TOOLONG", 0)
		assert.False(t, tooLong.Success)
		assert.Empty(t, f.suite.Wallet.List(ctx).Wallets)

		zero := f.suite.Wallet.Balance(ctx, "JPY")
		assert.True(t, zero.Success)
		assert.Equal(t, "0", zero.Balance)

		missing := f.suite.Wallet.ByCurrency(ctx, "JPY")
		assert.False(t, missing.Success)
		assert.Nil(t, missing.Wallet)
		assert.Equal(t, domain.FailureNotFound, missing.Failure)

		usd := f.suite.Wallet.Create(ctx, "USD", 5000)
		require.True(t, usd.Success, usd.Message)
		assert.Equal(t, int64(5000), usd.Wallet.BalanceMinor)

		inc := f.suite.Wallet.IncreaseBalance(ctx, usd.Wallet.ID, 1500)
		require.True(t, inc.Success, inc.Message)
		assert.Equal(t, int64(6500), inc.Wallet.BalanceMinor)

		unknown := f.suite.Wallet.IncreaseBalance(ctx, "no-such-wallet", 1)
		assert.False(t, unknown.Success)

		eur := f.suite.Wallet.Create(ctx, "EUR", 0)
		require.True(t, eur.Success)
		mismatch := f.suite.Wallet.Transfer(ctx, domain.TransferInput{
			FromWalletID: usd.Wallet.ID, ToWalletID: eur.Wallet.ID, Currency: "USD", Amount: 100,
		})
		assert.False(t, mismatch.Success)

		byCur := f.suite.Wallet.ByCurrency(ctx, "EUR")
		require.True(t, byCur.Success)
		assert.Equal(t, eur.Wallet.ID, byCur.Wallet.ID)

		del := f.suite.Wallet.Delete(ctx, eur.Wallet.ID)
		assert.True(t, del.Success)
		assert.Len(t, f.suite.Wallet.List(ctx).Wallets, 1)
	})
}

func TestTransportFailure_IsNotAValidationFailure(t *testing.T) {
	forEachProtocol(t, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		f.shop.Fail("product.bySlug", http.StatusBadGateway)

		res := f.suite.Product.BySlug(ctx, fakeshop.HeadphonesSlug)
		assert.False(t, res.Success)
		assert.True(t, res.IsTransportFailure())

		f.shop.Restore("product.bySlug")
		assert.True(t, f.suite.Product.BySlug(ctx, fakeshop.HeadphonesSlug).Success)
	})
}
