package workflow

import (
	"context"
	"strings"

	"github.com/example/shopcheck/internal/check"
	"github.com/example/shopcheck/internal/domain"
)

// RunWallet creates, funds, queries, transfers between and deletes wallets,
// including the zero-default balance and the one-wallet-per-currency rule.
func (o *Orchestrator) RunWallet(ctx context.Context) error {
	if err := o.Authenticate(ctx); err != nil {
		return err
	}
	w := o.suite.Wallet
	fx := o.fixtures
	primary, secondary := fx.WalletCurrencies[0], fx.WalletCurrencies[1]

	zero := step(o, "wallet.balance", func() domain.BalanceResult { return w.Balance(ctx, fx.ZeroCurrency) })
	if o.succeeded("balance without a wallet", zero.Outcome) {
		o.rec.Check(
			check.Equal("balance without a wallet is zero", "0", zero.Balance),
			check.Equal("balance without a wallet in minor units", int64(0), zero.BalanceMinor),
		)
	}
	missing := step(o, "wallet.byCurrency", func() domain.WalletResult { return w.ByCurrency(ctx, fx.ZeroCurrency) })
	o.rec.Check(
		check.Failed("wallet lookup without a wallet", missing.Outcome, domain.FailureNotFound),
		check.True("wallet lookup without a wallet returns none", missing.Wallet == nil, "wallet returned"),
	)

	bad := step(o, "wallet.create", func() domain.WalletResult { return w.Create(ctx, "TOOLONG", 0) })
	o.rec.Check(check.Failed("currency longer than three letters is rejected", bad.Outcome, domain.FailureNone))
	if list := step(o, "wallet.list", func() domain.WalletList { return w.List(ctx) }); o.succeeded("list wallets", list.Outcome) {
		o.rec.Check(check.True("rejected wallet is not persisted", !hasCurrency(list.Wallets, "TOOLONG"), "TOOLONG wallet listed"))
	}

	created := step(o, "wallet.create", func() domain.WalletResult { return w.Create(ctx, primary, 5000) })
	if !o.succeeded("create "+primary+" wallet", created.Outcome) || created.Wallet == nil {
		return nil
	}
	first := *created.Wallet
	o.rec.Check(
		check.Equal("created wallet balance", int64(5000), first.BalanceMinor),
		check.Equal("created wallet currency", primary, strings.ToUpper(first.Currency)),
	)

	dup := step(o, "wallet.create", func() domain.WalletResult { return w.Create(ctx, primary, 1) })
	o.rec.Check(check.Failed("second wallet in the same currency is rejected", dup.Outcome, domain.FailureNone))

	inc := step(o, "wallet.increase", func() domain.WalletResult { return w.IncreaseBalance(ctx, first.ID, 1500) })
	if o.succeeded("increase balance", inc.Outcome) && inc.Wallet != nil {
		o.rec.Check(check.Equal("increase is additive", int64(6500), inc.Wallet.BalanceMinor))
	}
	bal := step(o, "wallet.balance", func() domain.BalanceResult { return w.Balance(ctx, primary) })
	if o.succeeded("balance of funded wallet", bal.Outcome) {
		o.rec.Check(check.Equal("balance reflects the increase", "6500", bal.Balance))
	}

	unknown := step(o, "wallet.increase", func() domain.WalletResult { return w.IncreaseBalance(ctx, "missing-"+first.ID, 1) })
	o.rec.Check(check.Failed("increasing an unknown wallet is rejected", unknown.Outcome, domain.FailureNone))

	other := step(o, "wallet.create", func() domain.WalletResult { return w.Create(ctx, secondary, 0) })
	if o.succeeded("create "+secondary+" wallet", other.Outcome) && other.Wallet != nil {
		second := *other.Wallet
		xfer := step(o, "wallet.transfer", func() domain.TransferResult {
			return w.Transfer(ctx, domain.TransferInput{FromWalletID: first.ID, ToWalletID: second.ID, Currency: primary, Amount: 100})
		})
		o.rec.Check(check.Failed("transfer across currencies is rejected", xfer.Outcome, domain.FailureNone))

		after := step(o, "wallet.balance", func() domain.BalanceResult { return w.Balance(ctx, primary) })
		o.rec.Check(check.Equal("rejected transfer leaves the balance", int64(6500), after.BalanceMinor))

		del := step(o, "wallet.delete", func() domain.DeleteResult { return w.Delete(ctx, second.ID) })
		o.rec.Check(check.Succeeded("delete "+secondary+" wallet", del.Outcome))
		gone := step(o, "wallet.byCurrency", func() domain.WalletResult { return w.ByCurrency(ctx, secondary) })
		o.rec.Check(check.Failed("deleted wallet is gone", gone.Outcome, domain.FailureNotFound))
	}

	found := step(o, "wallet.byCurrency", func() domain.WalletResult { return w.ByCurrency(ctx, primary) })
	if o.succeeded("lookup "+primary+" wallet", found.Outcome) && found.Wallet != nil {
		o.rec.Check(check.Equal("lookup returns the created wallet", first.ID, found.Wallet.ID))
	}

	del := step(o, "wallet.delete", func() domain.DeleteResult { return w.Delete(ctx, first.ID) })
	o.rec.Check(check.Succeeded("delete "+primary+" wallet", del.Outcome))
	return nil
}

func hasCurrency(ws []domain.Wallet, currency string) bool {
	for _, w := range ws {
		if strings.EqualFold(w.Currency, currency) {
			return true
		}
	}
	return false
}
