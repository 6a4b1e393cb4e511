package service

import (
	"context"

	"github.com/example/shopcheck/internal/domain"
	"github.com/example/shopcheck/internal/envelope"
)

type graphQLWallet struct{ gqlCaller }

func (w *graphQLWallet) List(ctx context.Context) domain.WalletList {
	env, _, err := w.call(ctx, "wallet.list", nil)
	return walletList(env, err)
}

func (w *graphQLWallet) ByCurrency(ctx context.Context, currency string) domain.WalletResult {
	env, _, err := w.call(ctx, "wallet.byCurrency", map[string]any{"currency": currency})
	return walletLookup(env, err)
}

func (w *graphQLWallet) Balance(ctx context.Context, currency string) domain.BalanceResult {
	env, _, err := w.call(ctx, "wallet.balance", map[string]any{"currency": currency})
	return balanceResult(env, err, currency)
}

func (w *graphQLWallet) Create(ctx context.Context, currency string, initialBalanceMinor int64) domain.WalletResult {
	env, _, err := w.call(ctx, "wallet.create", map[string]any{"input": map[string]any{
		"currency":       currency,
		"initialBalance": envelope.FormatMinor(initialBalanceMinor),
	}})
	return walletMutation(env, err, envelope.Object(env.Object(), "wallet"))
}

func (w *graphQLWallet) IncreaseBalance(ctx context.Context, walletID string, amountMinor int64) domain.WalletResult {
	env, _, err := w.call(ctx, "wallet.increase", map[string]any{
		"walletId": walletID,
		"amount":   envelope.FormatMinor(amountMinor),
	})
	return walletMutation(env, err, envelope.Object(env.Object(), "wallet"))
}

func (w *graphQLWallet) Delete(ctx context.Context, walletID string) domain.DeleteResult {
	env, _, err := w.call(ctx, "wallet.delete", map[string]any{"walletId": walletID})
	return deleteResult(env, err)
}

func (w *graphQLWallet) Transfer(ctx context.Context, in domain.TransferInput) domain.TransferResult {
	env, _, err := w.call(ctx, "wallet.transfer", map[string]any{"input": map[string]any{
		"fromWalletId": in.FromWalletID,
		"toWalletId":   in.ToWalletID,
		"currency":     in.Currency,
		"amount":       envelope.FormatMinor(in.Amount),
	}})
	return transferResult(env, err)
}

type restWallet struct{ restCaller }

func (w *restWallet) List(ctx context.Context) domain.WalletList {
	env, _, err := w.call(ctx, "wallet.list", restCall{})
	return walletList(env, err)
}

func (w *restWallet) ByCurrency(ctx context.Context, currency string) domain.WalletResult {
	env, _, err := w.call(ctx, "wallet.byCurrency", restCall{params: map[string]string{"currency": currency}})
	return walletLookup(env, err)
}

func (w *restWallet) Balance(ctx context.Context, currency string) domain.BalanceResult {
	env, _, err := w.call(ctx, "wallet.balance", restCall{params: map[string]string{"currency": currency}})
	return balanceResult(env, err, currency)
}

func (w *restWallet) Create(ctx context.Context, currency string, initialBalanceMinor int64) domain.WalletResult {
	env, _, err := w.call(ctx, "wallet.create", restCall{body: map[string]any{
		"currency":       currency,
		"initialBalance": initialBalanceMinor,
	}})
	return walletMutation(env, err, env.Object())
}

func (w *restWallet) IncreaseBalance(ctx context.Context, walletID string, amountMinor int64) domain.WalletResult {
	env, _, err := w.call(ctx, "wallet.increase", restCall{
		params: map[string]string{"walletId": walletID},
		body:   map[string]any{"amount": amountMinor},
	})
	return walletMutation(env, err, env.Object())
}

func (w *restWallet) Delete(ctx context.Context, walletID string) domain.DeleteResult {
	env, _, err := w.call(ctx, "wallet.delete", restCall{params: map[string]string{"walletId": walletID}})
	return deleteResult(env, err)
}

func (w *restWallet) Transfer(ctx context.Context, in domain.TransferInput) domain.TransferResult {
	env, _, err := w.call(ctx, "wallet.transfer", restCall{body: map[string]any{
		"fromWalletId": in.FromWalletID,
		"toWalletId":   in.ToWalletID,
		"currency":     in.Currency,
		"amount":       in.Amount,
	}})
	return transferResult(env, err)
}

func walletList(env envelope.Envelope, err error) domain.WalletList {
	if err != nil {
		return domain.WalletList{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.WalletList{Outcome: rejection(env, domain.FailureNone)}
	}
	wallets, derr := decodeWallets(env.Data)
	if derr != nil {
		return domain.WalletList{Outcome: decodeFailed(derr)}
	}
	return domain.WalletList{Outcome: outcomeOf(env), Wallets: wallets}
}

func walletLookup(env envelope.Envelope, err error) domain.WalletResult {
	if err != nil {
		return domain.WalletResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.WalletResult{Outcome: lookupFailure(env, "Wallet")}
	}
	wallet, derr := decodeWallet(env.Object())
	if derr != nil {
		return domain.WalletResult{Outcome: decodeFailed(derr)}
	}
	if wallet == nil {
		return domain.WalletResult{Outcome: domain.NotFound("Wallet")}
	}
	return domain.WalletResult{Outcome: outcomeOf(env), Wallet: wallet}
}

func walletMutation(env envelope.Envelope, err error, payload map[string]any) domain.WalletResult {
	if err != nil {
		return domain.WalletResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.WalletResult{Outcome: rejection(env, domain.FailureNone)}
	}
	wallet, derr := decodeWallet(payload)
	if derr != nil {
		return domain.WalletResult{Outcome: decodeFailed(derr)}
	}
	return domain.WalletResult{Outcome: outcomeOf(env), Wallet: wallet}
}

// balanceResult reports "0" when the backend has no balance for currency.
func balanceResult(env envelope.Envelope, err error, currency string) domain.BalanceResult {
	if err != nil {
		return domain.BalanceResult{Outcome: envelope.TransportOutcome(err), Currency: currency}
	}
	if !env.Success {
		return domain.BalanceResult{Outcome: rejection(env, domain.FailureNone), Currency: currency}
	}
	res := domain.BalanceResult{Outcome: outcomeOf(env), Currency: currency, Balance: "0"}
	payload := env.Object()
	if payload == nil || payload["balance"] == nil {
		return res
	}
	minor, derr := envelope.Int(payload, "balance")
	if derr != nil {
		return domain.BalanceResult{Outcome: decodeFailed(derr), Currency: currency}
	}
	if c := envelope.String(payload, "currency"); c != "" {
		res.Currency = c
	}
	res.BalanceMinor = minor
	res.Balance = envelope.FormatMinor(minor)
	return res
}

func transferResult(env envelope.Envelope, err error) domain.TransferResult {
	if err != nil {
		return domain.TransferResult{Outcome: envelope.TransportOutcome(err)}
	}
	if !env.Success {
		return domain.TransferResult{Outcome: rejection(env, domain.FailureNone)}
	}
	payload := env.Object()
	from, derr := decodeWallet(envelope.Object(payload, "fromWallet"))
	if derr != nil {
		return domain.TransferResult{Outcome: decodeFailed(derr)}
	}
	to, derr := decodeWallet(envelope.Object(payload, "toWallet"))
	if derr != nil {
		return domain.TransferResult{Outcome: decodeFailed(derr)}
	}
	return domain.TransferResult{Outcome: outcomeOf(env), From: from, To: to}
}
