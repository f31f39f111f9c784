package main

// redeem.go — one-shot redemption and audit history commands.

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/karbbot/karb/config"
	"github.com/karbbot/karb/internal/adapters/notify"
	"github.com/karbbot/karb/internal/adapters/onchain"
	"github.com/karbbot/karb/internal/adapters/polymarket"
	"github.com/karbbot/karb/internal/domain"
	"github.com/karbbot/karb/internal/ports"
	"github.com/karbbot/karb/internal/redeemer"
)

// buildRedeemer wires the redemption orchestrator. Without -live the
// executor stays nil: the orchestrator runs in dry-run mode and never
// reaches it. The on-chain client is only dialed when a key is present,
// so a missing key surfaces as the orchestrator's own error instead of
// a startup failure.
func buildRedeemer(cfg *config.Config, client *polymarket.Client, live bool) (ports.Redeemer, error) {
	rdCfg := redeemer.Config{
		PrivateKey: cfg.Wallet.PrivateKey,
		Wallet:     cfg.Wallet.Address,
		DryRun:     !live,
		Delay:      cfg.RedeemDelay(),
		MaxBackoff: cfg.RedeemMaxBackoff(),
	}

	var exec ports.SettlementExecutor
	if live && cfg.Wallet.PrivateKey != "" {
		rc, err := onchain.NewRedeemClient(cfg.Chain.RPCURL, cfg.Wallet.PrivateKey)
		if err != nil {
			return nil, err
		}
		exec = rc
		slog.Info("redeem client ready", "rpc", cfg.Chain.RPCURL, "wallet", rc.Address())
	}

	return redeemer.New(rdCfg, client, exec), nil
}

// runRedeem performs one check-and-redeem cycle, prints the summary and
// records it in the audit trail.
func runRedeem(ctx context.Context, rdm ports.Redeemer, store ports.RedemptionStore, notifier *notify.Console, wallet string, live bool) {
	start := time.Now().UTC()

	sum, err := rdm.CheckAndRedeem(ctx)
	if err != nil {
		slog.Error("redemption failed", "err", err)
		os.Exit(1)
	}

	if err := notifier.NotifyRedemption(ctx, sum); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	run := domain.RedemptionRun{
		ID:        uuid.NewString(),
		StartedAt: start,
		Wallet:    wallet,
		DryRun:    !live,
		Summary:   sum,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		slog.Warn("audit store error", "err", err)
	}

	slog.Info("redemption complete",
		"submitted", sum.Submitted(),
		"redeemed", sum.Redeemed,
		"failed", sum.Failed,
		"recovered_usdc", sum.TotalValue,
	)
}

// runHistory prints the last n redemption runs from the audit trail.
func runHistory(ctx context.Context, store ports.RedemptionStore, notifier *notify.Console, n int) {
	runs, err := store.RecentRuns(ctx, n)
	if err != nil {
		slog.Error("failed to load history", "err", err)
		os.Exit(1)
	}
	notifier.PrintHistory(runs)
}
