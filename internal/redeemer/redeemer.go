package redeemer

// redeemer.go — Redemption orchestrator.
//
// One cycle: verify credentials, honor dry-run, fetch the wallet's
// positions from the data API, keep the redeemable ones and settle them
// sequentially on-chain, pausing between submissions. The summary reports
// exactly what was submitted: every settled position adds its current
// value to the total, every failed one is recorded with its error.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/karbbot/karb/internal/domain"
	"github.com/karbbot/karb/internal/ports"
)

const (
	defaultDelay      = time.Second
	defaultMaxBackoff = 8 * time.Second
)

// Config carries the settlement parameters, passed explicitly at
// construction. Delay is the base pause between consecutive submissions;
// after a failed submission the pause doubles up to MaxBackoff and resets
// on the next success.
type Config struct {
	PrivateKey string
	Wallet     string
	DryRun     bool
	Delay      time.Duration
	MaxBackoff time.Duration
}

// Redeemer checks a wallet for redeemable positions and settles them one
// at a time through the settlement executor.
type Redeemer struct {
	cfg       Config
	positions ports.PositionProvider
	sub       *submitter
}

// New builds a Redeemer. Non-positive Delay and MaxBackoff fall back to
// defaults; MaxBackoff is never below Delay.
func New(cfg Config, positions ports.PositionProvider, exec ports.SettlementExecutor) *Redeemer {
	if cfg.Delay <= 0 {
		cfg.Delay = defaultDelay
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.MaxBackoff < cfg.Delay {
		cfg.MaxBackoff = cfg.Delay
	}
	return &Redeemer{
		cfg:       cfg,
		positions: positions,
		sub:       newSubmitter(exec),
	}
}

// CheckAndRedeem runs one redemption cycle and returns its summary.
//
// Without a signer key or wallet address it returns the matching sentinel
// error before touching the network. In dry-run mode it returns a skipped
// summary, also without any external call. Otherwise it fetches positions,
// settles the redeemable ones in directory order and accounts for every
// submission: redeemed + failed always equals the number submitted, and
// the total value sums successful settlements only.
func (r *Redeemer) CheckAndRedeem(ctx context.Context) (domain.RedemptionSummary, error) {
	var summary domain.RedemptionSummary

	if r.cfg.PrivateKey == "" {
		return summary, domain.ErrNoPrivateKey
	}
	if r.cfg.Wallet == "" {
		return summary, domain.ErrNoWalletAddress
	}

	if r.cfg.DryRun {
		slog.Info("redeemer: dry run, skipping settlement")
		summary.Skipped = true
		summary.SkipReason = domain.SkipReasonDryRun
		return summary, nil
	}

	positions, err := r.positions.FetchPositions(ctx, r.cfg.Wallet)
	if err != nil {
		return summary, fmt.Errorf("redeemer: %w", err)
	}

	actionable := filterActionable(positions)
	slog.Info("redeemer: positions checked",
		"total", len(positions),
		"redeemable", len(actionable),
	)

	summary.Positions = make([]domain.RedemptionOutcome, 0, len(actionable))

	delay := r.cfg.Delay
	for i, pos := range actionable {
		if i > 0 {
			if err := pause(ctx, delay); err != nil {
				break
			}
		}

		sub := r.sub.submit(ctx, pos)

		outcome := domain.RedemptionOutcome{
			Market: pos.Title,
			Size:   pos.Size,
			Value:  pos.CurrentValue,
		}
		if sub.Err != nil {
			outcome.Error = sub.Err.Error()
			summary.Failed++
			slog.Warn("redeemer: settlement failed",
				"market", pos.Title,
				"condition", pos.ConditionID,
				"err", sub.Err,
			)
		} else {
			outcome.Success = true
			outcome.TxHash = sub.Result.TxHash
			summary.Redeemed++
			summary.TotalValue += pos.CurrentValue
			slog.Info("redeemer: position settled",
				"market", pos.Title,
				"value", pos.CurrentValue,
				"tx", sub.Result.TxHash,
			)
		}
		summary.Positions = append(summary.Positions, outcome)

		delay = nextDelay(delay, r.cfg.Delay, r.cfg.MaxBackoff, sub.Err != nil)

		if ctx.Err() != nil {
			break
		}
	}

	if summary.Submitted() > 0 {
		slog.Info("redeemer: cycle done",
			"redeemed", summary.Redeemed,
			"failed", summary.Failed,
			"total_value", summary.TotalValue,
		)
	}

	return summary, nil
}

// filterActionable keeps the positions that can actually settle: flagged
// redeemable, carrying a condition id and holding shares. Directory order
// is preserved; everything else is dropped without noise.
func filterActionable(positions []domain.Position) []domain.Position {
	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		if p.Actionable() {
			out = append(out, p)
		}
	}
	return out
}

// nextDelay computes the pause before the next submission: back to base
// after a success, doubled (capped at max) after a failure.
func nextDelay(current, base, max time.Duration, failed bool) time.Duration {
	if !failed {
		return base
	}
	next := current * 2
	if next > max {
		next = max
	}
	return next
}

// pause waits between submissions, respecting cancellation.
func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
