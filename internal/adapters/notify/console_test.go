package notify_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/karbbot/karb/internal/adapters/notify"
	"github.com/karbbot/karb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func makeOpp(question string, yesAsk, noAsk, size float64) domain.Opportunity {
	combined := yesAsk + noAsk
	return domain.Opportunity{
		Market: domain.Market{
			ConditionID: "0xtest",
			Question:    question,
		},
		ScannedAt:    time.Now(),
		YesAsk:       yesAsk,
		NoAsk:        noAsk,
		CombinedCost: combined,
		ProfitPct:    (1 - combined) / combined * 100,
		MaxSize:      size,
	}
}

func mixedSummary() domain.RedemptionSummary {
	return domain.RedemptionSummary{
		Redeemed:   1,
		Failed:     1,
		TotalValue: 5.0,
		Positions: []domain.RedemptionOutcome{
			{Market: "Market A", Size: 10, Value: 5.0, Success: true, TxHash: "0xaaa"},
			{Market: "Market B", Size: 3, Value: 1.5, Success: false, Error: "tx reverted"},
		},
	}
}

// --- tests ---

func TestConsole_Notify_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.Notify(context.Background(), nil)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no arbitrage found")
}

func TestConsole_Notify_Compact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	err := n.Notify(context.Background(), []domain.Opportunity{
		makeOpp("Will it rain?", 0.45, 0.50, 100),
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "1 arbs")
	assert.Contains(t, out, "Will it rain?")
	assert.Contains(t, out, "0.4500+0.5000=0.9500")
	assert.Contains(t, out, "+5.26%")
}

func TestConsole_Notify_CompactCapsAtFour(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	opps := make([]domain.Opportunity, 6)
	for i := range opps {
		opps[i] = makeOpp("q", 0.45, 0.50, 100)
	}

	err := n.Notify(context.Background(), opps)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "6 arbs")
	assert.Equal(t, 4, strings.Count(out, "=0.9500"), "la línea compacta corta en 4 mercados")
}

func TestConsole_Notify_Table(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.Notify(context.Background(), []domain.Opportunity{
		makeOpp("Will it rain?", 0.45, 0.50, 100),
	})

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "1 arbitrage opportunities")
	assert.Contains(t, out, "Will it rain?")
	assert.Contains(t, out, "0.9500")
	assert.Contains(t, out, "5.26%")
}

func TestConsole_NotifyRedemption_Skipped(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.NotifyRedemption(context.Background(), domain.RedemptionSummary{
		Skipped:    true,
		SkipReason: domain.SkipReasonDryRun,
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "redemption skipped (dry_run)")
}

func TestConsole_NotifyRedemption_NothingSubmitted(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.NotifyRedemption(context.Background(), domain.RedemptionSummary{})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no redeemable positions")
}

func TestConsole_NotifyRedemption_MixedOutcomes(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	err := n.NotifyRedemption(context.Background(), mixedSummary())

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "2 submitted, 1 redeemed, 1 failed")
	assert.Contains(t, out, "Market A")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "0xaaa")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "tx reverted")
	assert.Contains(t, out, "Recovered: $5.00 USDC")
}

func TestConsole_PrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	n.PrintHistory(nil)

	assert.Contains(t, buf.String(), "No redemption runs recorded yet.")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	started := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)
	n.PrintHistory([]domain.RedemptionRun{
		{
			ID:        "run-12345678abc",
			StartedAt: started.Add(time.Hour),
			Wallet:    "0x1234567890abcdef",
			Summary:   mixedSummary(),
		},
		{
			ID:        "dry-987654321",
			StartedAt: started,
			Wallet:    "0x1234567890abcdef",
			DryRun:    true,
			Summary:   domain.RedemptionSummary{Skipped: true, SkipReason: domain.SkipReasonDryRun},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Last 2 redemption runs")
	assert.Contains(t, out, "2026-08-01 13:30")
	assert.Contains(t, out, "run-1234", "el id se abrevia")
	assert.Contains(t, out, "0x1234..cdef", "la wallet se abrevia")
	assert.Contains(t, out, "live")
	assert.Contains(t, out, "dry")
	assert.Contains(t, out, "Total recovered: $5.00 USDC")
}
