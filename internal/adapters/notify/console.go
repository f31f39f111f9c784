package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/karbbot/karb/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime las oportunidades en el modo configurado.
func (c *Console) Notify(_ context.Context, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no arbitrage found\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(opportunities)
	} else {
		c.printCompact(opportunities)
	}

	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d arbs", now, len(opps))

	shown := 0
	for _, opp := range opps {
		if shown >= 4 {
			break
		}
		name := compactName(opp.Market.Question, 25)
		fmt.Fprintf(&sb, " | %s %.4f+%.4f=%.4f +%.2f%% $%.0f",
			name, opp.YesAsk, opp.NoAsk, opp.CombinedCost,
			opp.ProfitPct, opp.MaxProfitUSD())
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa de oportunidades.
func (c *Console) printFull(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "\n[%s] %d arbitrage opportunities\n", now, len(opps))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "YES ask", "NO ask", "Combined", "Profit %", "Pairs", "Max $", "Ends")

	var totalProfit float64
	for i, opp := range opps {
		totalProfit += opp.MaxProfitUSD()

		table.Append(
			fmt.Sprintf("%d", i+1),
			marketLabel(opp.Market),
			fmt.Sprintf("%.4f", opp.YesAsk),
			fmt.Sprintf("%.4f", opp.NoAsk),
			fmt.Sprintf("%.4f", opp.CombinedCost),
			fmt.Sprintf("%.2f%%", opp.ProfitPct),
			fmt.Sprintf("%.0f", opp.MaxSize),
			fmt.Sprintf("$%.2f", opp.MaxProfitUSD()),
			endDateLabel(opp.Market),
		)
	}

	table.Render()

	fmt.Fprintf(c.out, "  Combined = YES ask + NO ask | pares a $1.00 al resolver\n")
	fmt.Fprintf(c.out, "  Max $ si se ejecuta toda la profundidad del mejor ask: $%.2f\n\n", totalProfit)
}

// NotifyRedemption prints the outcome of one redemption cycle: a row per
// submitted position plus the recovered total.
func (c *Console) NotifyRedemption(_ context.Context, sum domain.RedemptionSummary) error {
	now := time.Now().Format("15:04:05")

	if sum.Skipped {
		fmt.Fprintf(c.out, "[%s] redemption skipped (%s)\n", now, sum.SkipReason)
		return nil
	}
	if sum.Submitted() == 0 {
		fmt.Fprintf(c.out, "[%s] no redeemable positions\n", now)
		return nil
	}

	fmt.Fprintf(c.out, "\n[%s] REDEMPTION — %d submitted, %d redeemed, %d failed\n",
		now, sum.Submitted(), sum.Redeemed, sum.Failed)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Size", "Value", "Status", "Tx / Error")

	for i, out := range sum.Positions {
		status := "OK"
		detail := shortHash(out.TxHash)
		if !out.Success {
			status = "FAIL"
			detail = truncate(out.Error, 40)
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			truncate(out.Market, 38),
			fmt.Sprintf("%.2f", out.Size),
			fmt.Sprintf("$%.2f", out.Value),
			status,
			detail,
		)
	}

	table.Render()

	fmt.Fprintf(c.out, "  Recovered: $%.2f USDC\n\n", sum.TotalValue)
	return nil
}

// PrintHistory prints the stored redemption runs, newest first.
func (c *Console) PrintHistory(runs []domain.RedemptionRun) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "\n  No redemption runs recorded yet.")
		return
	}

	fmt.Fprintf(c.out, "\nLast %d redemption runs:\n", len(runs))

	table := tablewriter.NewWriter(c.out)
	table.Header("When", "Run", "Wallet", "Mode", "Redeemed", "Failed", "Recovered")

	var total float64
	for _, run := range runs {
		mode := "live"
		if run.DryRun {
			mode = "dry"
		}
		total += run.Summary.TotalValue

		table.Append(
			run.StartedAt.Format("2006-01-02 15:04"),
			shortID(run.ID),
			shortAddr(run.Wallet),
			mode,
			fmt.Sprintf("%d", run.Summary.Redeemed),
			fmt.Sprintf("%d", run.Summary.Failed),
			fmt.Sprintf("$%.2f", run.Summary.TotalValue),
		)
	}

	table.Render()
	fmt.Fprintf(c.out, "  Total recovered: $%.2f USDC\n\n", total)
}

// --- helpers ---

func marketLabel(m domain.Market) string {
	return domain.TruncateQuestion(m.Question, m.ConditionID, 38)
}

func endDateLabel(m domain.Market) string {
	if m.EndDate.IsZero() {
		return "-"
	}
	hours := m.HoursToResolution()
	if hours < 48 {
		return fmt.Sprintf("%s (!%.0fh)", m.EndDate.Format("01-02"), math.Round(hours))
	}
	return m.EndDate.Format("2006-01-02")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}

func shortHash(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:10] + "..." + h[len(h)-4:]
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func shortAddr(a string) string {
	if len(a) <= 12 {
		return a
	}
	return a[:6] + ".." + a[len(a)-4:]
}
