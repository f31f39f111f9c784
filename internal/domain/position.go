package domain

import "time"

// Position is a wallet's claim on a resolved market outcome, as reported by
// the Polymarket data API. It is fetched fresh on every redemption run and
// never cached.
type Position struct {
	ConditionID  string
	Title        string
	Size         float64 // outcome shares held
	OutcomeIndex int     // 0 or 1: which outcome slot the shares belong to
	NegRisk      bool    // market settles through the NegRisk adapter
	CurrentValue float64 // expected USDC value, informational only
	Redeemable   bool    // eligibility flag set by the data API
}

// Actionable reports whether the position can be submitted for redemption:
// flagged redeemable, with a condition id and a positive share amount.
// Positions failing this are skipped, not counted as failures.
func (p Position) Actionable() bool {
	return p.Redeemable && p.ConditionID != "" && p.Size > 0
}

// AmountVector builds the two-slot share amount vector the settlement call
// expects: the slot for the position's outcome carries the size, the other
// stays zero. An out-of-range outcome index yields a zero vector, which the
// submitter rejects — the attempt is then recorded as a failed outcome.
func (p Position) AmountVector() [2]float64 {
	var v [2]float64
	if p.OutcomeIndex == 0 || p.OutcomeIndex == 1 {
		v[p.OutcomeIndex] = p.Size
	}
	return v
}

// RedeemResult is the receipt from one on-chain settlement call.
type RedeemResult struct {
	TxHash    string
	GasUsed   uint64
	Confirmed bool // false when the tx was sent but the receipt wait timed out
}

// RedemptionOutcome records the attempt to settle one position.
// TxHash is non-empty iff Success is true.
type RedemptionOutcome struct {
	Market  string  // position title
	Size    float64 // shares submitted
	Value   float64 // position's CurrentValue at attempt time
	Success bool
	TxHash  string
	Error   string // failure reason, empty on success
}

// SkipReasonDryRun marks a run skipped because the bot was not in live mode.
const SkipReasonDryRun = "dry_run"

// RedemptionSummary is the aggregate result of one redemption batch.
//
// Invariants: Redeemed+Failed == len(Positions) == positions actually
// submitted; TotalValue sums Value over successful outcomes only; Positions
// keeps submission order.
type RedemptionSummary struct {
	Redeemed   int
	Failed     int
	TotalValue float64
	Positions  []RedemptionOutcome
	Skipped    bool
	SkipReason string
}

// Submitted returns how many positions were actually sent for settlement.
func (s RedemptionSummary) Submitted() int {
	return s.Redeemed + s.Failed
}

// RedemptionRun is the audit record persisted after each redemption batch.
// The orchestrator itself never writes it; the caller does.
type RedemptionRun struct {
	ID        string
	StartedAt time.Time
	Wallet    string
	DryRun    bool
	Summary   RedemptionSummary
}
