package ports

import (
	"context"

	"github.com/karbbot/karb/internal/domain"
)

// SettlementExecutor performs the on-chain settlement call that converts
// outcome shares into collateral.
type SettlementExecutor interface {
	// RedeemPositions submits one redemption transaction for the given
	// condition. amounts is the two-slot share vector (slot = outcome
	// index); negRisk selects the adapter code path. The call blocks until
	// the transaction is confirmed or the receipt wait times out.
	RedeemPositions(ctx context.Context, conditionID string, amounts [2]float64, negRisk bool) (domain.RedeemResult, error)
}
