package ports

import (
	"context"

	"github.com/karbbot/karb/internal/domain"
)

// Redeemer is the caller-facing settlement operation: discover redeemable
// positions and settle them one by one.
type Redeemer interface {
	// CheckAndRedeem runs one redemption batch. In dry-run mode it returns
	// a summary with Skipped set and touches nothing external. A missing
	// credential returns domain.ErrNoPrivateKey / ErrNoWalletAddress before
	// any network access.
	CheckAndRedeem(ctx context.Context) (domain.RedemptionSummary, error)
}
