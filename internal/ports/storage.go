package ports

import (
	"context"

	"github.com/karbbot/karb/internal/domain"
)

// RedemptionStore persists the audit trail of redemption runs. The
// orchestrator never writes it; the bot loop and the one-shot command do.
type RedemptionStore interface {
	// SaveRun persists one run with its per-position outcomes.
	SaveRun(ctx context.Context, run domain.RedemptionRun) error

	// RecentRuns returns the latest runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]domain.RedemptionRun, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
