package ports

import (
	"context"

	"github.com/karbbot/karb/internal/domain"
)

// Notifier presenta los resultados de cada ciclo al usuario.
type Notifier interface {
	// Notify muestra las oportunidades ordenadas por rentabilidad.
	// En la implementación de consola, imprime una tabla formateada.
	Notify(ctx context.Context, opportunities []domain.Opportunity) error

	// NotifyRedemption prints the outcome of a redemption batch.
	NotifyRedemption(ctx context.Context, summary domain.RedemptionSummary) error
}
