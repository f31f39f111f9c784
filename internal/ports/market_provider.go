package ports

import (
	"context"

	"github.com/karbbot/karb/internal/domain"
)

// MarketProvider obtiene los mercados binarios activos desde Gamma.
type MarketProvider interface {
	// FetchActiveMarkets devuelve los mercados abiertos ordenados por
	// volumen, hasta el límite dado.
	FetchActiveMarkets(ctx context.Context, limit int) ([]domain.Market, error)
}
