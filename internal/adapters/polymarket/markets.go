package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karbbot/karb/internal/domain"
)

const (
	gammaMarketsPath = "/markets"
	gammaPageSize    = 100
)

// FetchActiveMarkets devuelve los mercados binarios abiertos desde Gamma,
// ordenados por volumen de 24h descendente, hasta limit mercados.
// Los mercados no binarios (multi-outcome sin par YES/NO) se descartan.
func (c *Client) FetchActiveMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	if limit <= 0 {
		limit = gammaPageSize
	}

	var all []domain.Market

	for offset := 0; offset < limit; offset += gammaPageSize {
		pageSize := gammaPageSize
		if rem := limit - offset; rem < pageSize {
			pageSize = rem
		}

		url := fmt.Sprintf("%s%s?active=true&closed=false&order=volume24hr&ascending=false&limit=%d&offset=%d",
			c.gammaBase, gammaMarketsPath, pageSize, offset)

		var resp gammaMarketsResponse
		if err := c.get(ctx, c.gammaLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("gamma.FetchActiveMarkets: %w", err)
		}

		markets := mapGammaMarkets(resp)
		all = append(all, markets...)

		slog.Debug("fetched gamma markets page",
			"offset", offset,
			"raw", len(resp),
			"binary", len(markets),
		)

		// Última página
		if len(resp) < pageSize {
			break
		}
	}

	slog.Debug("gamma markets fetched", "total", len(all))
	return all, nil
}
