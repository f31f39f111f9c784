package polymarket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karbbot/karb/internal/domain"
)

const (
	positionsPath     = "/positions"
	positionsPerPage  = 500
	positionsMaxPages = 4
)

// FetchPositions returns every position the Data API knows for the wallet,
// redeemable or not, in the order the API reports them.
//
// A non-success response becomes an error wrapping
// domain.ErrDirectoryUnavailable so callers can distinguish a directory
// outage from a wallet that simply holds nothing.
func (c *Client) FetchPositions(ctx context.Context, wallet string) ([]domain.Position, error) {
	if wallet == "" {
		return nil, domain.ErrNoWalletAddress
	}

	var all []domain.Position

	for page := 0; page < positionsMaxPages; page++ {
		offset := page * positionsPerPage
		url := fmt.Sprintf("%s%s?user=%s&limit=%d&offset=%d",
			c.dataBase, positionsPath, wallet, positionsPerPage, offset)

		var resp []rawPosition
		if err := c.get(ctx, c.dataLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("data-api.FetchPositions: %w: %v", domain.ErrDirectoryUnavailable, err)
		}

		if len(resp) == 0 {
			break
		}

		all = append(all, mapPositions(resp)...)

		slog.Debug("fetched positions page",
			"wallet", shortAddr(wallet),
			"page", page,
			"count", len(resp),
			"total", len(all),
		)

		if len(resp) < positionsPerPage {
			break
		}
	}

	return all, nil
}

// shortAddr abbreviates a wallet address for logs.
func shortAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:10] + "..."
}
