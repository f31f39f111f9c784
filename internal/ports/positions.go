package ports

import (
	"context"

	"github.com/karbbot/karb/internal/domain"
)

// PositionProvider queries the external position directory for everything a
// wallet holds, redeemable or not.
type PositionProvider interface {
	// FetchPositions returns all known positions for the wallet, in the
	// order the directory reports them. A non-success response from the
	// directory is an error wrapping domain.ErrDirectoryUnavailable, so
	// callers can tell "fetch failed" from "no positions".
	FetchPositions(ctx context.Context, wallet string) ([]domain.Position, error)
}
