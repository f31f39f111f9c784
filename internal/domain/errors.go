package domain

import "errors"

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrNoPrivateKey: redemption was requested but no signer key is
	// configured. Returned before any network access.
	ErrNoPrivateKey = errors.New("no private key configured")

	// ErrNoWalletAddress: no wallet to look positions up for.
	ErrNoWalletAddress = errors.New("no wallet address configured")

	// ErrDirectoryUnavailable: the position directory answered with a
	// non-success status. Distinct from a wallet that simply has no
	// positions.
	ErrDirectoryUnavailable = errors.New("position directory unavailable")
)
