package onchain

// redeem.go — On-chain CTF redemption executor for Polymarket.
//
// After a market resolves, winning outcome shares are converted back into
// USDC.e collateral:
//   100 winning YES tokens → $100 USDC.e
//
// Two settlement paths exist on Polygon:
//   - Vanilla markets: ConditionalTokens.redeemPositions() pays out the
//     caller's full balance of each requested index set.
//   - NegRisk markets: NegRiskAdapter.redeemPositions() pulls exact share
//     amounts, which requires a one-time ERC1155 approval on the CTF.
//
// This file handles:
//   - Dynamic gas estimation with conservative fallbacks
//   - Lazy NegRisk adapter approval
//   - Transaction signing (EOA), submission and receipt confirmation

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/karbbot/karb/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	polygonChainID = int64(137)

	// USDC.e collateral on Polygon
	usdcEAddress = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"

	// CTF contract — holds conditional tokens (ERC1155)
	ctfAddress = "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"

	// NegRisk adapter — settlement path for negative-risk markets
	negRiskAdapter = "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"

	// Collateral uses 6 decimals on Polygon
	usdcDecimals = 6

	// Gas limits (conservative upper bounds)
	redeemGasLimit   = uint64(300_000)
	approvalGasLimit = uint64(80_000)

	// Gas price update interval
	gasPriceUpdateInterval = 5 * time.Minute
)

// Contract ABIs
var (
	ctfABI     abi.ABI
	negRiskABI abi.ABI
	erc1155ABI abi.ABI
)

func init() {
	var err error

	ctfABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "redeemPositions",
			"type": "function",
			"inputs": [
				{"name": "collateralToken", "type": "address"},
				{"name": "parentCollectionId", "type": "bytes32"},
				{"name": "conditionId", "type": "bytes32"},
				{"name": "indexSets", "type": "uint256[]"}
			],
			"outputs": []
		}
	]`))
	if err != nil {
		panic("ctf abi parse: " + err.Error())
	}

	negRiskABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "redeemPositions",
			"type": "function",
			"inputs": [
				{"name": "_conditionId", "type": "bytes32"},
				{"name": "_amounts", "type": "uint256[]"}
			],
			"outputs": []
		}
	]`))
	if err != nil {
		panic("negrisk abi parse: " + err.Error())
	}

	erc1155ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "setApprovalForAll",
			"type": "function",
			"inputs": [
				{"name": "operator", "type": "address"},
				{"name": "approved", "type": "bool"}
			],
			"outputs": []
		},
		{
			"name": "isApprovedForAll",
			"type": "function",
			"inputs": [
				{"name": "account", "type": "address"},
				{"name": "operator", "type": "address"}
			],
			"outputs": [{"name": "", "type": "bool"}]
		}
	]`))
	if err != nil {
		panic("erc1155 abi parse: " + err.Error())
	}
}

// RedeemClient implements ports.SettlementExecutor against a Polygon RPC.
type RedeemClient struct {
	client     *ethclient.Client
	privateKey []byte
	address    common.Address
	rpcURL     string

	mu              sync.RWMutex
	cachedGasWei    *big.Int
	gasUpdatedAt    time.Time
	negRiskApproved bool
}

// NewRedeemClient creates a settlement executor connected to the given
// Polygon RPC. privateKeyHex is accepted with or without 0x prefix.
// Transactions are signed directly with the wallet key (EOA, no proxy).
func NewRedeemClient(rpcURL, privateKeyHex string) (*RedeemClient, error) {
	pkBytes, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("redeem: decode private key: %w", err)
	}

	privKey, err := crypto.ToECDSA(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("redeem: invalid private key: %w", err)
	}

	addr := crypto.PubkeyToAddress(privKey.PublicKey)

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("redeem: dial rpc %s: %w", rpcURL, err)
	}

	return &RedeemClient{
		client:     client,
		privateKey: pkBytes,
		address:    addr,
		rpcURL:     rpcURL,
	}, nil
}

// Address returns the wallet address derived from the signer key.
func (rc *RedeemClient) Address() string {
	return rc.address.Hex()
}

// RedeemPositions executes one on-chain redemption for the given condition.
// amounts is the two-slot share vector (slot = outcome index, shares as
// decimal units); negRisk selects the adapter path. The call blocks until the
// transaction is confirmed or the receipt wait times out.
func (rc *RedeemClient) RedeemPositions(ctx context.Context, conditionID string, amounts [2]float64, negRisk bool) (domain.RedeemResult, error) {
	var result domain.RedeemResult

	condBytes, err := hexToBytes32(conditionID)
	if err != nil {
		return result, fmt.Errorf("redeem: invalid conditionID: %w", err)
	}

	if amounts[0] <= 0 && amounts[1] <= 0 {
		return result, fmt.Errorf("redeem: empty amount vector for %s", conditionID)
	}

	var callData []byte
	var target common.Address

	if negRisk {
		if err := rc.ensureNegRiskApproval(ctx); err != nil {
			return result, fmt.Errorf("redeem: negrisk approval: %w", err)
		}

		target = common.HexToAddress(negRiskAdapter)
		callData, err = negRiskABI.Pack("redeemPositions",
			condBytes,
			[]*big.Int{toBaseUnits(amounts[0]), toBaseUnits(amounts[1])},
		)
	} else {
		target = common.HexToAddress(ctfAddress)
		callData, err = ctfABI.Pack("redeemPositions",
			common.HexToAddress(usdcEAddress),
			[32]byte{},
			condBytes,
			indexSetsFor(amounts),
		)
	}
	if err != nil {
		return result, fmt.Errorf("redeem: pack calldata: %w", err)
	}

	privKey, err := crypto.ToECDSA(rc.privateKey)
	if err != nil {
		return result, fmt.Errorf("redeem: private key: %w", err)
	}

	nonce, err := rc.client.PendingNonceAt(ctx, rc.address)
	if err != nil {
		return result, fmt.Errorf("redeem: nonce: %w", err)
	}

	gasPrice, err := rc.getGasPrice(ctx)
	if err != nil {
		return result, fmt.Errorf("redeem: gas price: %w", err)
	}

	// Estimate actual gas
	gasEstimate, err := rc.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     rc.address,
		To:       &target,
		GasPrice: gasPrice,
		Data:     callData,
	})
	if err != nil {
		// Fall back to conservative limit
		gasEstimate = redeemGasLimit
		slog.Warn("redeem: gas estimate failed, using default", "err", err, "limit", redeemGasLimit)
	}
	// Add 20% buffer
	gasEstimate = gasEstimate * 12 / 10

	tx := types.NewTransaction(
		nonce,
		target,
		big.NewInt(0), // no POL value
		gasEstimate,
		gasPrice,
		callData,
	)

	chainID := big.NewInt(polygonChainID)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), privKey)
	if err != nil {
		return result, fmt.Errorf("redeem: sign tx: %w", err)
	}

	if err := rc.client.SendTransaction(ctx, signedTx); err != nil {
		return result, fmt.Errorf("redeem: send tx: %w", err)
	}

	txHash := signedTx.Hash().Hex()
	result.TxHash = txHash
	slog.Info("redeem: transaction sent",
		"condition", shortCondition(conditionID),
		"neg_risk", negRisk,
		"tx", txHash,
	)

	// Wait for receipt (up to 60s)
	receiptCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	receipt, err := rc.waitForReceipt(receiptCtx, signedTx.Hash())
	if err != nil {
		// TX sent but we couldn't confirm — it may still land
		slog.Warn("redeem: could not confirm receipt, tx may still succeed", "tx", txHash, "err", err)
		result.Confirmed = false
		return result, nil
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return result, fmt.Errorf("redeem: tx reverted: %s", txHash)
	}

	result.Confirmed = true
	result.GasUsed = receipt.GasUsed

	slog.Info("redeem: confirmed",
		"condition", shortCondition(conditionID),
		"tx", txHash,
		"gas_used", receipt.GasUsed,
	)

	return result, nil
}

// ensureNegRiskApproval checks (once) that the NegRisk adapter may move the
// wallet's conditional tokens, and sends the approval tx if it may not.
// The adapter pulls CTF tokens during redeemPositions, unlike the vanilla
// path which burns them in place.
func (rc *RedeemClient) ensureNegRiskApproval(ctx context.Context) error {
	rc.mu.RLock()
	approved := rc.negRiskApproved
	rc.mu.RUnlock()
	if approved {
		return nil
	}

	operator := common.HexToAddress(negRiskAdapter)

	ok, err := rc.isApprovedForAll(ctx, operator)
	if err != nil {
		return fmt.Errorf("check ERC1155 approval: %w", err)
	}
	if !ok {
		slog.Info("redeem: setting ERC1155 approval", "operator", negRiskAdapter)
		if err := rc.setApprovalForAll(ctx, operator); err != nil {
			return fmt.Errorf("set ERC1155 approval: %w", err)
		}
		slog.Info("redeem: ERC1155 approval set", "operator", negRiskAdapter)
	}

	rc.mu.Lock()
	rc.negRiskApproved = true
	rc.mu.Unlock()
	return nil
}

// isApprovedForAll checks ERC1155 approval for an operator on the CTF contract.
func (rc *RedeemClient) isApprovedForAll(ctx context.Context, operator common.Address) (bool, error) {
	callData, err := erc1155ABI.Pack("isApprovedForAll", rc.address, operator)
	if err != nil {
		return false, err
	}

	ctfAddr := common.HexToAddress(ctfAddress)
	result, err := rc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &ctfAddr,
		Data: callData,
	}, nil)
	if err != nil {
		return false, err
	}

	vals, err := erc1155ABI.Unpack("isApprovedForAll", result)
	if err != nil || len(vals) == 0 {
		return false, err
	}
	return vals[0].(bool), nil
}

// setApprovalForAll sends a setApprovalForAll transaction on the CTF contract.
func (rc *RedeemClient) setApprovalForAll(ctx context.Context, operator common.Address) error {
	callData, err := erc1155ABI.Pack("setApprovalForAll", operator, true)
	if err != nil {
		return err
	}

	privKey, err := crypto.ToECDSA(rc.privateKey)
	if err != nil {
		return err
	}

	nonce, err := rc.client.PendingNonceAt(ctx, rc.address)
	if err != nil {
		return fmt.Errorf("nonce: %w", err)
	}

	gasPrice, err := rc.getGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("gas price: %w", err)
	}

	ctfAddr := common.HexToAddress(ctfAddress)
	tx := types.NewTransaction(nonce, ctfAddr, big.NewInt(0), approvalGasLimit, gasPrice, callData)

	chainID := big.NewInt(polygonChainID)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(chainID), privKey)
	if err != nil {
		return err
	}

	if err := rc.client.SendTransaction(ctx, signed); err != nil {
		return err
	}

	receiptCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	receipt, err := rc.waitForReceipt(receiptCtx, signed.Hash())
	if err != nil {
		return fmt.Errorf("wait receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("setApprovalForAll tx reverted")
	}
	return nil
}

// getGasPrice returns the current gas price, with caching to avoid excessive RPC calls.
func (rc *RedeemClient) getGasPrice(ctx context.Context) (*big.Int, error) {
	rc.mu.RLock()
	cached := rc.cachedGasWei
	updatedAt := rc.gasUpdatedAt
	rc.mu.RUnlock()

	if cached != nil && time.Since(updatedAt) < gasPriceUpdateInterval {
		return cached, nil
	}

	price, err := rc.client.SuggestGasPrice(ctx)
	if err != nil {
		if cached != nil {
			return cached, nil
		}
		return big.NewInt(30_000_000_000), nil // 30 gwei fallback
	}

	// Add 10% buffer for faster inclusion (copy to avoid mutating SuggestGasPrice return)
	buffered := new(big.Int).Mul(price, big.NewInt(11))
	buffered.Div(buffered, big.NewInt(10))
	price = buffered

	rc.mu.Lock()
	rc.cachedGasWei = price
	rc.gasUpdatedAt = time.Now()
	rc.mu.Unlock()

	return price, nil
}

// waitForReceipt polls for a transaction receipt until confirmed or timeout.
func (rc *RedeemClient) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := rc.client.TransactionReceipt(ctx, txHash)
			if err != nil {
				continue // not yet mined
			}
			return receipt, nil
		}
	}
}

// toBaseUnits converts decimal shares to 6-decimal collateral base units.
func toBaseUnits(shares float64) *big.Int {
	if shares <= 0 {
		return big.NewInt(0)
	}
	return decimal.NewFromFloat(shares).Shift(usdcDecimals).Round(0).BigInt()
}

// indexSetsFor derives the CTF index sets from the amount vector:
// slot 0 → 0b01, slot 1 → 0b10. Only populated slots are redeemed.
func indexSetsFor(amounts [2]float64) []*big.Int {
	var sets []*big.Int
	if amounts[0] > 0 {
		sets = append(sets, big.NewInt(1))
	}
	if amounts[1] > 0 {
		sets = append(sets, big.NewInt(2))
	}
	return sets
}

// hexToBytes32 converts a 0x-prefixed hex string to [32]byte.
func hexToBytes32(s string) ([32]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 64 {
		return [32]byte{}, fmt.Errorf("expected 64 hex chars, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return [32]byte{}, err
	}
	var arr [32]byte
	copy(arr[:], b)
	return arr, nil
}

// shortCondition abbreviates a condition id for logs.
func shortCondition(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "..."
}
