package connector

import (
	"context"
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	lookup "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	cb "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"solswap-gateway/internal/jito"
	"solswap-gateway/internal/jupiter"
)

// BuildAndSign turns an accepted quote into a signed, ready-to-broadcast
// transaction: aggregator-built instructions, resolved lookup tables, the
// plan's fee/tip instructions, a fresh blockhash from the node matching the
// plan, and the signer's signature.
func (c *Connector) BuildAndSign(ctx context.Context, quote *Quote, signer solana.PrivateKey, plan PriorityPlan) (*SignedTx, error) {
	if quote == nil || quote.Payload == nil {
		return nil, ErrInvalidTradeResponse
	}

	resp, err := c.jup.SwapInstructions(ctx, jupiter.SwapInstructionsRequest{
		QuoteResponse:           quote.Payload.Raw,
		UserPublicKey:           signer.PublicKey().String(),
		WrapAndUnwrapSol:        true,
		DynamicComputeUnitLimit: true,
		DynamicSlippage:         &jupiter.DynamicSlippage{MaxBps: 300},
		PrioritizationFeeLamports: map[string]interface{}{
			"autoMultiplier": 2,
		},
		SkipUserAccountsRPCCalls: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build swap instructions: %w", err)
	}
	if resp.SwapInstruction == nil {
		return nil, fmt.Errorf("%w: no swap instruction", ErrInvalidTradeResponse)
	}

	node := c.nodeFor(plan.Channel)

	tables, err := c.resolveLookupTables(ctx, node, resp.AddressLookupTableAddresses)
	if err != nil {
		return nil, err
	}

	var tipDest solana.PublicKey
	if plan.tipEnabled() {
		tipDest = jito.RandomPoolTipAccount()
	}

	instructions, err := assembleInstructions(resp, plan, signer.PublicKey(), tipDest)
	if err != nil {
		return nil, err
	}

	recent, err := node.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(signer.PublicKey()),
		solana.TransactionAddressTables(tables),
	)
	if err != nil {
		return nil, fmt.Errorf("compile transaction: %w", err)
	}

	if err := signWith(tx, signer); err != nil {
		return nil, err
	}

	c.log.Debug("transaction built",
		zap.Int("instructions", len(instructions)),
		zap.Int("lookup_tables", len(tables)),
		zap.Uint64("last_valid_block_height", recent.Value.LastValidBlockHeight))

	return &SignedTx{
		Tx:                   tx,
		Blockhash:            recent.Value.Blockhash,
		LastValidBlockHeight: recent.Value.LastValidBlockHeight,
	}, nil
}

// BuildPrebuilt lets the aggregator's swap endpoint build the whole
// transaction and only signs it here. No fee or tip instructions can be
// injected on this path; the aggregator's lastValidBlockHeight bounds the
// confirmation wait.
func (c *Connector) BuildPrebuilt(ctx context.Context, quote *Quote, signer solana.PrivateKey, plan PriorityPlan) (*SignedTx, error) {
	if quote == nil || quote.Payload == nil {
		return nil, ErrInvalidTradeResponse
	}

	resp, err := c.jup.Swap(ctx, jupiter.SwapRequest{
		QuoteResponse:    quote.Payload.Raw,
		UserPublicKey:    signer.PublicKey().String(),
		WrapAndUnwrapSol: true,
		PrioritizationFeeLamports: map[string]interface{}{
			"autoMultiplier": 2,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build swap transaction: %w", err)
	}
	if resp.SwapTransaction == "" {
		return nil, fmt.Errorf("%w: no swap transaction", ErrInvalidTradeResponse)
	}

	return c.BuildFromPayload(ctx, resp.SwapTransaction, signer, plan, resp.LastValidBlockHeight)
}

// BuildFromPayload signs an aggregator-prebuilt transaction (the /swap
// endpoint's base64 payload) instead of assembling instructions locally.
// A zero lastValidBlockHeight is resolved against the channel's node.
func (c *Connector) BuildFromPayload(ctx context.Context, swapTxBase64 string, signer solana.PrivateKey, plan PriorityPlan, lastValidBlockHeight uint64) (*SignedTx, error) {
	raw, err := base64.StdEncoding.DecodeString(swapTxBase64)
	if err != nil {
		return nil, fmt.Errorf("decode swap transaction: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal swap transaction: %w", err)
	}

	if err := signWith(tx, signer); err != nil {
		return nil, err
	}

	if lastValidBlockHeight == 0 {
		recent, err := c.nodeFor(plan.Channel).GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		if err != nil {
			return nil, fmt.Errorf("fetch blockhash: %w", err)
		}
		lastValidBlockHeight = recent.Value.LastValidBlockHeight
	}

	return &SignedTx{
		Tx:                   tx,
		Blockhash:            tx.Message.RecentBlockhash,
		LastValidBlockHeight: lastValidBlockHeight,
	}, nil
}

// assembleInstructions lays the instruction sequence out in its fixed order:
// compute-budget instructions, optional compute-unit price, optional setup
// legs, the swap, optional cleanup, optional relay tip. Absent aggregator
// legs are dropped, not errors.
func assembleInstructions(resp *jupiter.SwapInstructionsResponse, plan PriorityPlan, payer solana.PublicKey, tipDest solana.PublicKey) ([]solana.Instruction, error) {
	capacity := len(resp.ComputeBudgetInstructions) + len(resp.SetupInstructions) + 4
	out := make([]solana.Instruction, 0, capacity)

	for i := range resp.ComputeBudgetInstructions {
		compiled, err := resp.ComputeBudgetInstructions[i].Compile()
		if err != nil {
			return nil, fmt.Errorf("compute budget instruction: %w", err)
		}
		out = append(out, compiled)
	}

	if plan.ComputeUnitPrice > 0 {
		out = append(out, cb.NewSetComputeUnitPriceInstruction(plan.ComputeUnitPrice).Build())
	}

	for i := range resp.SetupInstructions {
		compiled, err := resp.SetupInstructions[i].Compile()
		if err != nil {
			return nil, fmt.Errorf("setup instruction: %w", err)
		}
		out = append(out, compiled)
	}

	swap, err := resp.SwapInstruction.Compile()
	if err != nil {
		return nil, fmt.Errorf("swap instruction: %w", err)
	}
	out = append(out, swap)

	if resp.CleanupInstruction != nil {
		compiled, err := resp.CleanupInstruction.Compile()
		if err != nil {
			return nil, fmt.Errorf("cleanup instruction: %w", err)
		}
		out = append(out, compiled)
	}

	if plan.tipEnabled() {
		out = append(out, system.NewTransferInstruction(plan.TipLamports, payer, tipDest).Build())
	}

	return out, nil
}

// resolveLookupTables fetches the referenced address lookup tables in one
// batched account lookup. Tables whose account is missing are skipped; an
// expired table must not block the swap.
func (c *Connector) resolveLookupTables(ctx context.Context, node ledgerRPC, addresses []string) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	tables := make(map[solana.PublicKey]solana.PublicKeySlice)
	if len(addresses) == 0 {
		return tables, nil
	}

	keys := make([]solana.PublicKey, 0, len(addresses))
	for _, a := range addresses {
		key, err := solana.PublicKeyFromBase58(a)
		if err != nil {
			return nil, fmt.Errorf("bad lookup table address %q: %w", a, err)
		}
		keys = append(keys, key)
	}

	res, err := node.GetMultipleAccounts(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("resolve lookup tables: %w", err)
	}

	for i, acct := range res.Value {
		if acct == nil {
			c.log.Debug("lookup table not found", zap.Stringer("address", keys[i]))
			continue
		}
		state, err := lookup.DecodeAddressLookupTableState(acct.Data.GetBinary())
		if err != nil {
			c.log.Warn("undecodable lookup table", zap.Stringer("address", keys[i]), zap.Error(err))
			continue
		}
		tables[keys[i]] = state.Addresses
	}

	return tables, nil
}

func signWith(tx *solana.Transaction, signer solana.PrivateKey) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if signer.PublicKey().Equals(key) {
			return &signer
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}
