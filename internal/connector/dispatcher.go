package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"solswap-gateway/internal/metrics"
)

// Submit fires a signed transaction down exactly one delivery channel.
// RPC sends skip preflight and never retry client-side; failures surface at
// confirmation time instead. The relay send returns the ledger signature.
// There is no fallback to another channel: a retry is the caller's job and
// needs a fresh blockhash anyway.
func (c *Connector) Submit(ctx context.Context, signed *SignedTx, plan PriorityPlan) (*SubmissionRecord, error) {
	slot, err := c.nodeFor(plan.Channel).GetSlot(ctx, rpc.CommitmentProcessed)
	if err != nil {
		// slot is a diagnostic; do not fail the submission over it
		c.log.Warn("submission slot unavailable", zap.Error(err))
	}

	var sig solana.Signature
	switch plan.Channel {
	case ChannelRelay:
		sig, err = c.submitRelay(ctx, signed)
	case ChannelPriorityNode:
		sig, err = sendNoRetry(ctx, c.staked, signed.Tx)
	default:
		sig, err = sendNoRetry(ctx, c.node, signed.Tx)
	}
	if err != nil {
		return nil, fmt.Errorf("submit via %s: %w", plan.Channel, err)
	}

	metrics.SubmissionsTotal.WithLabelValues(plan.Channel.String()).Inc()
	c.log.Info("submitted",
		zap.Stringer("signature", sig),
		zap.String("channel", plan.Channel.String()),
		zap.Uint64("slot", slot))

	return &SubmissionRecord{
		Channel:       plan.Channel,
		Signature:     sig,
		SubmittedSlot: slot,
		SubmittedAt:   time.Now(),
	}, nil
}

func (c *Connector) submitRelay(ctx context.Context, signed *SignedTx) (solana.Signature, error) {
	raw, err := signed.Tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("serialize transaction: %w", err)
	}

	sigStr, err := c.relay.SendTransaction(ctx, base58.Encode(raw), false)
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := solana.SignatureFromBase58(sigStr)
	if err != nil {
		// the relay answered with something that is not a signature; fall
		// back to the one we signed with, which is what lands on chain
		c.log.Warn("relay returned unparsable signature", zap.String("raw", sigStr), zap.Error(err))
		return signed.Signature(), nil
	}
	return sig, nil
}

func sendNoRetry(ctx context.Context, node ledgerRPC, tx *solana.Transaction) (solana.Signature, error) {
	var retries uint
	return node.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight: true,
		MaxRetries:    &retries,
	})
}
