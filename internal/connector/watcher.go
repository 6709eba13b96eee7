package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"solswap-gateway/internal/jito"
	"solswap-gateway/internal/metrics"
)

// Confirm waits for a submitted transaction to reach commitment "confirmed".
// Expiry is the ledger's own mechanism: once the chain's block height passes
// the transaction's lastValidBlockHeight without it landing, the wait fails
// permanently with ErrBlockhashExpired. A context deadline instead yields a
// Timeout outcome, because the transaction may still land later.
func (c *Connector) Confirm(ctx context.Context, rec *SubmissionRecord, signed *SignedTx) (*Outcome, error) {
	node := c.nodeFor(rec.Channel)

	for {
		select {
		case <-ctx.Done():
			metrics.ConfirmationsTotal.WithLabelValues(string(OutcomeTimeout)).Inc()
			c.log.Warn("confirmation wait expired; outcome unknown",
				zap.Stringer("signature", rec.Signature))
			return &Outcome{Status: OutcomeTimeout}, nil
		default:
		}

		statuses, err := node.GetSignatureStatuses(ctx, true, rec.Signature)
		if err == nil && statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			st := statuses.Value[0]
			if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return c.settle(ctx, node, rec, st)
			}
		} else if err != nil {
			c.log.Debug("signature status poll failed", zap.Error(err))
		}

		height, err := node.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
		if err == nil && height > signed.LastValidBlockHeight {
			metrics.ConfirmationsTotal.WithLabelValues(string(OutcomeExpired)).Inc()
			return nil, fmt.Errorf("%w: height %d past %d",
				ErrBlockhashExpired, height, signed.LastValidBlockHeight)
		}

		select {
		case <-ctx.Done():
			metrics.ConfirmationsTotal.WithLabelValues(string(OutcomeTimeout)).Inc()
			return &Outcome{Status: OutcomeTimeout}, nil
		case <-time.After(c.pollInterval):
		}
	}
}

// settle finalizes a landed signature: chain-level errors become a Failed
// outcome; otherwise a best-effort transaction lookup computes the
// landed-slot delta. The lookup is diagnostic only, its absence is logged.
func (c *Connector) settle(ctx context.Context, node ledgerRPC, rec *SubmissionRecord, st *rpc.SignatureStatusesResult) (*Outcome, error) {
	if st.Err != nil {
		metrics.ConfirmationsTotal.WithLabelValues(string(OutcomeFailed)).Inc()
		return &Outcome{
			Status:     OutcomeFailed,
			LandedSlot: st.Slot,
			ChainErr:   fmt.Sprintf("%v", st.Err),
		}, nil
	}

	outcome := &Outcome{Status: OutcomeConfirmed, LandedSlot: st.Slot}

	maxVersion := uint64(0)
	txRes, err := node.GetTransaction(ctx, rec.Signature, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil || txRes == nil {
		c.log.Info("landed transaction not yet queryable", zap.Stringer("signature", rec.Signature))
	} else {
		outcome.LandedSlot = txRes.Slot
	}

	if rec.SubmittedSlot > 0 && outcome.LandedSlot >= rec.SubmittedSlot {
		outcome.SlotDelta = outcome.LandedSlot - rec.SubmittedSlot
	}

	metrics.ConfirmationsTotal.WithLabelValues(string(OutcomeConfirmed)).Inc()
	c.log.Info("confirmed",
		zap.Stringer("signature", rec.Signature),
		zap.Uint64("landed_slot", outcome.LandedSlot),
		zap.Uint64("slot_delta", outcome.SlotDelta))

	return outcome, nil
}

// ConfirmBundle exposes the relay's bounded bundle-status polling for bundle
// submissions.
func (c *Connector) ConfirmBundle(ctx context.Context, bundleID string, timeout time.Duration) (jito.BundleStatus, error) {
	return c.relay.ConfirmBundle(ctx, bundleID, timeout)
}

// SubmitBundle sends a group of signed transactions atomically through the
// relay and returns the bundle id for ConfirmBundle.
func (c *Connector) SubmitBundle(ctx context.Context, txs []*SignedTx) (string, error) {
	payloads := make([]string, 0, len(txs))
	for _, s := range txs {
		raw, err := s.Tx.MarshalBinary()
		if err != nil {
			return "", fmt.Errorf("serialize bundle transaction: %w", err)
		}
		payloads = append(payloads, base58.Encode(raw))
	}
	return c.relay.SendBundle(ctx, payloads)
}
