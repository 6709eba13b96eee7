package connector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedStatus(slot uint64) []*rpc.SignatureStatusesResult {
	return []*rpc.SignatureStatusesResult{{
		Slot:               slot,
		ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
	}}
}

func TestConfirmLandsAfterPolling(t *testing.T) {
	node := &fakeLedger{
		blockHeight: 50,
		statuses: [][]*rpc.SignatureStatusesResult{
			{nil}, // not seen yet
			{{Slot: 1495, ConfirmationStatus: rpc.ConfirmationStatusProcessed}},
			confirmedStatus(1500),
		},
		txResult: &rpc.GetTransactionResult{Slot: 1500},
	}
	c := newTestConnector("", node, &fakeLedger{}, &fakeRelay{})

	signed := makeSignedTx(t, 100)
	rec := &SubmissionRecord{Signature: signed.Signature(), SubmittedSlot: 1490}

	outcome, err := c.Confirm(context.Background(), rec, signed)
	require.NoError(t, err)

	assert.Equal(t, OutcomeConfirmed, outcome.Status)
	assert.Equal(t, uint64(1500), outcome.LandedSlot)
	assert.Equal(t, uint64(10), outcome.SlotDelta)
	assert.Empty(t, outcome.ChainErr)
	assert.GreaterOrEqual(t, node.statusCalls, 3)
}

func TestConfirmFinalizedCounts(t *testing.T) {
	node := &fakeLedger{
		blockHeight: 50,
		statuses: [][]*rpc.SignatureStatusesResult{
			{{Slot: 1500, ConfirmationStatus: rpc.ConfirmationStatusFinalized}},
		},
		txErr: errors.New("not indexed yet"),
	}
	c := newTestConnector("", node, &fakeLedger{}, &fakeRelay{})

	signed := makeSignedTx(t, 100)
	rec := &SubmissionRecord{Signature: signed.Signature()}

	outcome, err := c.Confirm(context.Background(), rec, signed)
	require.NoError(t, err)

	// the diagnostic lookup failing must not change the outcome
	assert.Equal(t, OutcomeConfirmed, outcome.Status)
	assert.Equal(t, uint64(1500), outcome.LandedSlot)
	assert.Zero(t, outcome.SlotDelta)
}

func TestConfirmChainError(t *testing.T) {
	node := &fakeLedger{
		blockHeight: 50,
		statuses: [][]*rpc.SignatureStatusesResult{
			{{
				Slot:               1500,
				ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
				Err:                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
			}},
		},
	}
	c := newTestConnector("", node, &fakeLedger{}, &fakeRelay{})

	signed := makeSignedTx(t, 100)
	rec := &SubmissionRecord{Signature: signed.Signature()}

	outcome, err := c.Confirm(context.Background(), rec, signed)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, outcome.Status)
	assert.Equal(t, uint64(1500), outcome.LandedSlot)
	assert.Contains(t, outcome.ChainErr, "InstructionError")
}

func TestConfirmBlockhashExpiry(t *testing.T) {
	// never seen, and the chain has moved past the last valid height
	node := &fakeLedger{blockHeight: 101}
	c := newTestConnector("", node, &fakeLedger{}, &fakeRelay{})

	signed := makeSignedTx(t, 100)
	rec := &SubmissionRecord{Signature: signed.Signature()}

	outcome, err := c.Confirm(context.Background(), rec, signed)
	require.ErrorIs(t, err, ErrBlockhashExpired)
	assert.Nil(t, outcome)
}

func TestConfirmContextDeadlineIsTimeoutNotError(t *testing.T) {
	// never seen, chain height still within the validity window
	node := &fakeLedger{blockHeight: 50}
	c := newTestConnector("", node, &fakeLedger{}, &fakeRelay{})

	signed := makeSignedTx(t, 100)
	rec := &SubmissionRecord{Signature: signed.Signature()}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	outcome, err := c.Confirm(ctx, rec, signed)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, OutcomeTimeout, outcome.Status)
}

func TestConfirmUsesStakedNodeForPriorityChannel(t *testing.T) {
	node := &fakeLedger{blockHeight: 101} // would expire immediately
	staked := &fakeLedger{
		blockHeight: 50,
		statuses:    [][]*rpc.SignatureStatusesResult{confirmedStatus(1500)},
	}
	c := newTestConnector("", node, staked, &fakeRelay{})

	signed := makeSignedTx(t, 100)
	rec := &SubmissionRecord{Signature: signed.Signature(), Channel: ChannelPriorityNode}

	outcome, err := c.Confirm(context.Background(), rec, signed)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, outcome.Status)
}
