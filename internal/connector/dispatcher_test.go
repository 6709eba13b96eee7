package connector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solswap-gateway/internal/jito"
)

func makeSignedTx(t *testing.T, lastValidBlockHeight uint64) *SignedTx {
	t.Helper()

	signer := testWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, signer.PublicKey(), testWallet().PublicKey()).Build(),
		},
		testBlockhash,
		solana.TransactionPayer(signer.PublicKey()),
	)
	require.NoError(t, err)
	require.NoError(t, signWith(tx, signer))

	return &SignedTx{Tx: tx, Blockhash: testBlockhash, LastValidBlockHeight: lastValidBlockHeight}
}

func TestSubmitNormalChannel(t *testing.T) {
	node := &fakeLedger{slot: 1234}
	staked := &fakeLedger{}
	relay := &fakeRelay{}
	c := newTestConnector("", node, staked, relay)

	signed := makeSignedTx(t, 100)
	rec, err := c.Submit(context.Background(), signed, PriorityPlan{Channel: ChannelNormal})
	require.NoError(t, err)

	assert.Equal(t, 1, node.sendCalls)
	assert.Equal(t, 0, staked.sendCalls)
	assert.Equal(t, 0, relay.sendCalls)
	assert.Equal(t, ChannelNormal, rec.Channel)
	assert.Equal(t, signed.Signature(), rec.Signature)
	assert.Equal(t, uint64(1234), rec.SubmittedSlot)
	assert.False(t, rec.SubmittedAt.IsZero())

	// the node must not preflight or retry; expiry handling is ours
	assert.True(t, node.lastOpts.SkipPreflight)
	require.NotNil(t, node.lastOpts.MaxRetries)
	assert.Equal(t, uint(0), *node.lastOpts.MaxRetries)
}

func TestSubmitPriorityNodeChannel(t *testing.T) {
	node := &fakeLedger{slot: 1111}
	staked := &fakeLedger{slot: 2222}
	c := newTestConnector("", node, staked, &fakeRelay{})

	rec, err := c.Submit(context.Background(), makeSignedTx(t, 100), PriorityPlan{Channel: ChannelPriorityNode})
	require.NoError(t, err)

	assert.Equal(t, 0, node.sendCalls)
	assert.Equal(t, 1, staked.sendCalls)
	assert.Equal(t, ChannelPriorityNode, rec.Channel)
	assert.True(t, staked.lastOpts.SkipPreflight)
	// the slot diagnostic reads the same node the transaction went to
	assert.Equal(t, uint64(2222), rec.SubmittedSlot)
}

func TestSubmitRelayChannel(t *testing.T) {
	node := &fakeLedger{}
	relay := &fakeRelay{}
	c := newTestConnector("", node, &fakeLedger{}, relay)

	signed := makeSignedTx(t, 100)
	relay.sendResult = signed.Signature().String()

	rec, err := c.Submit(context.Background(), signed, PriorityPlan{Channel: ChannelRelay, TipLamports: 1000})
	require.NoError(t, err)

	assert.Equal(t, 0, node.sendCalls)
	assert.Equal(t, 1, relay.sendCalls)
	assert.False(t, relay.bundleOnly)
	assert.Equal(t, ChannelRelay, rec.Channel)
	assert.Equal(t, signed.Signature(), rec.Signature)

	// the relay receives the full serialized transaction, base58 encoded
	raw, err := signed.Tx.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(raw), relay.lastTx)
}

func TestSubmitRelayUnparsableResponseFallsBackToOwnSignature(t *testing.T) {
	relay := &fakeRelay{sendResult: "not-a-signature"}
	c := newTestConnector("", &fakeLedger{}, &fakeLedger{}, relay)

	signed := makeSignedTx(t, 100)
	rec, err := c.Submit(context.Background(), signed, PriorityPlan{Channel: ChannelRelay})
	require.NoError(t, err)
	assert.Equal(t, signed.Signature(), rec.Signature)
}

func TestSubmitBundle(t *testing.T) {
	relay := &fakeRelay{bundleID: "bundle-1"}
	c := newTestConnector("", &fakeLedger{}, &fakeLedger{}, relay)

	first := makeSignedTx(t, 100)
	second := makeSignedTx(t, 100)

	id, err := c.SubmitBundle(context.Background(), []*SignedTx{first, second})
	require.NoError(t, err)
	assert.Equal(t, "bundle-1", id)

	require.Len(t, relay.lastBundle, 2)
	raw, err := first.Tx.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(raw), relay.lastBundle[0])
}

func TestConfirmBundlePassthrough(t *testing.T) {
	relay := &fakeRelay{confirmStatus: jito.BundleStatus{BundleID: "bundle-1", Status: jito.StatusLanded, LandedSlot: 42}}
	c := newTestConnector("", &fakeLedger{}, &fakeLedger{}, relay)

	st, err := c.ConfirmBundle(context.Background(), "bundle-1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, jito.StatusLanded, st.Status)
	assert.Equal(t, uint64(42), st.LandedSlot)
}

func TestSubmitSendFailure(t *testing.T) {
	sendErr := errors.New("node unavailable")
	node := &fakeLedger{sendErr: sendErr}
	c := newTestConnector("", node, &fakeLedger{}, &fakeRelay{})

	_, err := c.Submit(context.Background(), makeSignedTx(t, 100), PriorityPlan{})
	require.ErrorIs(t, err, sendErr)
}
