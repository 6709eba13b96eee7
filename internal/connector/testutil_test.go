package connector

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"solswap-gateway/internal/config"
	"solswap-gateway/internal/jito"
	"solswap-gateway/internal/jupiter"
	"solswap-gateway/internal/tokens"
)

var testBlockhash = solana.Hash(solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"))

// fakeLedger is a scripted ledgerRPC.
type fakeLedger struct {
	mu sync.Mutex

	blockhash            solana.Hash
	lastValidBlockHeight uint64
	blockhashErr         error

	accounts    []*rpc.Account
	accountsErr error

	sendSig   solana.Signature
	sendErr   error
	sendCalls int
	lastOpts  rpc.TransactionOpts

	slot        uint64
	blockHeight uint64

	// statuses are served in order; the last entry repeats.
	statuses    [][]*rpc.SignatureStatusesResult
	statusCalls int

	txResult *rpc.GetTransactionResult
	txErr    error
}

func (f *fakeLedger) GetLatestBlockhash(context.Context, rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if f.blockhashErr != nil {
		return nil, f.blockhashErr
	}
	bh := f.blockhash
	if bh.IsZero() {
		bh = testBlockhash
	}
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            bh,
			LastValidBlockHeight: f.lastValidBlockHeight,
		},
	}, nil
}

func (f *fakeLedger) GetMultipleAccounts(_ context.Context, keys ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	value := f.accounts
	if value == nil {
		value = make([]*rpc.Account, len(keys))
	}
	return &rpc.GetMultipleAccountsResult{Value: value}, nil
}

func (f *fakeLedger) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	f.lastOpts = opts
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	if !f.sendSig.IsZero() {
		return f.sendSig, nil
	}
	if len(tx.Signatures) > 0 {
		return tx.Signatures[0], nil
	}
	return solana.Signature{}, nil
}

func (f *fakeLedger) GetSlot(context.Context, rpc.CommitmentType) (uint64, error) {
	return f.slot, nil
}

func (f *fakeLedger) GetBlockHeight(context.Context, rpc.CommitmentType) (uint64, error) {
	return f.blockHeight, nil
}

func (f *fakeLedger) GetSignatureStatuses(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil
	}
	i := f.statusCalls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.statusCalls++
	return &rpc.GetSignatureStatusesResult{Value: f.statuses[i]}, nil
}

func (f *fakeLedger) GetTransaction(context.Context, solana.Signature, *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	if f.txErr != nil {
		return nil, f.txErr
	}
	return f.txResult, nil
}

// fakeRelay is a scripted relayRPC.
type fakeRelay struct {
	mu sync.Mutex

	sendResult string
	sendErr    error
	sendCalls  int
	lastTx     string
	bundleOnly bool

	bundleID   string
	bundleErr  error
	lastBundle []string

	confirmStatus jito.BundleStatus
}

func (f *fakeRelay) SendTransaction(_ context.Context, base58Tx string, bundleOnly bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	f.lastTx = base58Tx
	f.bundleOnly = bundleOnly
	return f.sendResult, f.sendErr
}

func (f *fakeRelay) SendBundle(_ context.Context, base58Txs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBundle = base58Txs
	return f.bundleID, f.bundleErr
}

func (f *fakeRelay) ConfirmBundle(context.Context, string, time.Duration) (jito.BundleStatus, error) {
	return f.confirmStatus, nil
}

// newTestConnector wires a connector from fakes. jupiterURL may be empty
// when the test never calls the aggregator.
func newTestConnector(jupiterURL string, node, staked *fakeLedger, relay *fakeRelay) *Connector {
	log := zap.NewNop()
	return &Connector{
		cfg: &config.NetworkConfig{
			Name:                 "testnet",
			NativeCurrencySymbol: "SOL",
			AllowedSlippage:      "1/100",
		},
		log:          log,
		node:         node,
		staked:       staked,
		relay:        relay,
		jup:          jupiter.NewClient(jupiterURL, log),
		tokens:       tokens.NewRegistry("", log),
		pollInterval: 2 * time.Millisecond,
	}
}

func testWallet() solana.PrivateKey {
	return solana.NewWallet().PrivateKey
}
