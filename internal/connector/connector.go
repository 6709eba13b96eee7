// Package connector implements the trade submission and confirmation
// pipeline: quote normalization, transaction assembly, multi-channel dispatch
// and the asynchronous confirmation watcher.
package connector

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"solswap-gateway/internal/config"
	"solswap-gateway/internal/jito"
	"solswap-gateway/internal/jupiter"
	"solswap-gateway/internal/store"
	"solswap-gateway/internal/tokens"
)

// ledgerRPC is the slice of the chain RPC surface the connector uses.
// *rpc.Client satisfies it; tests substitute fakes.
type ledgerRPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetMultipleAccounts(ctx context.Context, accounts ...solana.PublicKey) (*rpc.GetMultipleAccountsResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetTransaction(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

// relayRPC is the slice of the relay client the dispatcher and watcher use.
type relayRPC interface {
	SendTransaction(ctx context.Context, base58Tx string, bundleOnly bool) (string, error)
	SendBundle(ctx context.Context, base58Txs []string) (string, error)
	ConfirmBundle(ctx context.Context, bundleID string, timeout time.Duration) (jito.BundleStatus, error)
}

// Connector ties one network's chain, aggregator and relay clients together.
// Instances are created lazily by the registry and shared across requests.
type Connector struct {
	cfg *config.NetworkConfig
	log *zap.Logger

	node   ledgerRPC // public RPC endpoint
	staked ledgerRPC // staked/priority RPC endpoint
	relay  relayRPC
	jup    *jupiter.Client
	tokens *tokens.Registry
	trades *store.TradeStore

	pollInterval time.Duration
	ready        bool
}

// New builds a connector for one network. It does not touch the network;
// call Init to warm the token registry.
func New(cfg *config.NetworkConfig, log *zap.Logger) *Connector {
	log = log.Named("connector").With(zap.String("network", cfg.Name))

	relayOpts := []jito.Option{}
	if cfg.RelayUUID != "" {
		relayOpts = append(relayOpts, jito.WithUUID(cfg.RelayUUID))
	}

	return &Connector{
		cfg:          cfg,
		log:          log,
		node:         rpc.New(cfg.NodeURL),
		staked:       rpc.New(cfg.StakedNodeURL),
		relay:        jito.NewClient(cfg.RelayURL, log, relayOpts...),
		jup:          jupiter.NewClient(cfg.JupiterURL, log),
		tokens:       tokens.NewRegistry(cfg.AssetListSource, log),
		pollInterval: 500 * time.Millisecond,
	}
}

// Init loads the asset list. A failed load leaves the seed assets usable.
func (c *Connector) Init(ctx context.Context) error {
	if err := c.tokens.Load(ctx); err != nil {
		return err
	}
	c.ready = true
	return nil
}

// Ready reports whether Init completed.
func (c *Connector) Ready() bool { return c.ready }

// Network returns the network name this connector serves.
func (c *Connector) Network() string { return c.cfg.Name }

// WithTradeStore attaches an optional trade-history recorder.
func (c *Connector) WithTradeStore(s *store.TradeStore) *Connector {
	c.trades = s
	return c
}

// nodeFor maps a delivery channel to the RPC endpoint whose blockhash and
// slot state the transaction should be built against.
func (c *Connector) nodeFor(ch Channel) ledgerRPC {
	if ch == ChannelPriorityNode {
		return c.staked
	}
	return c.node
}
