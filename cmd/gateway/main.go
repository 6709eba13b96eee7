package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solswap-gateway/internal/config"
	"solswap-gateway/internal/connector"
	"solswap-gateway/internal/metrics"
	"solswap-gateway/internal/store"
)

var (
	network     = flag.String("network", "mainnet-beta", "network name, selects the SOLSWAP_<NETWORK>_* config")
	pair        = flag.String("pair", "SOL-USDC", "trading pair, BASE-QUOTE")
	side        = flag.String("side", "SELL", "BUY or SELL")
	amount      = flag.String("amount", "", "amount in base-asset units")
	limitPrice  = flag.String("limit-price", "", "reject trades priced worse than this; empty disables the guard")
	channel     = flag.String("channel", "normal", "delivery channel: normal, priority_node or relay")
	tipLamports = flag.Uint64("tip", 0, "relay tip in lamports, relay channel only")
	cuPrice     = flag.Uint64("cu-price", 0, "compute unit price in micro-lamports")
	execute     = flag.Bool("trade", false, "execute a trade instead of quoting; needs PRIVATE_KEY")
	prebuilt    = flag.Bool("prebuilt", false, "let the aggregator build the whole transaction instead of assembling locally")
	timeout     = flag.Duration("timeout", 90*time.Second, "overall request deadline")
	metricsAddr = flag.String("metrics", "", "expose prometheus metrics on this address, e.g. :9090")
)

func main() {
	flag.Parse()
	config.LoadEnv()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	if *amount == "" {
		return fmt.Errorf("missing -amount")
	}

	base, quote, err := splitPair(*pair)
	if err != nil {
		return err
	}

	ch, err := parseChannel(*channel)
	if err != nil {
		return err
	}

	if *metricsAddr != "" {
		metrics.Serve(*metricsAddr)
	}

	maxInstances, err := config.MaxInstances()
	if err != nil {
		return err
	}
	registry, err := connector.NewRegistry(maxInstances, buildConnector(log))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := registry.Instance(*network)
	if err != nil {
		return err
	}
	if err := conn.Init(ctx); err != nil {
		log.Warn("asset list load failed, continuing on seed assets", zap.Error(err))
	}

	tradeSide := connector.Side(strings.ToUpper(*side))
	if tradeSide != connector.SideBuy && tradeSide != connector.SideSell {
		return fmt.Errorf("bad side %q, want BUY or SELL", *side)
	}

	req := connector.PriceRequest{
		Base:   base,
		Quote:  quote,
		Side:   tradeSide,
		Amount: *amount,
	}

	if !*execute {
		res, err := conn.PriceQuote(ctx, req)
		if err != nil {
			return err
		}
		return emit(res)
	}

	signer, err := solana.PrivateKeyFromBase58(os.Getenv("PRIVATE_KEY"))
	if err != nil {
		return fmt.Errorf("PRIVATE_KEY: %w", err)
	}

	res, err := conn.Trade(ctx, connector.TradeRequest{
		PriceRequest: req,
		Signer:       signer,
		LimitPrice:   *limitPrice,
		Prebuilt:     *prebuilt,
		Plan: connector.PriorityPlan{
			Channel:          ch,
			TipLamports:      *tipLamports,
			ComputeUnitPrice: *cuPrice,
		},
	})
	if err != nil {
		return err
	}
	return emit(res)
}

// buildConnector is the registry's construction hook; it wires the optional
// trade-history store when a DSN is configured.
func buildConnector(log *zap.Logger) connector.BuildFunc {
	return func(network string) (*connector.Connector, error) {
		cfg, err := config.Load(network)
		if err != nil {
			return nil, err
		}

		conn := connector.New(cfg, log)

		if dsn := os.Getenv("SOLSWAP_MYSQL_DSN"); dsn != "" {
			trades, err := store.Open(dsn)
			if err != nil {
				return nil, fmt.Errorf("trade store: %w", err)
			}
			conn.WithTradeStore(trades)
		}

		return conn, nil
	}
}

func splitPair(pair string) (string, string, error) {
	parts := strings.Split(pair, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("bad pair %q, want BASE-QUOTE", pair)
	}
	return parts[0], parts[1], nil
}

func parseChannel(s string) (connector.Channel, error) {
	switch strings.ToLower(s) {
	case "normal":
		return connector.ChannelNormal, nil
	case "priority_node":
		return connector.ChannelPriorityNode, nil
	case "relay":
		return connector.ChannelRelay, nil
	default:
		return 0, fmt.Errorf("unknown channel %q", s)
	}
}

func emit(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
