// Package config loads per-network gateway settings from the environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// percentFraction matches allowed-slippage strings of the form "N/D".
var percentFraction = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)

const (
	defaultNodeURL         = "https://api.mainnet-beta.solana.com"
	defaultJupiterURL      = "https://quote-api.jup.ag/v6"
	defaultRelayURL        = "https://mainnet.block-engine.jito.wtf/api/v1"
	defaultAssetListSource = "https://tokens.jup.ag/tokens?tags=verified"
	defaultSlippage        = "1/100"

	defaultMaxInstances = 10
)

// NetworkConfig holds the per-network settings consumed by the registry and
// the connector. Immutable once loaded.
type NetworkConfig struct {
	Name                 string
	NodeURL              string
	StakedNodeURL        string
	JupiterURL           string
	RelayURL             string
	RelayUUID            string
	AssetListSource      string
	NativeCurrencySymbol string
	AllowedSlippage      string // fraction, "N/D"
	MaxCachedInstances   int
}

// LoadEnv pulls in a .env file if one exists. Missing files are not an error;
// production deployments set real environment variables.
func LoadEnv() {
	_ = godotenv.Load()
}

// Load builds the configuration for one network. Environment variables are
// keyed by network name, e.g. SOLSWAP_MAINNET_NODE_URL; unset values fall
// back to public defaults.
func Load(network string) (*NetworkConfig, error) {
	if network == "" {
		return nil, fmt.Errorf("empty network name")
	}

	prefix := "SOLSWAP_" + strings.ToUpper(strings.ReplaceAll(network, "-", "_")) + "_"

	cfg := &NetworkConfig{
		Name:                 network,
		NodeURL:              envOr(prefix+"NODE_URL", defaultNodeURL),
		StakedNodeURL:        envOr(prefix+"STAKED_NODE_URL", ""),
		JupiterURL:           envOr(prefix+"JUPITER_URL", defaultJupiterURL),
		RelayURL:             envOr(prefix+"RELAY_URL", defaultRelayURL),
		RelayUUID:            envOr(prefix+"RELAY_UUID", ""),
		AssetListSource:      envOr(prefix+"ASSET_LIST_SOURCE", defaultAssetListSource),
		NativeCurrencySymbol: envOr("SOLSWAP_NATIVE_SYMBOL", "SOL"),
		AllowedSlippage:      envOr(prefix+"ALLOWED_SLIPPAGE", defaultSlippage),
		MaxCachedInstances:   defaultMaxInstances,
	}

	capacity, err := MaxInstances()
	if err != nil {
		return nil, err
	}
	cfg.MaxCachedInstances = capacity

	// a staked endpoint is optional; fall back to the public node so the
	// PriorityNode channel still resolves to something sendable
	if cfg.StakedNodeURL == "" {
		cfg.StakedNodeURL = cfg.NodeURL
	}

	return cfg, nil
}

// MaxInstances reads the registry capacity from SOLSWAP_MAX_INSTANCES. The
// capacity is process-wide, not per network.
func MaxInstances() (int, error) {
	v := os.Getenv("SOLSWAP_MAX_INSTANCES")
	if v == "" {
		return defaultMaxInstances, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid SOLSWAP_MAX_INSTANCES %q", v)
	}
	return n, nil
}

// Slippage parses the allowed-slippage fraction into a float, e.g. "1/100"
// yields 0.01. Malformed strings yield zero slippage.
func (c *NetworkConfig) Slippage() float64 {
	m := percentFraction.FindStringSubmatch(strings.TrimSpace(c.AllowedSlippage))
	if m == nil {
		return 0
	}
	num, err1 := strconv.ParseFloat(m[1], 64)
	den, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// SlippageBps returns the allowed slippage in basis points.
func (c *NetworkConfig) SlippageBps() int {
	return int(c.Slippage() * 10000)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
