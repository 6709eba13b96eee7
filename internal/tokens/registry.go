// Package tokens resolves trading symbols to on-chain asset descriptors.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Asset is one resolvable token: its mint address and on-chain decimals.
type Asset struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// wellKnown seeds the registry so the gateway can quote the majors even when
// the remote asset list is unreachable.
var wellKnown = []Asset{
	{Symbol: "SOL", Address: "So11111111111111111111111111111111111111112", Decimals: 9},
	{Symbol: "USDC", Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6},
	{Symbol: "USDT", Address: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Decimals: 6},
}

// Registry maps upper-cased symbols to assets. Safe for concurrent reads
// after Load; Load replaces the whole map under the lock.
type Registry struct {
	source string
	client *http.Client
	log    *zap.Logger

	mu     sync.RWMutex
	assets map[string]Asset
}

func NewRegistry(source string, log *zap.Logger) *Registry {
	r := &Registry{
		source: source,
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log.Named("tokens"),
		assets: make(map[string]Asset),
	}
	r.seed()
	return r
}

func (r *Registry) seed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range wellKnown {
		r.assets[a.Symbol] = a
	}
}

// Load fetches the asset list from the configured source, retrying transient
// failures with exponential backoff. The built-in seed entries survive a
// failed load.
func (r *Registry) Load(ctx context.Context) error {
	if r.source == "" {
		return nil
	}

	var fetched []Asset
	op := func() error {
		var err error
		fetched, err = r.fetch(ctx)
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return fmt.Errorf("load asset list: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range fetched {
		sym := strings.ToUpper(a.Symbol)
		if sym == "" || a.Address == "" {
			continue
		}
		a.Symbol = sym
		r.assets[sym] = a
	}

	r.log.Info("asset list loaded", zap.Int("count", len(fetched)))
	return nil
}

func (r *Registry) fetch(ctx context.Context) ([]Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.source, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset list status %d", resp.StatusCode)
	}

	var out []Asset
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get resolves a symbol, case-insensitively. The second return reports
// whether the symbol is known.
func (r *Registry) Get(symbol string) (Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[strings.ToUpper(symbol)]
	return a, ok
}

// Len reports the number of resolvable symbols.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.assets)
}
