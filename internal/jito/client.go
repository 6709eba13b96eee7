// Package jito is a JSON-RPC client for the private block-engine relay:
// tip-account discovery, transaction/bundle submission and bounded
// bundle-status polling.
package jito

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNoTipAccounts is returned when the relay reports no live tip accounts.
var ErrNoTipAccounts = errors.New("no tip accounts available")

// Terminal and transient bundle states.
const (
	StatusPending = "Pending"
	StatusLanded  = "Landed"
	StatusFailed  = "Failed"
	StatusTimeout = "Timeout"
)

// DefaultConfirmTimeout bounds ConfirmBundle when the caller passes zero.
const DefaultConfirmTimeout = 60 * time.Second

const defaultPollInterval = 2 * time.Second

// TipAccount is one relay tip destination.
type TipAccount struct {
	Pubkey   string `json:"pubkey"`
	Lamports uint64 `json:"lamports"`
}

// BundleStatus is the relay's view of one bundle, coarse (in-flight) or
// detailed.
type BundleStatus struct {
	BundleID     string          `json:"bundle_id"`
	Status       string          `json:"status"`
	LandedSlot   uint64          `json:"landed_slot"`
	Transactions []string        `json:"transactions"`
	Err          json.RawMessage `json:"err"`
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("relay rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// Client talks JSON-RPC 2.0 to the relay. All calls are POSTs against the
// /bundles or /transactions path, optionally suffixed with ?uuid=<id>.
type Client struct {
	baseURL      string
	uuid         string
	http         *http.Client
	log          *zap.Logger
	pollInterval time.Duration
}

type Option func(*Client)

// WithUUID appends the relay auth uuid to every endpoint.
func WithUUID(id string) Option {
	return func(c *Client) { c.uuid = id }
}

// WithHTTPClient swaps the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPollInterval overrides the 2s bundle-status poll cadence (tests).
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

func NewClient(baseURL string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		http:         &http.Client{Timeout: 10 * time.Second},
		log:          log.Named("jito"),
		pollInterval: defaultPollInterval,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) endpoint(path string, query string) string {
	u := c.baseURL + path
	sep := "?"
	if query != "" {
		u += sep + query
		sep = "&"
	}
	if c.uuid != "" {
		u += sep + "uuid=" + c.uuid
	}
	return u
}

func (c *Client) call(ctx context.Context, url, method string, params []interface{}, out interface{}) error {
	if params == nil {
		params = []interface{}{}
	}

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var rr rpcResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return fmt.Errorf("decode relay response: %w", err)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if out != nil && rr.Result != nil {
		return json.Unmarshal(rr.Result, out)
	}
	return nil
}

// GetTipAccounts returns the relay's live tip accounts.
func (c *Client) GetTipAccounts(ctx context.Context) ([]TipAccount, error) {
	var out []TipAccount
	if err := c.call(ctx, c.endpoint("/bundles", ""), "getTipAccounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RandomTipAccount picks uniformly from the live tip-account list, so no
// single account becomes a hotspot.
func (c *Client) RandomTipAccount(ctx context.Context) (TipAccount, error) {
	accounts, err := c.GetTipAccounts(ctx)
	if err != nil {
		return TipAccount{}, err
	}
	if len(accounts) == 0 {
		return TipAccount{}, ErrNoTipAccounts
	}
	return accounts[rand.Intn(len(accounts))], nil
}

// SendTransaction submits one base58-encoded signed transaction through the
// relay. The result is the ledger signature, not a bundle id.
func (c *Client) SendTransaction(ctx context.Context, base58Tx string, bundleOnly bool) (string, error) {
	query := ""
	if bundleOnly {
		query = "bundleOnly=true"
	}

	var sig string
	err := c.call(ctx, c.endpoint("/transactions", query), "sendTransaction", []interface{}{base58Tx}, &sig)
	if err != nil {
		return "", err
	}
	return sig, nil
}

// SendBundle submits an atomic group of signed transactions and returns the
// bundle id.
func (c *Client) SendBundle(ctx context.Context, base58Txs []string) (string, error) {
	var id string
	err := c.call(ctx, c.endpoint("/bundles", ""), "sendBundle", []interface{}{base58Txs}, &id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetBundleStatuses returns detailed statuses for landed bundles.
func (c *Client) GetBundleStatuses(ctx context.Context, bundleIDs []string) ([]BundleStatus, error) {
	return c.statuses(ctx, "getBundleStatuses", bundleIDs)
}

// GetInflightBundleStatuses returns coarse statuses for recently submitted
// bundles; the relay only tracks a bundle for a few minutes.
func (c *Client) GetInflightBundleStatuses(ctx context.Context, bundleIDs []string) ([]BundleStatus, error) {
	return c.statuses(ctx, "getInflightBundleStatuses", bundleIDs)
}

func (c *Client) statuses(ctx context.Context, method string, bundleIDs []string) ([]BundleStatus, error) {
	var out struct {
		Value []BundleStatus `json:"value"`
	}
	err := c.call(ctx, c.endpoint("/bundles", ""), method, []interface{}{bundleIDs}, &out)
	if err != nil {
		return nil, err
	}
	return out.Value, nil
}

// ConfirmBundle polls the in-flight status of one bundle until it lands,
// fails, or the timeout elapses. Transport errors on individual polls are
// logged and the loop continues; a missing status means the bundle is not yet
// visible (or already too old to track) and is likewise not an error. The
// caller's context cancels the loop immediately.
func (c *Client) ConfirmBundle(ctx context.Context, bundleID string, timeout time.Duration) (BundleStatus, error) {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return BundleStatus{}, err
		}
		if !time.Now().Before(deadline) {
			c.log.Warn("bundle did not reach a final state",
				zap.String("bundle", bundleID), zap.Duration("timeout", timeout))
			return BundleStatus{BundleID: bundleID, Status: StatusTimeout}, nil
		}

		statuses, err := c.GetInflightBundleStatuses(ctx, []string{bundleID})
		switch {
		case err != nil:
			c.log.Warn("bundle status poll failed", zap.String("bundle", bundleID), zap.Error(err))
		case len(statuses) == 0:
			c.log.Debug("no status for bundle yet", zap.String("bundle", bundleID))
		default:
			st := statuses[0]
			switch st.Status {
			case StatusFailed:
				return st, nil
			case StatusLanded:
				return c.detailedOrCoarse(ctx, bundleID, st), nil
			}
			// anything else: still in flight, keep polling
		}

		select {
		case <-ctx.Done():
			return BundleStatus{}, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// detailedOrCoarse upgrades a landed coarse status with per-transaction
// detail when the relay has it; the coarse status already proves landing.
func (c *Client) detailedOrCoarse(ctx context.Context, bundleID string, coarse BundleStatus) BundleStatus {
	detailed, err := c.GetBundleStatuses(ctx, []string{bundleID})
	if err != nil || len(detailed) == 0 {
		c.log.Debug("no detailed status for landed bundle", zap.String("bundle", bundleID))
		return coarse
	}
	return detailed[0]
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
