// Package jupiter is a REST client for the swap aggregator's quote and
// transaction-build endpoints.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	base string
	http *http.Client
	log  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient swaps the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(baseURL string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		base: baseURL,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log.Named("jupiter"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Quote asks the aggregator for the best route. The returned response keeps
// the raw payload so it can be replayed to the swap endpoints unchanged.
func (c *Client) Quote(ctx context.Context, p QuoteParams) (*QuoteResponse, error) {
	q := url.Values{}
	q.Set("inputMint", p.InputMint)
	q.Set("outputMint", p.OutputMint)
	q.Set("amount", strconv.FormatUint(p.Amount, 10))
	q.Set("swapMode", p.SwapMode)
	q.Set("slippageBps", strconv.Itoa(p.SlippageBps))
	q.Set("onlyDirectRoutes", strconv.FormatBool(p.OnlyDirectRoutes))
	q.Set("restrictIntermediateTokens", strconv.FormatBool(p.RestrictIntermediateTokens))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var out QuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	out.Raw = body

	return &out, nil
}

// SwapInstructions asks the aggregator to turn an accepted quote into a raw
// instruction set for local assembly.
func (c *Client) SwapInstructions(ctx context.Context, r SwapInstructionsRequest) (*SwapInstructionsResponse, error) {
	body, err := c.post(ctx, "/swap-instructions", r)
	if err != nil {
		return nil, err
	}

	var out SwapInstructionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode swap instructions: %w", err)
	}
	return &out, nil
}

// Swap asks the aggregator for a fully built, unsigned transaction.
func (c *Client) Swap(ctx context.Context, r SwapRequest) (*SwapResponse, error) {
	body, err := c.post(ctx, "/swap", r)
	if err != nil {
		return nil, err
	}

	var out SwapResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode swap: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.log.Debug("aggregator call",
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aggregator status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
