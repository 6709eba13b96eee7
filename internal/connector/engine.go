package connector

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"solswap-gateway/internal/jupiter"
	"solswap-gateway/internal/metrics"
)

const (
	defaultDecimals = 6

	// defaultSlippageBps backstops a network config with no usable
	// allowed-slippage fraction.
	defaultSlippageBps = 50
)

// Price turns a trade request into a normalized quote. BUY quotes are
// requested ExactOut with the quote asset as input; SELL quotes ExactIn with
// the base asset as input. The raw amount is always scaled by the base
// asset's decimals regardless of side; callers depend on that contract.
func (c *Connector) Price(ctx context.Context, req PriceRequest) (*Quote, error) {
	started := time.Now()

	baseSym := strings.ReplaceAll(req.Base, "_", "")
	quoteSym := strings.ReplaceAll(req.Quote, "_", "")

	baseAsset, okBase := c.tokens.Get(baseSym)
	quoteAsset, okQuote := c.tokens.Get(quoteSym)
	if !okBase || !okQuote {
		return nil, fmt.Errorf("%w: %s-%s", ErrInvalidToken, baseSym, quoteSym)
	}

	isBuy := req.Side == SideBuy
	assetIn, assetOut := baseAsset, quoteAsset
	swapMode := jupiter.SwapModeExactIn
	if isBuy {
		assetIn, assetOut = quoteAsset, baseAsset
		swapMode = jupiter.SwapModeExactOut
	}

	rawAmount, err := scaleToRaw(req.Amount, baseAsset.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", req.Amount, err)
	}

	slippageBps := req.SlippageBps
	if slippageBps <= 0 {
		slippageBps = c.cfg.SlippageBps()
	}
	if slippageBps <= 0 {
		slippageBps = defaultSlippageBps
	}

	onlyDirect := true
	if req.OnlyDirectRoutes != nil {
		onlyDirect = *req.OnlyDirectRoutes
	}

	resp, err := c.jup.Quote(ctx, jupiter.QuoteParams{
		InputMint:                  assetIn.Address,
		OutputMint:                 assetOut.Address,
		Amount:                     rawAmount,
		SwapMode:                   swapMode,
		SlippageBps:                slippageBps,
		OnlyDirectRoutes:           onlyDirect,
		RestrictIntermediateTokens: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	price, err := derivePrice(resp.InAmount, resp.OutAmount, assetIn.Decimals, assetOut.Decimals, isBuy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	latency := time.Since(started)
	metrics.QuotesTotal.WithLabelValues(string(req.Side)).Inc()
	metrics.QuoteLatency.Observe(latency.Seconds())

	c.log.Info("quote",
		zap.String("pair", baseSym+"-"+quoteSym),
		zap.String("side", string(req.Side)),
		zap.Float64("price", price),
		zap.Duration("took", latency))

	return &Quote{
		Base:           baseSym,
		Quote:          quoteSym,
		Side:           req.Side,
		InputMint:      assetIn.Address,
		OutputMint:     assetOut.Address,
		RawInAmount:    resp.InAmount,
		RawOutAmount:   resp.OutAmount,
		DecimalsIn:     assetIn.Decimals,
		DecimalsOut:    assetOut.Decimals,
		Price:          price,
		ExpectedAmount: resp.OutAmount,
		Payload:        resp,
		Timestamp:      started,
		LatencyMs:      latency.Milliseconds(),
	}, nil
}

// scaleToRaw converts a human amount into smallest units.
func scaleToRaw(amount string, decimals uint8) (uint64, error) {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative amount")
	}
	return uint64(math.Round(v * math.Pow10(int(decimals)))), nil
}

// scaleFromRaw converts smallest units back to a human amount.
func scaleFromRaw(raw string, decimals uint8) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return v / math.Pow10(int(decimals)), nil
}

// derivePrice computes quote units per base unit from the raw amounts, each
// scaled by its own asset's decimals. Unknown decimals default to 6.
func derivePrice(rawIn, rawOut string, decIn, decOut uint8, isBuy bool) (float64, error) {
	in, err := scaleFromRaw(rawIn, orDefault(decIn))
	if err != nil {
		return 0, fmt.Errorf("bad inAmount %q: %w", rawIn, err)
	}
	out, err := scaleFromRaw(rawOut, orDefault(decOut))
	if err != nil {
		return 0, fmt.Errorf("bad outAmount %q: %w", rawOut, err)
	}
	if in <= 0 || out <= 0 {
		return 0, fmt.Errorf("non-positive amounts in=%v out=%v", in, out)
	}
	if isBuy {
		return in / out, nil
	}
	return out / in, nil
}

func orDefault(d uint8) uint8 {
	if d == 0 {
		return defaultDecimals
	}
	return d
}
