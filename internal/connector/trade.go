package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solswap-gateway/internal/store"
)

// PriceQuote answers the gateway's price endpoint.
func (c *Connector) PriceQuote(ctx context.Context, req PriceRequest) (*PriceResult, error) {
	q, err := c.Price(ctx, req)
	if err != nil {
		return nil, err
	}

	return &PriceResult{
		Network:        c.cfg.Name,
		Timestamp:      q.Timestamp,
		LatencyMs:      q.LatencyMs,
		Base:           q.Base,
		Quote:          q.Quote,
		Amount:         req.Amount,
		RawAmount:      q.RawInAmount,
		ExpectedAmount: q.ExpectedAmount,
		Price:          decimal.NewFromFloat(q.Price).String(),
		GasPriceToken:  c.cfg.NativeCurrencySymbol,
	}, nil
}

// Trade executes a swap end to end: quote (or a caller-supplied one), limit
// guard, build-and-sign, one-channel dispatch, confirmation. A confirmation
// Timeout is reported in the result, not as an error; the caller must treat
// it as unknown outcome.
func (c *Connector) Trade(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	started := time.Now()
	attempt := uuid.NewString()
	log := c.log.With(
		zap.String("attempt", attempt),
		zap.String("pair", req.Base+"-"+req.Quote),
		zap.String("side", string(req.Side)))

	quote := req.PriceResponse
	if quote == nil {
		var err error
		quote, err = c.Price(ctx, req.PriceRequest)
		if err != nil {
			return nil, err
		}
	}
	if quote.Payload == nil {
		return nil, ErrInvalidTradeResponse
	}

	if err := checkLimitPrice(req.Side, quote.Price, req.LimitPrice); err != nil {
		log.Warn("limit price guard rejected trade",
			zap.Float64("estimated", quote.Price),
			zap.String("limit", req.LimitPrice))
		return nil, err
	}

	build := c.BuildAndSign
	if req.Prebuilt {
		build = c.BuildPrebuilt
	}
	signed, err := build(ctx, quote, req.Signer, req.Plan)
	if err != nil {
		return nil, fmt.Errorf("trade %s-%s %s: %w", req.Base, req.Quote, req.Amount, err)
	}

	rec, err := c.Submit(ctx, signed, req.Plan)
	if err != nil {
		return nil, fmt.Errorf("trade %s-%s %s: %w", req.Base, req.Quote, req.Amount, err)
	}

	c.recordSubmission(ctx, attempt, quote, rec)

	outcome, err := c.Confirm(ctx, rec, signed)
	if err != nil {
		status := string(OutcomeFailed)
		if errors.Is(err, ErrBlockhashExpired) {
			status = string(OutcomeExpired)
		}
		c.recordOutcome(ctx, attempt, status, 0)
		return nil, fmt.Errorf("trade %s-%s %s via %s: %w",
			req.Base, req.Quote, req.Amount, rec.Channel, err)
	}
	c.recordOutcome(ctx, attempt, string(outcome.Status), outcome.LandedSlot)

	log.Info("trade finished",
		zap.Stringer("signature", rec.Signature),
		zap.String("outcome", string(outcome.Status)),
		zap.Duration("took", time.Since(started)))

	return &TradeResult{
		Network:        c.cfg.Name,
		Timestamp:      started,
		LatencyMs:      time.Since(started).Milliseconds(),
		Base:           quote.Base,
		Quote:          quote.Quote,
		Amount:         req.Amount,
		ExpectedAmount: quote.ExpectedAmount,
		Price:          decimal.NewFromFloat(quote.Price).String(),
		TxHash:         rec.Signature.String(),
		Channel:        rec.Channel.String(),
		Outcome:        outcome,
		Attempt:        attempt,
	}, nil
}

// checkLimitPrice rejects a trade whose estimated price breaches the
// caller's limit: a BUY must not pay more than the limit, a SELL must not
// receive less. No limit never fails.
func checkLimitPrice(side Side, estimated float64, limit string) error {
	if limit == "" {
		return nil
	}

	lim, err := decimal.NewFromString(limit)
	if err != nil {
		return fmt.Errorf("invalid limit price %q: %w", limit, err)
	}
	est := decimal.NewFromFloat(estimated)

	if side == SideBuy && est.GreaterThan(lim) {
		return fmt.Errorf("%w: estimated %s, limit %s", ErrLimitPriceExceeded, est, lim)
	}
	if side == SideSell && est.LessThan(lim) {
		return fmt.Errorf("%w: estimated %s, limit %s", ErrLimitPriceNotMet, est, lim)
	}
	return nil
}

func (c *Connector) recordSubmission(ctx context.Context, attempt string, q *Quote, rec *SubmissionRecord) {
	if c.trades == nil {
		return
	}
	err := c.trades.RecordSubmission(ctx, store.Submission{
		Attempt:       attempt,
		Network:       c.cfg.Name,
		Base:          q.Base,
		Quote:         q.Quote,
		Side:          string(q.Side),
		Price:         q.Price,
		Channel:       rec.Channel.String(),
		Signature:     rec.Signature.String(),
		SubmittedSlot: rec.SubmittedSlot,
	})
	if err != nil {
		c.log.Warn("trade history insert failed", zap.Error(err))
	}
}

func (c *Connector) recordOutcome(ctx context.Context, attempt, status string, landedSlot uint64) {
	if c.trades == nil {
		return
	}
	if err := c.trades.RecordOutcome(ctx, attempt, status, landedSlot); err != nil {
		c.log.Warn("trade history update failed", zap.Error(err))
	}
}
