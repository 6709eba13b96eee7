package connector

import "errors"

// Failure taxonomy. Quote and build failures abort a trade attempt outright;
// submission failures surface to the caller and are never retried on another
// channel; confirmation timeouts are a status, not an error.
var (
	ErrInvalidNetwork       = errors.New("invalid network")
	ErrInvalidToken         = errors.New("token not resolvable on chain")
	ErrQuoteUnavailable     = errors.New("aggregator quote unavailable")
	ErrInvalidTradeResponse = errors.New("quote payload missing aggregator route")
	ErrLimitPriceExceeded   = errors.New("swap price exceeds limit price")
	ErrLimitPriceNotMet     = errors.New("swap price below limit price")
	ErrBlockhashExpired     = errors.New("blockhash expired before confirmation")
)
