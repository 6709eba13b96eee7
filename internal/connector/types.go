package connector

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"solswap-gateway/internal/jupiter"
)

// Side of a trade, from the caller's perspective of the base asset.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PriceRequest asks for a quote on a symbol pair.
type PriceRequest struct {
	Base   string
	Quote  string
	Side   Side
	Amount string // human units of the base asset

	// SlippageBps overrides the network's configured slippage cap when > 0.
	SlippageBps int

	// OnlyDirectRoutes restricts routing to single-hop routes. Nil means the
	// default (true).
	OnlyDirectRoutes *bool
}

// Quote is a normalized aggregator quote. Immutable once produced; consumed
// at most once by the builder.
type Quote struct {
	Base  string
	Quote string
	Side  Side

	InputMint    string
	OutputMint   string
	RawInAmount  string
	RawOutAmount string
	DecimalsIn   uint8
	DecimalsOut  uint8

	// Price is quote units per base unit, derived from the raw amounts.
	Price float64

	// ExpectedAmount is the raw outAmount in smallest units.
	ExpectedAmount string

	// Payload is the aggregator's opaque route, replayed to the build
	// endpoint.
	Payload *jupiter.QuoteResponse

	Timestamp time.Time
	LatencyMs int64
}

// SignedTx is a compiled, signed transaction bound to the blockhash it was
// built against. Valid for submission only until that blockhash expires.
type SignedTx struct {
	Tx                   *solana.Transaction
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Signature returns the fee payer's signature.
func (s *SignedTx) Signature() solana.Signature {
	if s.Tx == nil || len(s.Tx.Signatures) == 0 {
		return solana.Signature{}
	}
	return s.Tx.Signatures[0]
}

// SubmissionRecord is produced by the dispatcher and consumed by the
// confirmation watcher.
type SubmissionRecord struct {
	Channel       Channel
	Signature     solana.Signature
	SubmittedSlot uint64
	SubmittedAt   time.Time
}

// OutcomeStatus is the terminal state of a confirmation wait.
type OutcomeStatus string

const (
	// OutcomeConfirmed: the transaction landed at commitment "confirmed".
	OutcomeConfirmed OutcomeStatus = "Confirmed"
	// OutcomeFailed: the transaction landed but errored on chain.
	OutcomeFailed OutcomeStatus = "Failed"
	// OutcomeTimeout: the wait expired with the outcome still unknown; the
	// transaction may yet land.
	OutcomeTimeout OutcomeStatus = "Timeout"
	// OutcomeExpired: the blockhash expired before the transaction landed;
	// it can never land now.
	OutcomeExpired OutcomeStatus = "Expired"
)

// Outcome reports how a submission resolved. SlotDelta is diagnostic only.
type Outcome struct {
	Status     OutcomeStatus
	LandedSlot uint64
	SlotDelta  uint64
	ChainErr   string
}

// TradeRequest executes a swap end to end.
type TradeRequest struct {
	PriceRequest

	Signer solana.PrivateKey

	// LimitPrice guards against a worse-than-expected execution price; empty
	// disables the guard.
	LimitPrice string

	// Prebuilt asks the aggregator for a fully built transaction instead of
	// assembling instructions locally. The plan's fee and tip instructions
	// cannot be injected on this path; the plan still selects the channel.
	Prebuilt bool

	Plan PriorityPlan

	// PriceResponse reuses an earlier quote instead of fetching a fresh one.
	PriceResponse *Quote
}

// TradeResult is the connector's answer to a trade request.
type TradeResult struct {
	Network        string    `json:"network"`
	Timestamp      time.Time `json:"timestamp"`
	LatencyMs      int64     `json:"latency"`
	Base           string    `json:"base"`
	Quote          string    `json:"quote"`
	Amount         string    `json:"amount"`
	ExpectedAmount string    `json:"expectedAmount"`
	Price          string    `json:"price"`
	TxHash         string    `json:"txHash"`
	Channel        string    `json:"channel"`
	Outcome        *Outcome  `json:"outcome,omitempty"`

	// Attempt correlates the request's log lines and store rows.
	Attempt string `json:"attempt"`
}

// PriceResult is the connector's answer to a price request.
type PriceResult struct {
	Network        string    `json:"network"`
	Timestamp      time.Time `json:"timestamp"`
	LatencyMs      int64     `json:"latency"`
	Base           string    `json:"base"`
	Quote          string    `json:"quote"`
	Amount         string    `json:"amount"`
	RawAmount      string    `json:"rawAmount"`
	ExpectedAmount string    `json:"expectedAmount"`
	Price          string    `json:"price"`
	GasPriceToken  string    `json:"gasPriceToken"`
}
