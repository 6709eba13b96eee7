package jupiter

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gagliardetto/solana-go"
)

// Swap modes understood by the quote endpoint.
const (
	SwapModeExactIn  = "ExactIn"
	SwapModeExactOut = "ExactOut"
)

// QuoteParams are the inputs to the quote endpoint.
type QuoteParams struct {
	InputMint                  string
	OutputMint                 string
	Amount                     uint64 // smallest units
	SwapMode                   string
	SlippageBps                int
	OnlyDirectRoutes           bool
	RestrictIntermediateTokens bool
}

// QuoteResponse is the parsed quote plus the raw payload. The raw payload is
// replayed verbatim to the swap endpoints; the aggregator treats it as opaque
// route state.
type QuoteResponse struct {
	InputMint   string `json:"inputMint"`
	OutputMint  string `json:"outputMint"`
	InAmount    string `json:"inAmount"`
	OutAmount   string `json:"outAmount"`
	SwapMode    string `json:"swapMode"`
	SlippageBps int    `json:"slippageBps"`

	Raw json.RawMessage `json:"-"`
}

// AccountMeta mirrors the aggregator's instruction account encoding.
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// Instruction is one aggregator-built instruction: program, accounts and
// base64 data.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"`
}

// Compile converts an aggregator instruction into a sendable one.
func (ix *Instruction) Compile() (solana.Instruction, error) {
	program, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, err
	}

	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, a := range ix.Accounts {
		key, err := solana.PublicKeyFromBase58(a.Pubkey)
		if err != nil {
			return nil, err
		}
		metas = append(metas, solana.NewAccountMeta(key, a.IsWritable, a.IsSigner))
	}

	data, err := base64.StdEncoding.DecodeString(ix.Data)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(program, metas, data), nil
}

// SwapInstructionsRequest is the body sent to the swap-instructions endpoint.
type SwapInstructionsRequest struct {
	QuoteResponse             json.RawMessage        `json:"quoteResponse"`
	UserPublicKey             string                 `json:"userPublicKey"`
	WrapAndUnwrapSol          bool                   `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool                   `json:"dynamicComputeUnitLimit"`
	DynamicSlippage           *DynamicSlippage       `json:"dynamicSlippage,omitempty"`
	PrioritizationFeeLamports map[string]interface{} `json:"prioritizationFeeLamports,omitempty"`
	SkipUserAccountsRPCCalls  bool                   `json:"skipUserAccountsRpcCalls"`
}

// DynamicSlippage caps aggregator-side slippage adjustment.
type DynamicSlippage struct {
	MaxBps int `json:"maxBps"`
}

// SwapInstructionsResponse carries the instruction set for one swap. Optional
// legs (token ledger, setup, cleanup) may be absent.
type SwapInstructionsResponse struct {
	TokenLedgerInstruction      *Instruction  `json:"tokenLedgerInstruction"`
	ComputeBudgetInstructions   []Instruction `json:"computeBudgetInstructions"`
	SetupInstructions           []Instruction `json:"setupInstructions"`
	SwapInstruction             *Instruction  `json:"swapInstruction"`
	CleanupInstruction          *Instruction  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string      `json:"addressLookupTableAddresses"`
}

// SwapRequest is the body for the prebuilt-transaction endpoint.
type SwapRequest struct {
	QuoteResponse             json.RawMessage        `json:"quoteResponse"`
	UserPublicKey             string                 `json:"userPublicKey"`
	WrapAndUnwrapSol          bool                   `json:"wrapAndUnwrapSol"`
	PrioritizationFeeLamports map[string]interface{} `json:"prioritizationFeeLamports,omitempty"`
}

// SwapResponse is the prebuilt transaction returned by the swap endpoint.
type SwapResponse struct {
	SwapTransaction      string `json:"swapTransaction"` // base64
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	ComputeUnitLimit     uint64 `json:"computeUnitLimit"`
}
