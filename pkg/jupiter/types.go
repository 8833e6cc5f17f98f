package jupiter

import "strings"

// QuoteParams contains the parameters for requesting a quote from Jupiter.
type QuoteParams struct {
	InputMint   string // Input token mint address
	OutputMint  string // Output token mint address
	Amount      uint64 // Amount in smallest units (lamports/base units)
	SlippageBps int    // Slippage tolerance in basis points
	SwapMode    string // "ExactIn" or "ExactOut"
}

// QuoteResponse contains the response from Jupiter's quote API.
type QuoteResponse struct {
	InputMint            string      `json:"inputMint"`
	InAmount             string      `json:"inAmount"`
	OutputMint           string      `json:"outputMint"`
	OutAmount            string      `json:"outAmount"`
	OtherAmountThreshold string      `json:"otherAmountThreshold"`
	SwapMode             string      `json:"swapMode"`
	SlippageBps          int         `json:"slippageBps"`
	PriceImpactPct       string      `json:"priceImpactPct"`
	RoutePlan            []RoutePlan `json:"routePlan"`
	ContextSlot          int64       `json:"contextSlot,omitempty"`
	TimeTaken            float64     `json:"timeTaken,omitempty"`
}

// RoutePlan describes a single step in the swap route.
type RoutePlan struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

// SwapInfo contains details about a swap step.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// SwapParams contains the parameters for building a swap transaction.
type SwapParams struct {
	QuoteResponse             *QuoteResponse `json:"quoteResponse"`
	UserPublicKey             string         `json:"userPublicKey"`
	WrapAndUnwrapSol          bool           `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool           `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports interface{}    `json:"prioritizationFeeLamports,omitempty"` // "auto" or lamports
}

// SwapResponse contains the response from Jupiter's swap API.
type SwapResponse struct {
	SwapTransaction           string `json:"swapTransaction"` // Base64-encoded transaction
	LastValidBlockHeight      int64  `json:"lastValidBlockHeight"`
	PrioritizationFeeLamports int64  `json:"prioritizationFeeLamports,omitempty"`
	ComputeUnitLimit          int    `json:"computeUnitLimit,omitempty"`
}

// Well-known Solana token mint addresses (mainnet).
const (
	SOLMint  = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// MintForSymbol resolves the exit-target symbols the engine accepts.
func MintForSymbol(symbol string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(symbol)) {
	case "SOL":
		return SOLMint, true
	case "USDC":
		return USDCMint, true
	}
	return "", false
}
