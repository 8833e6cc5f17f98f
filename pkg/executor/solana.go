// Package executor turns Jupiter quotes into signed, confirmed Solana swaps.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/jupiter"
	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/metrics"
)

// ErrSwapFailed prefixes every swap error.
var ErrSwapFailed = errors.New("swap failed")

// QuoteClient quotes routes and builds unsigned swap transactions.
type QuoteClient interface {
	GetQuote(ctx context.Context, params *jupiter.QuoteParams) (*jupiter.QuoteResponse, error)
	BuildSwapTransaction(ctx context.Context, params *jupiter.SwapParams) (*jupiter.SwapResponse, error)
}

// TransactionSender signs, submits and confirms transactions.
type TransactionSender interface {
	PublicKeyString() string
	SignAndSendTransaction(ctx context.Context, txBase64 string) (string, error)
	WaitForConfirmation(ctx context.Context, signature string) error
}

// SwapExecutor executes swaps via Jupiter and the Solana signer.
type SwapExecutor struct {
	quotes      QuoteClient
	sender      TransactionSender
	slippageBps int
	nativeMint  string
	metrics     *metrics.Metrics
	log         *logrus.Entry
}

// SwapExecutorConfig contains configuration for the swap executor.
type SwapExecutorConfig struct {
	SlippageBps int    // Defaults to jupiter.DefaultSlippageBps
	NativeMint  string // Leg fixed by Buy/Sell; defaults to wrapped SOL
	Metrics     *metrics.Metrics
	Logger      logrus.FieldLogger
}

// NewSwapExecutor creates a new swap executor.
func NewSwapExecutor(quotes QuoteClient, sender TransactionSender, config *SwapExecutorConfig) *SwapExecutor {
	if config == nil {
		config = &SwapExecutorConfig{}
	}

	slippageBps := config.SlippageBps
	if slippageBps <= 0 {
		slippageBps = jupiter.DefaultSlippageBps
	}
	nativeMint := config.NativeMint
	if nativeMint == "" {
		nativeMint = jupiter.SOLMint
	}

	return &SwapExecutor{
		quotes:      quotes,
		sender:      sender,
		slippageBps: slippageBps,
		nativeMint:  nativeMint,
		metrics:     config.Metrics,
		log:         logging.Component(config.Logger, "executor"),
	}
}

// Swap swaps amount base units of inputMint into outputMint with the
// configured slippage and returns the confirmed transaction signature.
func (s *SwapExecutor) Swap(ctx context.Context, inputMint, outputMint string, amount uint64) (string, error) {
	return s.SwapWithSlippage(ctx, inputMint, outputMint, amount, s.slippageBps)
}

// SwapWithSlippage is Swap with an explicit slippage tolerance in basis points.
func (s *SwapExecutor) SwapWithSlippage(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (sig string, err error) {
	start := time.Now()
	defer func() { s.metrics.SwapCompleted(err) }()

	log := s.log.WithFields(logrus.Fields{
		"input_mint":  inputMint,
		"output_mint": outputMint,
		"amount":      amount,
	})

	// Validate before any network call
	if inputMint == "" || outputMint == "" {
		return "", fmt.Errorf("%w: input and output mints are required", ErrSwapFailed)
	}
	if inputMint == outputMint {
		return "", fmt.Errorf("%w: input and output mints must differ", ErrSwapFailed)
	}
	if amount == 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrSwapFailed)
	}
	if slippageBps <= 0 {
		slippageBps = s.slippageBps
	}

	// Get quote from Jupiter
	quote, err := s.quotes.GetQuote(ctx, &jupiter.QuoteParams{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		Amount:      amount,
		SlippageBps: slippageBps,
		SwapMode:    jupiter.SwapModeExactIn,
	})
	if err != nil {
		return "", fmt.Errorf("%w: quote: %w", ErrSwapFailed, err)
	}

	// Build swap transaction
	swapResp, err := s.quotes.BuildSwapTransaction(ctx, &jupiter.SwapParams{
		QuoteResponse:             quote,
		UserPublicKey:             s.sender.PublicKeyString(),
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("%w: build transaction: %w", ErrSwapFailed, err)
	}

	// Sign and send transaction
	sig, err = s.sender.SignAndSendTransaction(ctx, swapResp.SwapTransaction)
	if err != nil {
		return "", fmt.Errorf("%w: submit: %w", ErrSwapFailed, err)
	}

	if err := s.sender.WaitForConfirmation(ctx, sig); err != nil {
		return sig, fmt.Errorf("%w: confirm %s: %w", ErrSwapFailed, sig, err)
	}

	log.WithFields(logrus.Fields{
		"signature":  sig,
		"out_amount": quote.OutAmount,
		"elapsed":    time.Since(start).String(),
	}).Info("Swap confirmed")

	return sig, nil
}

// Buy spends amount of the native asset on tokenMint.
func (s *SwapExecutor) Buy(ctx context.Context, tokenMint string, amount uint64) (string, error) {
	return s.Swap(ctx, s.nativeMint, tokenMint, amount)
}

// Sell sells amount of tokenMint for the native asset.
func (s *SwapExecutor) Sell(ctx context.Context, tokenMint string, amount uint64) (string, error) {
	return s.Swap(ctx, tokenMint, s.nativeMint, amount)
}
