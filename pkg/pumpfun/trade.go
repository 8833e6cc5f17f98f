package pumpfun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTradeURL is the PumpPortal local-transaction endpoint.
const DefaultTradeURL = "https://pumpportal.fun/api/trade-local"

// Pump tokens use 6 decimals; SOL uses 9.
const (
	tokenDecimals = 6
	solDecimals   = 9
)

// Action is a trade direction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Signer signs and submits the transaction PumpPortal returns.
type Signer interface {
	PublicKeyString() string
	SignAndSendRaw(ctx context.Context, txBytes []byte) (string, error)
	WaitForConfirmation(ctx context.Context, signature string) error
}

// TraderConfig contains configuration for the trade client.
type TraderConfig struct {
	TradeURL    string
	SlippagePct int
	PriorityFee float64 // In SOL
	Pool        string
	HTTPClient  *http.Client
}

// Trader buys and sells through PumpPortal's trade-local endpoint.
type Trader struct {
	httpClient  *http.Client
	tradeURL    string
	slippagePct int
	priorityFee float64
	pool        string
	signer      Signer
}

// NewTrader creates a PumpPortal trade client that signs with signer.
func NewTrader(config *TraderConfig, signer Signer) *Trader {
	if config == nil {
		config = &TraderConfig{}
	}

	tradeURL := config.TradeURL
	if tradeURL == "" {
		tradeURL = DefaultTradeURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	slippage := config.SlippagePct
	if slippage <= 0 {
		slippage = 10
	}
	pool := config.Pool
	if pool == "" {
		pool = "pump"
	}

	return &Trader{
		httpClient:  httpClient,
		tradeURL:    tradeURL,
		slippagePct: slippage,
		priorityFee: config.PriorityFee,
		pool:        pool,
		signer:      signer,
	}
}

// tradeRequest is the trade-local request body.
type tradeRequest struct {
	PublicKey        string      `json:"publicKey"`
	Action           Action      `json:"action"`
	Mint             string      `json:"mint"`
	Amount           json.Number `json:"amount"`
	DenominatedInSol string      `json:"denominatedInSol"`
	Slippage         int         `json:"slippage"`
	PriorityFee      float64     `json:"priorityFee"`
	Pool             string      `json:"pool"`
}

// Trade builds a PumpPortal transaction, signs it, submits it and waits for
// confirmation. Buys spend amount lamports; sells sell amount token base units.
func (t *Trader) Trade(ctx context.Context, mint string, action Action, amount uint64) (string, error) {
	if mint == "" {
		return "", fmt.Errorf("token mint is required")
	}
	if amount == 0 {
		return "", fmt.Errorf("amount must be positive")
	}
	if action != ActionBuy && action != ActionSell {
		return "", fmt.Errorf("unknown trade action %q", action)
	}

	req := tradeRequest{
		PublicKey:   t.signer.PublicKeyString(),
		Action:      action,
		Mint:        mint,
		Slippage:    t.slippagePct,
		PriorityFee: t.priorityFee,
		Pool:        t.pool,
	}
	if action == ActionBuy {
		req.Amount = json.Number(decimal.New(int64(amount), -solDecimals).String())
		req.DenominatedInSol = "true"
	} else {
		req.Amount = json.Number(decimal.New(int64(amount), -tokenDecimals).String())
		req.DenominatedInSol = "false"
	}

	txBytes, err := t.buildTransaction(ctx, &req)
	if err != nil {
		return "", err
	}

	sig, err := t.signer.SignAndSendRaw(ctx, txBytes)
	if err != nil {
		return "", fmt.Errorf("pump.fun %s failed: %w", action, err)
	}
	if err := t.signer.WaitForConfirmation(ctx, sig); err != nil {
		return sig, fmt.Errorf("pump.fun %s not confirmed: %w", action, err)
	}

	return sig, nil
}

func (t *Trader) buildTransaction(ctx context.Context, body *tradeRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tradeURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PumpPortal API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	if len(respBody) == 0 {
		return nil, fmt.Errorf("PumpPortal returned an empty transaction")
	}

	return respBody, nil
}
