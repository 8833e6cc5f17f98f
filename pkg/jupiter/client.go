// Package jupiter provides a client for the Jupiter aggregator API on Solana.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the Jupiter Lite API endpoint.
	DefaultBaseURL = "https://lite-api.jup.ag/swap/v1"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSlippageBps is the slippage applied when a caller does not specify one.
	DefaultSlippageBps = 50

	// SwapModeExactIn specifies exact input amount.
	SwapModeExactIn = "ExactIn"
)

// ErrNoRoute is returned when Jupiter has no route for the requested pair.
var ErrNoRoute = errors.New("no route found")

// Client is a Jupiter API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string // Optional: for the keyed API
}

// ClientConfig contains configuration for the Jupiter client.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new Jupiter API client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     config.APIKey,
	}
}

// GetQuote fetches a swap quote from Jupiter.
func (c *Client) GetQuote(ctx context.Context, params *QuoteParams) (*QuoteResponse, error) {
	if params == nil || params.InputMint == "" || params.OutputMint == "" {
		return nil, fmt.Errorf("inputMint and outputMint are required")
	}
	if params.Amount == 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	query := url.Values{}
	query.Set("inputMint", params.InputMint)
	query.Set("outputMint", params.OutputMint)
	query.Set("amount", strconv.FormatUint(params.Amount, 10))

	slippage := params.SlippageBps
	if slippage <= 0 {
		slippage = DefaultSlippageBps
	}
	query.Set("slippageBps", strconv.Itoa(slippage))

	if params.SwapMode != "" {
		query.Set("swapMode", params.SwapMode)
	}

	requestURL := fmt.Sprintf("%s/quote?%s", c.baseURL, query.Encode())

	var quote QuoteResponse
	if err := c.do(ctx, http.MethodGet, requestURL, nil, &quote); err != nil {
		return nil, err
	}

	// Jupiter answers 200 with an empty plan when it cannot route the pair
	if quote.OutAmount == "" || len(quote.RoutePlan) == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoRoute, params.InputMint, params.OutputMint)
	}

	return &quote, nil
}

// BuildSwapTransaction builds an unsigned swap transaction from a quote.
func (c *Client) BuildSwapTransaction(ctx context.Context, params *SwapParams) (*SwapResponse, error) {
	if params == nil || params.QuoteResponse == nil {
		return nil, fmt.Errorf("quoteResponse is required")
	}
	if params.UserPublicKey == "" {
		return nil, fmt.Errorf("userPublicKey is required")
	}

	jsonBody, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var swap SwapResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/swap", jsonBody, &swap); err != nil {
		return nil, err
	}
	if swap.SwapTransaction == "" {
		return nil, fmt.Errorf("Jupiter returned an empty swap transaction")
	}

	return &swap, nil
}

// Price returns the quoted exchange rate for amount units of inputMint, as
// output base units per input base unit.
func (c *Client) Price(ctx context.Context, inputMint, outputMint string, amount uint64) (float64, error) {
	quote, err := c.GetQuote(ctx, &QuoteParams{
		InputMint:  inputMint,
		OutputMint: outputMint,
		Amount:     amount,
		SwapMode:   SwapModeExactIn,
	})
	if err != nil {
		return 0, err
	}
	return quote.Rate()
}

// Rate returns outAmount / inAmount for the quote.
func (q *QuoteResponse) Rate() (float64, error) {
	in, err := decimal.NewFromString(q.InAmount)
	if err != nil {
		return 0, fmt.Errorf("failed to parse input amount: %w", err)
	}
	out, err := decimal.NewFromString(q.OutAmount)
	if err != nil {
		return 0, fmt.Errorf("failed to parse output amount: %w", err)
	}
	if !in.IsPositive() {
		return 0, fmt.Errorf("quote has non-positive input amount %s", q.InAmount)
	}

	rate, _ := out.Div(in).Float64()
	return rate, nil
}

// do executes a request against the Jupiter API and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, requestURL string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Jupiter API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
