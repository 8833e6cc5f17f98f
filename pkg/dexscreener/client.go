// Package dexscreener provides a client for Dexscreener token price lookups.
package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the Dexscreener token endpoint.
const DefaultBaseURL = "https://api.dexscreener.com/latest/dex/tokens"

// ErrNoPairs is returned when Dexscreener lists no pairs for a token.
var ErrNoPairs = errors.New("no pairs found")

// Client is a Dexscreener API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Dexscreener client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Pair is the subset of a Dexscreener pair the engine uses.
type Pair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	PriceUsd    string `json:"priceUsd"`
	Liquidity   *struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity,omitempty"`
	Volume *struct {
		H24 float64 `json:"h24"`
	} `json:"volume,omitempty"`
	Txns *struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns,omitempty"`
	PairCreatedAt int64 `json:"pairCreatedAt"` // Unix milliseconds
	Verified      *bool `json:"verified,omitempty"`
}

// LiquidityUSD returns the pair's USD liquidity, or 0 when unreported.
func (p Pair) LiquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.Usd
}

// Transactions24h returns buys plus sells over the last 24 hours.
func (p Pair) Transactions24h() int {
	if p.Txns == nil {
		return 0
	}
	return p.Txns.H24.Buys + p.Txns.H24.Sells
}

// Age returns how long the pair has existed. ok is false when the creation
// time is unknown.
func (p Pair) Age(now time.Time) (age time.Duration, ok bool) {
	if p.PairCreatedAt <= 0 {
		return 0, false
	}
	return now.Sub(time.UnixMilli(p.PairCreatedAt)), true
}

// TokenPairs returns all pairs Dexscreener lists for the token mint.
func (c *Client) TokenPairs(ctx context.Context, tokenMint string) ([]Pair, error) {
	if tokenMint == "" {
		return nil, fmt.Errorf("token mint is required")
	}

	requestURL := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(tokenMint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Dexscreener API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Pairs []Pair `json:"pairs"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return parsed.Pairs, nil
}

// TokenPrice returns the USD price of the token's first listed pair.
func (c *Client) TokenPrice(ctx context.Context, tokenMint string) (float64, error) {
	pairs, err := c.TokenPairs(ctx, tokenMint)
	if err != nil {
		return 0, err
	}
	if len(pairs) == 0 {
		return 0, fmt.Errorf("%w for %s", ErrNoPairs, tokenMint)
	}

	price, err := decimal.NewFromString(pairs[0].PriceUsd)
	if err != nil {
		return 0, fmt.Errorf("invalid priceUsd %q: %w", pairs[0].PriceUsd, err)
	}
	if !price.IsPositive() {
		return 0, fmt.Errorf("non-positive priceUsd %q", pairs[0].PriceUsd)
	}

	f, _ := price.Float64()
	return f, nil
}
