// Package orca provides a price source backed by the Orca quote API.
package orca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonasrmichel/solstrat/pkg/providers"
)

// DefaultQuoteURL is the Orca quote endpoint.
const DefaultQuoteURL = "https://api.orca.so/v1/quote"

// Source implements providers.PriceSource for Orca.
type Source struct {
	httpClient *http.Client
	quoteURL   string
}

// NewSource creates an Orca source. An empty quoteURL uses DefaultQuoteURL.
func NewSource(quoteURL string, httpClient *http.Client) *Source {
	if quoteURL == "" {
		quoteURL = DefaultQuoteURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{httpClient: httpClient, quoteURL: quoteURL}
}

// Name returns the source name.
func (s *Source) Name() string {
	return "Orca"
}

// quoteResponse covers both shapes the endpoint has served: an explicit
// price, or raw in/out amounts.
type quoteResponse struct {
	Price     json.Number `json:"price"`
	InAmount  json.Number `json:"inAmount"`
	OutAmount json.Number `json:"outAmount"`
}

// GetPrice fetches an Orca quote for the pair.
func (s *Source) GetPrice(ctx context.Context, inputMint, outputMint string, amount uint64) (float64, error) {
	if inputMint == "" || outputMint == "" {
		return 0, providers.ErrNoData
	}

	query := url.Values{}
	query.Set("inputMint", inputMint)
	query.Set("outputMint", outputMint)
	query.Set("amount", strconv.FormatUint(amount, 10))
	query.Set("slippage", "0.5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.quoteURL+"?"+query.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("Orca API error (status %d): %s", resp.StatusCode, string(body))
	}

	var quote quoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	price, err := quote.price()
	if err != nil {
		return 0, err
	}
	return price, nil
}

func (q quoteResponse) price() (float64, error) {
	if q.Price != "" {
		p, err := decimal.NewFromString(q.Price.String())
		if err == nil && p.IsPositive() {
			f, _ := p.Float64()
			return f, nil
		}
	}

	if q.InAmount != "" && q.OutAmount != "" {
		in, errIn := decimal.NewFromString(q.InAmount.String())
		out, errOut := decimal.NewFromString(q.OutAmount.String())
		if errIn == nil && errOut == nil && in.IsPositive() && out.IsPositive() {
			f, _ := out.Div(in).Float64()
			return f, nil
		}
	}

	return 0, providers.ErrNoData
}
