// Package raydium provides a price source backed by the Raydium quote API.
package raydium

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jonasrmichel/solstrat/pkg/providers"
)

// DefaultQuoteURL is the Raydium SDK quote endpoint.
const DefaultQuoteURL = "https://api.raydium.io/v2/sdk/quote"

// Source implements providers.PriceSource for Raydium.
type Source struct {
	httpClient *http.Client
	quoteURL   string
}

// NewSource creates a Raydium source. An empty quoteURL uses DefaultQuoteURL.
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
	return "Raydium"
}

// GetPrice fetches the Raydium price for the pair. Raydium quotes a price per
// pair, so amount is not sent.
func (s *Source) GetPrice(ctx context.Context, inputMint, outputMint string, _ uint64) (float64, error) {
	if inputMint == "" || outputMint == "" {
		return 0, providers.ErrNoData
	}

	query := url.Values{}
	query.Set("inputMint", inputMint)
	query.Set("outputMint", outputMint)

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
		return 0, fmt.Errorf("Raydium API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Data *struct {
			Price json.Number `json:"price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Data == nil || parsed.Data.Price == "" {
		return 0, providers.ErrNoData
	}

	price, err := decimal.NewFromString(parsed.Data.Price.String())
	if err != nil || !price.IsPositive() {
		return 0, providers.ErrNoData
	}

	f, _ := price.Float64()
	return f, nil
}
