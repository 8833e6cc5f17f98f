// Package solana provides a price source for Solana DEXs via the Jupiter aggregator.
package solana

import (
	"context"
	"fmt"

	"github.com/jonasrmichel/solstrat/pkg/jupiter"
	"github.com/jonasrmichel/solstrat/pkg/providers"
)

// JupiterSource implements providers.PriceSource using Jupiter quotes.
type JupiterSource struct {
	client *jupiter.Client
}

// NewJupiterSource creates a Jupiter price source backed by client.
func NewJupiterSource(client *jupiter.Client) *JupiterSource {
	if client == nil {
		client = jupiter.NewClient(nil)
	}
	return &JupiterSource{client: client}
}

// Name returns the source name.
func (s *JupiterSource) Name() string {
	return "Jupiter"
}

// GetPrice quotes amount of inputMint and returns the implied rate.
func (s *JupiterSource) GetPrice(ctx context.Context, inputMint, outputMint string, amount uint64) (float64, error) {
	price, err := s.client.Price(ctx, inputMint, outputMint, amount)
	if err != nil {
		return 0, fmt.Errorf("jupiter quote: %w", err)
	}
	if price <= 0 {
		return 0, providers.ErrNoData
	}
	return price, nil
}
