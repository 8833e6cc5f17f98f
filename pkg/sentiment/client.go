// Package sentiment fetches social sentiment scores for a token symbol.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// Client queries a sentiment endpoint that answers
// GET <url>?symbol=SOL with {"bullish":..,"bearish":..,"neutral":..}.
type Client struct {
	httpClient *http.Client
	endpoint   string
	log        *logrus.Entry
}

// NewClient creates a sentiment client. An empty endpoint makes every lookup
// return the default sentiment.
func NewClient(endpoint string, httpClient *http.Client, logger logrus.FieldLogger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		log:        logging.Component(logger, "sentiment"),
	}
}

// Analyze returns the sentiment for symbol. It never fails: any error yields
// types.DefaultSentiment.
func (c *Client) Analyze(ctx context.Context, symbol string) types.Sentiment {
	if c.endpoint == "" || symbol == "" {
		return types.DefaultSentiment()
	}

	s, err := c.fetch(ctx, symbol)
	if err != nil {
		c.log.WithError(err).WithField("symbol", symbol).Warn("Sentiment lookup failed, using default")
		return types.DefaultSentiment()
	}
	return s
}

func (c *Client) fetch(ctx context.Context, symbol string) (types.Sentiment, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return types.Sentiment{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Sentiment{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.Sentiment{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Sentiment{}, fmt.Errorf("sentiment API error (status %d): %s", resp.StatusCode, string(body))
	}

	var s types.Sentiment
	if err := json.Unmarshal(body, &s); err != nil {
		return types.Sentiment{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if s.Bullish < 0 || s.Bearish < 0 || s.Neutral < 0 || s.Bullish+s.Bearish+s.Neutral == 0 {
		return types.Sentiment{}, fmt.Errorf("invalid sentiment %+v", s)
	}

	return s, nil
}
