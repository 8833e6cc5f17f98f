// Package pumpfun provides the PumpPortal new-token feed and trade endpoint.
package pumpfun

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

const (
	// DefaultWebsocketURL is the PumpPortal data stream.
	DefaultWebsocketURL = "wss://pumpportal.fun/api/data"

	defaultMaxTokens      = 50
	defaultReconnectDelay = 5 * time.Second
)

// FeedConfig contains configuration for the token feed.
type FeedConfig struct {
	WebsocketURL   string
	MaxTokens      int
	ReconnectDelay time.Duration
	Logger         logrus.FieldLogger
}

// Feed keeps the most recent token creations announced by PumpPortal,
// newest first.
type Feed struct {
	url            string
	maxTokens      int
	reconnectDelay time.Duration
	log            *logrus.Entry

	mu     sync.RWMutex
	tokens []types.TokenInfo
}

// NewFeed creates a token feed. Call Run to start streaming.
func NewFeed(config *FeedConfig) *Feed {
	if config == nil {
		config = &FeedConfig{}
	}

	wsURL := config.WebsocketURL
	if wsURL == "" {
		wsURL = DefaultWebsocketURL
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	delay := config.ReconnectDelay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}

	return &Feed{
		url:            wsURL,
		maxTokens:      maxTokens,
		reconnectDelay: delay,
		log:            logging.Component(config.Logger, "pumpfun-feed"),
	}
}

// newTokenEvent is the PumpPortal token creation message.
type newTokenEvent struct {
	Mint    string `json:"mint"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	TxType  string `json:"txType"`
	Message string `json:"message"` // Set on subscription acknowledgements
}

// RealTimeTokens returns a snapshot of the known tokens, newest first.
func (f *Feed) RealTimeTokens() []types.TokenInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]types.TokenInfo, len(f.tokens))
	copy(out, f.tokens)
	return out
}

// Add records a token at the front of the list.
func (f *Feed) Add(token types.TokenInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tokens = append([]types.TokenInfo{token}, f.tokens...)
	if len(f.tokens) > f.maxTokens {
		f.tokens = f.tokens[:f.maxTokens]
	}
}

// Run connects to the stream and keeps reconnecting until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	for {
		err := f.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.WithError(err).WithField("retry_in", f.reconnectDelay).Warn("Token feed disconnected")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.reconnectDelay):
		}
	}
}

// connectAndRead dials, subscribes to token creations and reads until the
// connection fails or ctx is cancelled.
func (f *Feed) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to PumpPortal: %w", err)
	}

	defer conn.Close()

	// Close the socket on cancellation so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(map[string]string{"method": "subscribeNewToken"}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	f.log.WithField("url", f.url).Info("Subscribed to new token stream")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return fmt.Errorf("stream closed: %w", err)
			}
			return fmt.Errorf("read error: %w", err)
		}
		f.processMessage(message)
	}
}

func (f *Feed) processMessage(message []byte) {
	var event newTokenEvent
	if err := json.Unmarshal(message, &event); err != nil {
		f.log.WithError(err).Debug("Ignoring malformed feed message")
		return
	}
	if event.Mint == "" {
		return
	}

	f.Add(types.TokenInfo{Mint: event.Mint, Name: event.Name, Symbol: event.Symbol})
	f.log.WithFields(logrus.Fields{
		"mint":   event.Mint,
		"symbol": event.Symbol,
	}).Debug("New token announced")
}
