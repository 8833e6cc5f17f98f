package pumpfun

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jonasrmichel/solstrat/pkg/types"
)

func TestFeedStreamsNewestFirst(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil || sub["method"] != "subscribeNewToken" {
			t.Errorf("unexpected subscription %v (%v)", sub, err)
			return
		}

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"Successfully subscribed"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"mint":"OLD","name":"Old","symbol":"OLD","txType":"create"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"mint":"NEW","name":"New","symbol":"NEW","txType":"create"}`))

		// Hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	feed := NewFeed(&FeedConfig{WebsocketURL: "ws" + strings.TrimPrefix(srv.URL, "http")})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- feed.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for len(feed.RealTimeTokens()) < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for tokens, have %v", feed.RealTimeTokens())
		}
		time.Sleep(10 * time.Millisecond)
	}

	tokens := feed.RealTimeTokens()
	if tokens[0].Mint != "NEW" || tokens[1].Mint != "OLD" {
		t.Fatalf("tokens = %v, want NEW then OLD", tokens)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestFeedCapsTokens(t *testing.T) {
	feed := NewFeed(&FeedConfig{MaxTokens: 2})
	feed.Add(types.TokenInfo{Mint: "a"})
	feed.Add(types.TokenInfo{Mint: "b"})
	feed.Add(types.TokenInfo{Mint: "c"})

	tokens := feed.RealTimeTokens()
	if len(tokens) != 2 || tokens[0].Mint != "c" || tokens[1].Mint != "b" {
		t.Fatalf("tokens = %v, want [c b]", tokens)
	}

	// Snapshots are copies
	tokens[0].Mint = "mutated"
	if feed.RealTimeTokens()[0].Mint != "c" {
		t.Fatalf("snapshot mutation leaked into feed")
	}
}

type fakeSigner struct {
	sent      [][]byte
	confirmed []string
}

func (s *fakeSigner) PublicKeyString() string { return "wallet" }

func (s *fakeSigner) SignAndSendRaw(_ context.Context, tx []byte) (string, error) {
	s.sent = append(s.sent, tx)
	return "sig-1", nil
}

func (s *fakeSigner) WaitForConfirmation(_ context.Context, sig string) error {
	s.confirmed = append(s.confirmed, sig)
	return nil
}

func TestTraderBuy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body["action"] != "buy" || body["mint"] != "MINT" || body["publicKey"] != "wallet" {
			t.Errorf("unexpected body %v", body)
		}
		if body["denominatedInSol"] != "true" {
			t.Errorf("buy must be denominated in SOL: %v", body)
		}
		if amount, _ := body["amount"].(json.Number); amount.String() != "0.000001" {
			t.Errorf("amount = %v, want 0.000001", body["amount"])
		}
		_, _ = w.Write([]byte{1, 2, 3})
	}))
	defer srv.Close()

	signer := &fakeSigner{}
	trader := NewTrader(&TraderConfig{TradeURL: srv.URL}, signer)

	sig, err := trader.Trade(context.Background(), "MINT", ActionBuy, 1000)
	if err != nil {
		t.Fatalf("Trade: %v", err)
	}
	if sig != "sig-1" {
		t.Fatalf("sig = %q", sig)
	}
	if len(signer.sent) != 1 || string(signer.sent[0]) != string([]byte{1, 2, 3}) {
		t.Fatalf("signer received %v", signer.sent)
	}
	if len(signer.confirmed) != 1 {
		t.Fatalf("expected one confirmation wait, got %d", len(signer.confirmed))
	}
}

func TestTraderValidation(t *testing.T) {
	trader := NewTrader(nil, &fakeSigner{})
	if _, err := trader.Trade(context.Background(), "", ActionBuy, 1); err == nil {
		t.Fatalf("expected error for missing mint")
	}
	if _, err := trader.Trade(context.Background(), "MINT", ActionBuy, 0); err == nil {
		t.Fatalf("expected error for zero amount")
	}
	if _, err := trader.Trade(context.Background(), "MINT", Action("hold"), 1); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
