package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonasrmichel/solstrat/pkg/jupiter"
)

type fakeQuotes struct {
	quoteErr  error
	buildErr  error
	lastQuote *jupiter.QuoteParams
	lastSwap  *jupiter.SwapParams
	calls     int
}

func (f *fakeQuotes) GetQuote(_ context.Context, p *jupiter.QuoteParams) (*jupiter.QuoteResponse, error) {
	f.calls++
	f.lastQuote = p
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &jupiter.QuoteResponse{InAmount: "1", OutAmount: "2"}, nil
}

func (f *fakeQuotes) BuildSwapTransaction(_ context.Context, p *jupiter.SwapParams) (*jupiter.SwapResponse, error) {
	f.lastSwap = p
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	return &jupiter.SwapResponse{SwapTransaction: "dHg="}, nil
}

type fakeSender struct {
	sendErr    error
	confirmErr error
	sent       []string
}

func (f *fakeSender) PublicKeyString() string { return "wallet" }

func (f *fakeSender) SignAndSendTransaction(_ context.Context, tx string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, tx)
	return "sig", nil
}

func (f *fakeSender) WaitForConfirmation(context.Context, string) error {
	return f.confirmErr
}

func TestSwapHappyPath(t *testing.T) {
	q, s := &fakeQuotes{}, &fakeSender{}
	ex := NewSwapExecutor(q, s, nil)

	sig, err := ex.Swap(context.Background(), "IN", "OUT", 500)
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if sig != "sig" {
		t.Fatalf("sig = %q", sig)
	}
	if q.lastQuote.SlippageBps != 50 || q.lastQuote.Amount != 500 {
		t.Fatalf("unexpected quote params %+v", q.lastQuote)
	}
	if q.lastSwap.UserPublicKey != "wallet" {
		t.Fatalf("swap built for %q, want wallet", q.lastSwap.UserPublicKey)
	}
	if len(s.sent) != 1 || s.sent[0] != "dHg=" {
		t.Fatalf("sent = %v", s.sent)
	}
}

func TestSwapValidation(t *testing.T) {
	q := &fakeQuotes{}
	ex := NewSwapExecutor(q, &fakeSender{}, nil)

	cases := []struct {
		in, out string
		amount  uint64
	}{
		{"", "OUT", 1},
		{"IN", "", 1},
		{"IN", "OUT", 0},
		{"IN", "IN", 1},
	}
	for _, tc := range cases {
		if _, err := ex.Swap(context.Background(), tc.in, tc.out, tc.amount); !errors.Is(err, ErrSwapFailed) {
			t.Fatalf("Swap(%q,%q,%d) err = %v, want ErrSwapFailed", tc.in, tc.out, tc.amount, err)
		}
	}
	if q.calls != 0 {
		t.Fatalf("validation failures must not reach the quote source")
	}
}

func TestSwapWrapsStepErrors(t *testing.T) {
	cause := errors.New("no route")
	ex := NewSwapExecutor(&fakeQuotes{quoteErr: cause}, &fakeSender{}, nil)
	_, err := ex.Swap(context.Background(), "IN", "OUT", 1)
	if !errors.Is(err, ErrSwapFailed) || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped quote failure", err)
	}
	if !strings.HasPrefix(err.Error(), "swap failed: quote") {
		t.Fatalf("err = %q, want step prefix", err)
	}

	ex = NewSwapExecutor(&fakeQuotes{buildErr: cause}, &fakeSender{}, nil)
	if _, err := ex.Swap(context.Background(), "IN", "OUT", 1); !strings.Contains(err.Error(), "build transaction") {
		t.Fatalf("err = %v, want build step", err)
	}

	ex = NewSwapExecutor(&fakeQuotes{}, &fakeSender{sendErr: cause}, nil)
	if _, err := ex.Swap(context.Background(), "IN", "OUT", 1); !strings.Contains(err.Error(), "submit") {
		t.Fatalf("err = %v, want submit step", err)
	}

	ex = NewSwapExecutor(&fakeQuotes{}, &fakeSender{confirmErr: cause}, nil)
	sig, err := ex.Swap(context.Background(), "IN", "OUT", 1)
	if err == nil || !strings.Contains(err.Error(), "confirm") {
		t.Fatalf("err = %v, want confirm step", err)
	}
	if sig != "sig" {
		t.Fatalf("unconfirmed swap should still return its signature, got %q", sig)
	}
}

func TestBuySellFixNativeLeg(t *testing.T) {
	q := &fakeQuotes{}
	ex := NewSwapExecutor(q, &fakeSender{}, nil)

	if _, err := ex.Buy(context.Background(), "TOKEN", 10); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if q.lastQuote.InputMint != jupiter.SOLMint || q.lastQuote.OutputMint != "TOKEN" {
		t.Fatalf("buy quoted %s -> %s", q.lastQuote.InputMint, q.lastQuote.OutputMint)
	}

	if _, err := ex.Sell(context.Background(), "TOKEN", 10); err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if q.lastQuote.InputMint != "TOKEN" || q.lastQuote.OutputMint != jupiter.SOLMint {
		t.Fatalf("sell quoted %s -> %s", q.lastQuote.InputMint, q.lastQuote.OutputMint)
	}
}
