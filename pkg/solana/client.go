// Package solana provides a client for signing and submitting transactions on Solana.
package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

const (
	// DefaultConfirmTimeout bounds how long WaitForConfirmation polls.
	DefaultConfirmTimeout = 60 * time.Second

	// DefaultConfirmPoll is the interval between signature status checks.
	DefaultConfirmPoll = 2 * time.Second

	lamportsPerSOLExp = -9
)

var (
	// ErrTransactionFailed is returned when a transaction landed with an error.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidSignature is returned for signatures that are not valid Base58.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Client wraps the Solana RPC client with signing capabilities. The keypair is
// read-only after construction, so one Client is shared by concurrent swaps.
type Client struct {
	rpc            *rpc.Client
	privateKey     solana.PrivateKey
	publicKey      solana.PublicKey
	rpcURL         string
	ephemeral      bool
	confirmTimeout time.Duration
	confirmPoll    time.Duration
	log            *logrus.Entry
}

// ClientConfig contains configuration for the Solana client.
type ClientConfig struct {
	RPCURL         string        // Solana RPC endpoint
	PrivateKey     string        // Base58 encoded private key; empty generates a throwaway key
	WalletAddress  string        // Optional: must match the private key when set
	ConfirmTimeout time.Duration // Defaults to DefaultConfirmTimeout
	ConfirmPoll    time.Duration // Defaults to DefaultConfirmPoll
	Logger         logrus.FieldLogger
}

// NewClient creates a new Solana client with signing capabilities.
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = &ClientConfig{}
	}

	log := logging.Component(config.Logger, "solana")

	rpcURL := config.RPCURL
	if rpcURL == "" {
		rpcURL = rpc.MainNetBeta_RPC
	}

	var (
		privateKey solana.PrivateKey
		ephemeral  bool
		err        error
	)
	if config.PrivateKey == "" {
		privateKey, err = solana.NewRandomPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate keypair: %w", err)
		}
		ephemeral = true
		log.WithField("public_key", privateKey.PublicKey().String()).
			Warn("SOLANA_PRIVATE_KEY not set, using a throwaway keypair; trades will fail without funds")
	} else {
		privateKey, err = solana.PrivateKeyFromBase58(config.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
	}

	publicKey := privateKey.PublicKey()

	// Validate wallet address if provided
	if config.WalletAddress != "" {
		expectedPubKey, err := solana.PublicKeyFromBase58(config.WalletAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet address: %w", err)
		}
		if !publicKey.Equals(expectedPubKey) {
			return nil, fmt.Errorf("wallet address does not match private key: expected %s, got %s",
				publicKey.String(), expectedPubKey.String())
		}
	}

	confirmTimeout := config.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	confirmPoll := config.ConfirmPoll
	if confirmPoll <= 0 {
		confirmPoll = DefaultConfirmPoll
	}

	return &Client{
		rpc:            rpc.New(rpcURL),
		privateKey:     privateKey,
		publicKey:      publicKey,
		rpcURL:         rpcURL,
		ephemeral:      ephemeral,
		confirmTimeout: confirmTimeout,
		confirmPoll:    confirmPoll,
		log:            log,
	}, nil
}

// PublicKey returns the wallet's public key.
func (c *Client) PublicKey() solana.PublicKey {
	return c.publicKey
}

// PublicKeyString returns the wallet's public key as a Base58 string.
func (c *Client) PublicKeyString() string {
	return c.publicKey.String()
}

// Ephemeral reports whether the client is using a generated throwaway key.
func (c *Client) Ephemeral() bool {
	return c.ephemeral
}

// GetSOLBalance returns the SOL balance in SOL (not lamports).
func (c *Client) GetSOLBalance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := c.rpc.GetBalance(ctx, c.publicKey, rpc.CommitmentFinalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	return LamportsToSOL(balance.Value), nil
}

// GetTokenBalance returns the UI balance for an SPL token summed over all of
// the wallet's token accounts for that mint.
func (c *Client) GetTokenBalance(ctx context.Context, mintAddress string) (decimal.Decimal, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid mint address: %w", err)
	}

	accounts, err := c.rpc.GetTokenAccountsByOwner(
		ctx,
		c.publicKey,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get token accounts: %w", err)
	}

	total := decimal.Zero
	for _, account := range accounts.Value {
		raw := account.Account.Data.GetRawJSON()
		if raw == nil {
			continue
		}
		var parsed struct {
			Parsed struct {
				Info struct {
					TokenAmount struct {
						UIAmountString string `json:"uiAmountString"`
					} `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}
		amount, err := decimal.NewFromString(parsed.Parsed.Info.TokenAmount.UIAmountString)
		if err != nil {
			continue
		}
		total = total.Add(amount)
	}

	return total, nil
}

// GetMintInfo reads the mint account of an SPL token.
func (c *Client) GetMintInfo(ctx context.Context, mintAddress string) (*types.MintInfo, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address: %w", err)
	}

	account, err := c.rpc.GetAccountInfoWithOpts(ctx, mint, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingJSONParsed,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get mint account: %w", err)
	}
	if account == nil || account.Value == nil || account.Value.Data == nil {
		return nil, fmt.Errorf("mint account %s not found", mintAddress)
	}

	raw := account.Value.Data.GetRawJSON()
	if raw == nil {
		return nil, fmt.Errorf("mint account %s is not a parsed token mint", mintAddress)
	}
	var parsed struct {
		Parsed struct {
			Type string `json:"type"`
			Info struct {
				MintAuthority *string `json:"mintAuthority"`
				Supply        string  `json:"supply"`
				Decimals      uint8   `json:"decimals"`
			} `json:"info"`
		} `json:"parsed"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse mint account: %w", err)
	}
	if parsed.Parsed.Type != "mint" {
		return nil, fmt.Errorf("account %s is a %q, not a mint", mintAddress, parsed.Parsed.Type)
	}

	supply, err := decimal.NewFromString(parsed.Parsed.Info.Supply)
	if err != nil {
		return nil, fmt.Errorf("invalid supply %q: %w", parsed.Parsed.Info.Supply, err)
	}

	info := &types.MintInfo{
		Mint:     mintAddress,
		Supply:   supply.Shift(-int32(parsed.Parsed.Info.Decimals)),
		Decimals: parsed.Parsed.Info.Decimals,
	}
	if a := parsed.Parsed.Info.MintAuthority; a != nil {
		info.MintAuthority = *a
	}
	return info, nil
}

// GetLargestHolders returns the largest token accounts for a mint, largest
// first.
func (c *Client) GetLargestHolders(ctx context.Context, mintAddress string) ([]types.TokenHolder, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address: %w", err)
	}

	result, err := c.rpc.GetTokenLargestAccounts(ctx, mint, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to get largest accounts: %w", err)
	}

	holders := make([]types.TokenHolder, 0, len(result.Value))
	for _, account := range result.Value {
		if account == nil {
			continue
		}
		amount, err := decimal.NewFromString(account.Amount)
		if err != nil {
			continue
		}
		holders = append(holders, types.TokenHolder{
			Address: account.Address.String(),
			Amount:  amount.Shift(-int32(account.Decimals)),
		})
	}
	return holders, nil
}

// SignAndSendTransaction decodes a Base64-encoded transaction, signs it, and sends it.
func (c *Client) SignAndSendTransaction(ctx context.Context, txBase64 string) (string, error) {
	txBytes, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode transaction: %w", err)
	}
	return c.SignAndSendRaw(ctx, txBytes)
}

// SignAndSendRaw signs a serialized legacy or versioned transaction and sends it.
func (c *Client) SignAndSendRaw(ctx context.Context, txBytes []byte) (string, error) {
	tx, err := solana.TransactionFromBytes(txBytes)
	if err != nil {
		return "", fmt.Errorf("failed to parse transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if c.publicKey.Equals(key) {
			return &c.privateKey
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig.String(), nil
}

// ConfirmTransaction checks once whether a transaction has been confirmed.
// It returns (false, nil) while the transaction is still pending.
func (c *Client) ConfirmTransaction(ctx context.Context, signature string) (bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	statuses, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return false, fmt.Errorf("failed to get signature status: %w", err)
	}

	if len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return false, nil
	}

	status := statuses.Value[0]
	if status.Err != nil {
		return false, fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
	}

	return status.ConfirmationStatus == rpc.ConfirmationStatusFinalized ||
		status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed, nil
}

// WaitForConfirmation polls the signature status until the transaction is
// confirmed, fails on-chain, the confirm timeout elapses, or ctx is cancelled.
func (c *Client) WaitForConfirmation(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.confirmPoll)
	defer ticker.Stop()

	for {
		confirmed, err := c.ConfirmTransaction(ctx, signature)
		switch {
		case err != nil && isTerminal(err):
			return err
		case err != nil:
			// Transient RPC failures are retried on the next tick
			c.log.WithError(err).WithField("signature", signature).Debug("Signature status check failed")
		case confirmed:
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not confirmed: %w", signature, ctx.Err())
		case <-ticker.C:
		}
	}
}

// IsValidAddress validates a Solana address (Base58 public key).
func IsValidAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), lamportsPerSOLExp)
}

// isTerminal reports whether a confirmation error cannot be fixed by polling again.
func isTerminal(err error) bool {
	return errors.Is(err, ErrTransactionFailed) || errors.Is(err, ErrInvalidSignature)
}
