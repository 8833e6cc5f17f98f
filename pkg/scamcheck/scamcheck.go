// Package scamcheck scores the rug-pull risk of a Solana token from its
// Dexscreener listing and its on-chain mint state.
package scamcheck

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jonasrmichel/solstrat/pkg/dexscreener"
	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// Thresholds applied to the first listed pair and to holder concentration.
const (
	MinLiquidityUSD        = 1000
	MinTransactions24h     = 10
	MinPairAge             = 72 * time.Hour
	HighConcentrationPct   = 30
	MediumConcentrationPct = 10
)

// BurnAddress is the system program address; tokens sent there are gone.
const BurnAddress = "11111111111111111111111111111111"

var liquidityLockers = map[string]bool{
	BurnAddress: true,
	"4ckmDgGz5qQh6vny1tRQAMf6Tx5Rk8QeYv1GZ6tMCp7y": true,
}

// Risk is the overall verdict.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

func (r Risk) rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	}
	return 0
}

// Exceeds reports whether r is riskier than max.
func (r Risk) Exceeds(max Risk) bool {
	return r.rank() > max.rank()
}

// ParseRisk accepts low, medium or high.
func ParseRisk(s string) (Risk, error) {
	r := Risk(s)
	if r.rank() == 0 {
		return "", fmt.Errorf("unknown risk level %q (want low, medium or high)", s)
	}
	return r, nil
}

// PairSource lists a token's trading pairs.
type PairSource interface {
	TokenPairs(ctx context.Context, tokenMint string) ([]dexscreener.Pair, error)
}

// ChainInspector reads mint state from the chain.
type ChainInspector interface {
	GetMintInfo(ctx context.Context, mint string) (*types.MintInfo, error)
	GetLargestHolders(ctx context.Context, mint string) ([]types.TokenHolder, error)
}

// Report is the outcome of a check.
type Report struct {
	TokenMint            string    `json:"token_mint"`
	Risk                 Risk      `json:"risk"`
	Reasons              []string  `json:"reasons"`
	LargestHolderPercent float64   `json:"largest_holder_percent,omitempty"`
	CheckedAt            time.Time `json:"checked_at"`
}

func (r *Report) flag(level Risk, reason string) {
	if level.Exceeds(r.Risk) {
		r.Risk = level
	}
	r.Reasons = append(r.Reasons, reason)
}

// Checker runs scam checks.
type Checker struct {
	pairs PairSource
	chain ChainInspector
	log   *logrus.Entry
	now   func() time.Time
}

// NewChecker creates a checker. chain may be nil, in which case only the
// Dexscreener listing is scored.
func NewChecker(pairs PairSource, chain ChainInspector, logger logrus.FieldLogger) *Checker {
	return &Checker{
		pairs: pairs,
		chain: chain,
		log:   logging.Component(logger, "scamcheck"),
		now:   time.Now,
	}
}

// Check scores tokenMint. Only a failed Dexscreener lookup is an error; chain
// lookups that fail are logged and skipped.
func (c *Checker) Check(ctx context.Context, tokenMint string) (*Report, error) {
	if tokenMint == "" {
		return nil, fmt.Errorf("token mint is required for scam check")
	}

	pairs, err := c.pairs.TokenPairs(ctx, tokenMint)
	if err != nil {
		return nil, fmt.Errorf("failed to perform scam check: %w", err)
	}

	report := &Report{TokenMint: tokenMint, CheckedAt: c.now()}

	if len(pairs) == 0 {
		report.flag(RiskMedium, "Token has no trading pairs on Dexscreener.")
	} else {
		c.scorePair(report, pairs[0])
	}

	if c.chain != nil {
		c.scoreChain(ctx, report)
	}

	if report.Risk == "" {
		report.Risk = RiskLow
	}

	c.log.WithFields(logrus.Fields{
		"token_mint": tokenMint,
		"risk":       report.Risk,
		"reasons":    len(report.Reasons),
	}).Info("Scam check completed")

	return report, nil
}

func (c *Checker) scorePair(report *Report, pair dexscreener.Pair) {
	if pair.Verified != nil && !*pair.Verified {
		report.flag(RiskHigh, "Token is not verified on Dexscreener.")
	}
	if pair.LiquidityUSD() < MinLiquidityUSD {
		report.flag(RiskHigh, "Low liquidity.")
	}
	if pair.Transactions24h() < MinTransactions24h {
		report.flag(RiskMedium, "Low trading activity.")
	}
	if age, ok := pair.Age(c.now()); ok && age < MinPairAge {
		report.flag(RiskMedium, "Token is very new.")
	}
}

func (c *Checker) scoreChain(ctx context.Context, report *Report) {
	log := c.log.WithField("token_mint", report.TokenMint)

	mint, err := c.chain.GetMintInfo(ctx, report.TokenMint)
	if err != nil {
		log.WithError(err).Debug("Skipping mint authority check")
		return
	}
	if mint.MintAuthority != "" && mint.MintAuthority != BurnAddress {
		report.flag(RiskHigh, "Mint authority is not renounced (hidden mint authority risk).")
	}

	holders, err := c.chain.GetLargestHolders(ctx, report.TokenMint)
	if err != nil {
		log.WithError(err).Debug("Skipping holder concentration check")
		return
	}
	if len(holders) == 0 {
		return
	}
	largest := holders[0]

	if mint.Supply.IsPositive() {
		pct, _ := largest.Amount.Div(mint.Supply).Mul(decimal.NewFromInt(100)).Float64()
		report.LargestHolderPercent = pct
		switch {
		case pct > HighConcentrationPct:
			report.flag(RiskHigh, "A single wallet holds more than 30% of supply (big red flag).")
		case pct > MediumConcentrationPct:
			report.flag(RiskMedium, "A single wallet holds more than 10% of supply.")
		}
	}

	// Reasons only; lock status never changes the verdict
	if liquidityLockers[largest.Address] {
		report.Reasons = append(report.Reasons, "Liquidity appears to be locked.")
	} else {
		report.Reasons = append(report.Reasons, "Liquidity may not be locked.")
	}
}
