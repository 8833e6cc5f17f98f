// Package notifier provides notification services for the strategy engine.
package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/strategy"
	"github.com/jonasrmichel/solstrat/pkg/types"
)

// SlackNotifier sends notifications to a Slack channel.
type SlackNotifier struct {
	client  *slack.Client
	channel string
	enabled bool
}

// SlackConfig holds Slack configuration.
type SlackConfig struct {
	APIToken string
	Channel  string
	Enabled  bool
	APIURL   string // Overrides the Slack API endpoint; must end in "/"
}

// NewSlackNotifier creates a new Slack notifier. Without a token and channel
// the notifier is disabled and every call is a no-op.
func NewSlackNotifier(config *SlackConfig) *SlackNotifier {
	if config == nil || config.APIToken == "" || config.Channel == "" {
		return &SlackNotifier{enabled: false}
	}

	opts := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	}
	if config.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(config.APIURL))
	}

	return &SlackNotifier{
		client:  slack.New(config.APIToken, opts...),
		channel: config.Channel,
		enabled: config.Enabled,
	}
}

// IsEnabled returns whether the notifier is enabled.
func (s *SlackNotifier) IsEnabled() bool {
	return s.enabled
}

// NotifyOpportunity sends a notification about an arbitrage opportunity.
func (s *SlackNotifier) NotifyOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error {
	if !s.enabled || opp == nil {
		return nil
	}

	pair := shortMint(opp.TokenMintA) + " → " + shortMint(opp.TokenMintB)
	blocks := []slack.Block{
		header(fmt.Sprintf("🔔 Arbitrage Opportunity: %s", pair)),
		fields(
			fmt.Sprintf("*Buy On:*\n%s", opp.BuyOn),
			fmt.Sprintf("*Sell On:*\n%s", opp.SellOn),
			fmt.Sprintf("*Buy Price:*\n%.8f", opp.BuyPrice),
			fmt.Sprintf("*Sell Price:*\n%.8f", opp.SellPrice),
			fmt.Sprintf("*Spread:*\n%.2f%% (%d bps)", opp.Spread*100, opp.SpreadBps),
		),
		footer(fmt.Sprintf("Detected at %s", opp.DetectedAt.Format(time.RFC3339))),
	}

	return s.send(ctx, blocks, fmt.Sprintf("Arbitrage: %s - Buy %s @ %.6f, Sell %s @ %.6f (%.2f%%)",
		pair, opp.BuyOn, opp.BuyPrice, opp.SellOn, opp.SellPrice, opp.Spread*100))
}

// NotifyEntry sends a notification about an executed entry trade.
func (s *SlackNotifier) NotifyEntry(ctx context.Context, entry *strategy.Entry) error {
	if !s.enabled || entry == nil {
		return nil
	}

	blocks := []slack.Block{
		header(fmt.Sprintf("✅ %s Entry: %s", capitalize(entry.Strategy), shortMint(entry.TokenMint))),
		fields(
			fmt.Sprintf("*Token:*\n`%s`", entry.TokenMint),
			fmt.Sprintf("*Amount:*\n%d", entry.Amount),
			fmt.Sprintf("*Entry Price:*\n%.8f", entry.EntryPrice),
			fmt.Sprintf("*Position:*\n%s", entry.PositionID),
		),
		section(fmt.Sprintf("*Transactions:* `%s`", strings.Join(entry.Signatures, "`, `"))),
	}

	return s.send(ctx, blocks, fmt.Sprintf("%s entry: %d of %s @ %.6f",
		entry.Strategy, entry.Amount, entry.TokenMint, entry.EntryPrice))
}

// NotifyExit sends a notification when a monitor closes a position.
func (s *SlackNotifier) NotifyExit(ctx context.Context, event monitor.ExitEvent) error {
	if !s.enabled {
		return nil
	}

	emoji, label := "🛑", "Stop Loss"
	if event.Reason == monitor.ExitTakeProfit {
		emoji, label = "💰", "Take Profit"
	}

	blocks := []slack.Block{
		header(fmt.Sprintf("%s %s: %s", emoji, label, shortMint(event.TokenMint))),
		fields(
			fmt.Sprintf("*Entry Price:*\n%.8f", event.EntryPrice),
			fmt.Sprintf("*Exit Price:*\n%.8f", event.ExitPrice),
			fmt.Sprintf("*Change:*\n%+.2f%%", event.PercentChange),
			fmt.Sprintf("*Position:*\n%s", event.PositionID),
		),
	}
	if event.Err != nil {
		blocks = append(blocks, section(fmt.Sprintf("*Exit swap failed:* %s", event.Err)))
	} else {
		blocks = append(blocks, section(fmt.Sprintf("*Transaction:* `%s`", event.Signature)))
	}
	blocks = append(blocks, footer(fmt.Sprintf("Closed at %s", event.Time.Format(time.RFC3339))))

	return s.send(ctx, blocks, fmt.Sprintf("%s hit for %s at %.6f (%+.2f%%)",
		label, event.TokenMint, event.ExitPrice, event.PercentChange))
}

// SendTestMessage sends a test message to verify the connection.
func (s *SlackNotifier) SendTestMessage(ctx context.Context) error {
	if !s.enabled {
		return fmt.Errorf("slack notifier is not enabled")
	}
	return s.send(ctx, []slack.Block{section("🤖 *solstrat* connected and ready to send notifications!")},
		"solstrat connected")
}

func (s *SlackNotifier) send(ctx context.Context, blocks []slack.Block, fallbackText string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(fallbackText, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	return nil
}

func header(text string) slack.Block {
	return slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, text, true, false))
}

func section(text string) slack.Block {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func fields(texts ...string) slack.Block {
	objs := make([]*slack.TextBlockObject, 0, len(texts))
	for _, t := range texts {
		objs = append(objs, slack.NewTextBlockObject(slack.MarkdownType, t, false, false))
	}
	return slack.NewSectionBlock(nil, objs, nil)
}

func footer(text string) slack.Block {
	return slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, text, false, false))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// shortMint abbreviates a mint address for headers.
func shortMint(mint string) string {
	if len(mint) <= 12 {
		return mint
	}
	return mint[:4] + "…" + mint[len(mint)-4:]
}
