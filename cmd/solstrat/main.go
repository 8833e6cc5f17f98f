// Package main is the entry point for the solstrat strategy engine CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonasrmichel/solstrat/pkg/arbitrage"
	"github.com/jonasrmichel/solstrat/pkg/autotrade"
	"github.com/jonasrmichel/solstrat/pkg/config"
	"github.com/jonasrmichel/solstrat/pkg/dexscreener"
	"github.com/jonasrmichel/solstrat/pkg/executor"
	"github.com/jonasrmichel/solstrat/pkg/indicators"
	"github.com/jonasrmichel/solstrat/pkg/jupiter"
	"github.com/jonasrmichel/solstrat/pkg/logging"
	"github.com/jonasrmichel/solstrat/pkg/metrics"
	"github.com/jonasrmichel/solstrat/pkg/monitor"
	"github.com/jonasrmichel/solstrat/pkg/notifier"
	"github.com/jonasrmichel/solstrat/pkg/predict"
	"github.com/jonasrmichel/solstrat/pkg/pricewatch"
	"github.com/jonasrmichel/solstrat/pkg/providers"
	"github.com/jonasrmichel/solstrat/pkg/providers/orca"
	"github.com/jonasrmichel/solstrat/pkg/providers/raydium"
	solanaprovider "github.com/jonasrmichel/solstrat/pkg/providers/solana"
	"github.com/jonasrmichel/solstrat/pkg/pumpfun"
	"github.com/jonasrmichel/solstrat/pkg/reporter"
	"github.com/jonasrmichel/solstrat/pkg/scamcheck"
	"github.com/jonasrmichel/solstrat/pkg/sentiment"
	"github.com/jonasrmichel/solstrat/pkg/solana"
	"github.com/jonasrmichel/solstrat/pkg/strategy"
)

var (
	configPath   string
	assumeYes    bool
	metricsAddr  string
	outputFormat string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "solstrat",
		Short:         "Solana DeFi strategy engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (YAML)")
	root.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Approve every trade without prompting")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	root.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format: text, json")

	root.AddCommand(
		newArbitrageCommand(),
		newDAOCommand(),
		newDegenCommand(),
		newSafeCommand(),
		newPredictiveCommand(),
		newSwapCommand(),
		newBuyCommand(),
		newSellCommand(),
		newBalanceCommand(),
		newAutoTradeCommand(),
		newScamCheckCommand(),
		newMonitorCommand(),
	)
	return root
}

// app holds the wired engine for one command invocation.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	signer   *solana.Client
	executor *executor.SwapExecutor
	monitors *monitor.Registry
	feed     *pumpfun.Feed
	checker  *scamcheck.Checker
	watches  *pricewatch.Service
	engine   *strategy.Engine
	notifier *notifier.SlackNotifier
	report   *reporter.Reporter
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	log := logging.New(cfg.Logging)
	m := metrics.New()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
		log.WithField("addr", cfg.Metrics.Addr).Info("Serving metrics")
	}

	signer, err := solana.NewClient(&solana.ClientConfig{
		RPCURL:         cfg.Solana.RPCURL,
		PrivateKey:     cfg.Solana.PrivateKey,
		ConfirmTimeout: cfg.Solana.ConfirmTimeout,
		ConfirmPoll:    cfg.Solana.ConfirmPoll,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create solana client: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	jup := jupiter.NewClient(&jupiter.ClientConfig{
		BaseURL:    cfg.Jupiter.BaseURL,
		APIKey:     cfg.Jupiter.APIKey,
		HTTPClient: httpClient,
	})

	swapExec := executor.NewSwapExecutor(jup, signer, &executor.SwapExecutorConfig{
		SlippageBps: cfg.Trading.SlippageBps,
		Metrics:     m,
		Logger:      log,
	})

	prices := dexscreener.NewClient(cfg.Sources.DexscreenerURL, httpClient)

	sources := providers.NewRegistry(
		solanaprovider.NewJupiterSource(jup),
		orca.NewSource(cfg.Sources.OrcaURL, httpClient),
		raydium.NewSource(cfg.Sources.RaydiumURL, httpClient),
	)
	detector := arbitrage.NewDetector(sources, cfg.Arbitrage.SpreadThreshold, log)

	monitors := monitor.NewRegistry(ctx, prices, swapExec, &monitor.RegistryConfig{
		Metrics: m,
		Logger:  log,
	})

	feed := pumpfun.NewFeed(&pumpfun.FeedConfig{
		WebsocketURL:   cfg.PumpFun.WebsocketURL,
		MaxTokens:      cfg.PumpFun.MaxTokens,
		ReconnectDelay: cfg.PumpFun.ReconnectDelay,
		Logger:         log,
	})
	trader := pumpfun.NewTrader(&pumpfun.TraderConfig{
		TradeURL:    cfg.PumpFun.TradeURL,
		SlippagePct: cfg.PumpFun.SlippagePct,
		PriorityFee: cfg.PumpFun.PriorityFee,
		Pool:        cfg.PumpFun.Pool,
		HTTPClient:  httpClient,
	}, signer)

	calc := indicators.NewCalculator()
	predictor := predict.NewPredictor(prices,
		sentiment.NewClient(cfg.Sources.SentimentURL, httpClient, log),
		calc,
		&predict.Config{
			Samples:         cfg.Prediction.Samples,
			MinSamples:      cfg.Prediction.MinSamples,
			SampleDelay:     cfg.Prediction.SampleDelay,
			ConfidenceFloor: cfg.Prediction.ConfidenceFloor,
			Metrics:         m,
			Logger:          log,
		})

	checker := scamcheck.NewChecker(prices, signer, log)
	watches := pricewatch.NewService(monitors, prices, calc, &pricewatch.Config{Logger: log})

	slack := notifier.NewSlackNotifier(&notifier.SlackConfig{
		APIToken: cfg.Slack.APIToken,
		Channel:  cfg.Slack.Channel,
		Enabled:  cfg.Slack.Enabled,
	})

	format := reporter.FormatText
	if outputFormat == "json" {
		format = reporter.FormatJSON
	}
	report := reporter.NewReporter(os.Stdout, format)

	watches.OnTick(report.ReportTick)
	monitors.OnExit(func(event monitor.ExitEvent) {
		report.ReportExit(event)
		if err := slack.NotifyExit(context.WithoutCancel(ctx), event); err != nil {
			log.WithError(err).Warn("Failed to send exit notification")
		}
	})

	deps := strategy.Dependencies{
		Swapper:     swapExec,
		Prices:      prices,
		Monitors:    monitors,
		Finder:      detector,
		Feed:        feed,
		Trader:      trader,
		Predictor:   predictor,
		ScamChecker: checker,
		Metrics:     m,
		Logger:      log,
	}
	if slack.IsEnabled() {
		deps.Notifier = slack
	}

	return &app{
		cfg:      cfg,
		log:      log,
		signer:   signer,
		executor: swapExec,
		monitors: monitors,
		feed:     feed,
		checker:  checker,
		watches:  watches,
		engine:   strategy.NewEngine(deps, strategy.SettingsFromConfig(cfg)),
		notifier: slack,
		report:   report,
	}, nil
}

// newScheduler creates the recurring trade scheduler.
func (a *app) newScheduler(ctx context.Context) *autotrade.Scheduler {
	return autotrade.NewScheduler(ctx, a.executor, &autotrade.Config{
		Enabled:  a.cfg.Trading.AutoTradeEnabled,
		Interval: a.cfg.AutoTrade.Interval,
		Logger:   a.log,
	})
}

// confirmFunc returns the confirmation gate for this invocation.
func (a *app) confirmFunc() strategy.ConfirmFunc {
	if assumeYes {
		return strategy.AutoApprove
	}
	return promptConfirm(os.Stdin, os.Stderr)
}

// finish reports a strategy outcome and, when a position was opened, blocks
// until every monitor exits or the process is interrupted.
func (a *app) finish(ctx context.Context, name string, res *strategy.Result, err error) error {
	if res != nil {
		a.report.ReportResult(res)
	}
	if err != nil {
		a.report.ReportError(name, err)
	}

	if a.monitors.Len() > 0 {
		a.log.WithField("positions", a.monitors.Len()).Info("Monitoring open positions; press Ctrl+C to stop")
		a.waitForMonitors(ctx)
		a.report.PrintStats()
	}
	return err
}

func (a *app) waitForMonitors(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.monitors.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.log.Info("Shutting down gracefully...")
		a.monitors.StopAll()
		<-done
	}
}
