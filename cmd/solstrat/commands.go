package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jonasrmichel/solstrat/pkg/autotrade"
	"github.com/jonasrmichel/solstrat/pkg/jupiter"
	"github.com/jonasrmichel/solstrat/pkg/reporter"
	"github.com/jonasrmichel/solstrat/pkg/scamcheck"
	"github.com/jonasrmichel/solstrat/pkg/strategy"
)

// resolveMint accepts SOL or USDC as shorthand for their mint addresses.
func resolveMint(s string) string {
	if mint, ok := jupiter.MintForSymbol(s); ok {
		return mint
	}
	return s
}

// Exit thresholds used when the flags are not given. A zero threshold fires on
// any move against (or with) the position.
const (
	defaultStopLossPercent   = 20
	defaultTakeProfitPercent = 50
)

// riskFlags binds the exit flags shared by the strategies that open
// threshold-guarded positions.
func riskFlags(cmd *cobra.Command, risk *strategy.Risk) {
	cmd.Flags().Float64Var(&risk.StopLossPercent, "stop-loss", defaultStopLossPercent, "Stop-loss percent (0 exits on any loss)")
	cmd.Flags().Float64Var(&risk.TakeProfitPercent, "take-profit", defaultTakeProfitPercent, "Take-profit percent (0 exits on any gain)")
	cmd.Flags().StringVar(&risk.ExitTo, "exit-to", "", "Exit asset: SOL or USDC (default from config)")
	cmd.Flags().DurationVar(&risk.MonitorInterval, "monitor-interval", 0, "Position poll interval (default from config)")
}

func newArbitrageCommand() *cobra.Command {
	var req strategy.ArbitrageRequest
	cmd := &cobra.Command{
		Use:   "arbitrage",
		Short: "Compare quotes across Solana DEXes and trade the best spread",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			req.TokenMintA = resolveMint(req.TokenMintA)
			req.TokenMintB = resolveMint(req.TokenMintB)
			req.Confirm = a.confirmFunc()

			res, err := a.engine.Arbitrage(ctx, req)
			return a.finish(ctx, strategy.NameArbitrage, res, err)
		},
	}
	cmd.Flags().StringVar(&req.TokenMintA, "token-a", "SOL", "Token to buy and sell back")
	cmd.Flags().StringVar(&req.TokenMintB, "token-b", "USDC", "Quote token")
	cmd.Flags().Uint64Var(&req.Amount, "amount", 0, "Amount of token A in smallest units (default from config)")
	riskFlags(cmd, &req.Risk)
	return cmd
}

func newDAOCommand() *cobra.Command {
	var req strategy.DAORequest
	cmd := &cobra.Command{
		Use:   "dao",
		Short: "Buy the configured DAO token with SOL and watch it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			req.Confirm = a.confirmFunc()

			res, err := a.engine.DAO(ctx, req)
			return a.finish(ctx, strategy.NameDAO, res, err)
		},
	}
	cmd.Flags().Uint64Var(&req.Amount, "amount", 0, "Lamports of SOL to spend")
	cmd.Flags().DurationVar(&req.MonitorInterval, "monitor-interval", 0, "Position poll interval (default from config)")
	return cmd
}

func newDegenCommand() *cobra.Command {
	var (
		req     strategy.DegenRequest
		wait    time.Duration
		maxRisk string
	)
	cmd := &cobra.Command{
		Use:   "degen",
		Short: "Ape into the newest token announced on pump.fun",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			req.Confirm = a.confirmFunc()
			if maxRisk != "" {
				if req.MaxRisk, err = scamcheck.ParseRisk(maxRisk); err != nil {
					return err
				}
			}

			go func() {
				if err := a.feed.Run(ctx); err != nil && ctx.Err() == nil {
					a.log.WithError(err).Error("Token discovery feed stopped")
				}
			}()

			a.log.WithField("wait", wait.String()).Info("Listening for new tokens")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}

			res, err := a.engine.Degen(ctx, req)
			return a.finish(ctx, strategy.NameDegen, res, err)
		},
	}
	cmd.Flags().Uint64Var(&req.Amount, "amount", 0, "Lamports of SOL to spend")
	cmd.Flags().DurationVar(&wait, "discovery-wait", 15*time.Second, "How long to collect new tokens before picking one")
	cmd.Flags().StringVar(&maxRisk, "max-risk", "", "Skip tokens whose scam check scores above this level: low, medium or high")
	riskFlags(cmd, &req.Risk)
	return cmd
}

func newSafeCommand() *cobra.Command {
	var req strategy.SafeRequest
	cmd := &cobra.Command{
		Use:   "safe",
		Short: "Buy SOL or USDC with the other and protect the position",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			req.TokenMint = resolveMint(req.TokenMint)
			req.Confirm = a.confirmFunc()

			res, err := a.engine.Safe(ctx, req)
			return a.finish(ctx, strategy.NameSafe, res, err)
		},
	}
	cmd.Flags().StringVar(&req.TokenMint, "token", "SOL", "Token to buy: SOL or USDC")
	cmd.Flags().Uint64Var(&req.Amount, "amount", 0, "Amount of the input asset in smallest units")
	riskFlags(cmd, &req.Risk)
	return cmd
}

func newPredictiveCommand() *cobra.Command {
	var req strategy.PredictiveRequest
	cmd := &cobra.Command{
		Use:   "predictive",
		Short: "Trade on an RSI and sentiment signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			req.TokenMint = resolveMint(req.TokenMint)
			req.Confirm = a.confirmFunc()

			res, err := a.engine.Predictive(ctx, req)
			return a.finish(ctx, strategy.NamePredictive, res, err)
		},
	}
	cmd.Flags().StringVar(&req.TokenMint, "token", "SOL", "Token mint (or SOL/USDC)")
	cmd.Flags().StringVar(&req.Symbol, "symbol", "SOL", "Symbol used for sentiment lookup")
	cmd.Flags().Uint64Var(&req.Amount, "amount", 0, "Amount of the input asset in smallest units")
	cmd.Flags().BoolVar(&req.AutoTrade, "auto", false, "Trade on the signal without asking")
	riskFlags(cmd, &req.Risk)
	return cmd
}

func newSwapCommand() *cobra.Command {
	var (
		in, out string
		amount  uint64
	)
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap one token for another through Jupiter",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			in, out = resolveMint(in), resolveMint(out)

			ok, err := a.confirmFunc()(ctx, fmt.Sprintf("Swap %d of %s for %s?", amount, in, out))
			if err != nil {
				return err
			}
			if !ok {
				a.report.ReportResult(&strategy.Result{Strategy: "swap", Outcome: strategy.OutcomeCancelled, Message: strategy.MessageCancelled})
				return nil
			}

			sig, err := a.executor.Swap(ctx, in, out, amount)
			return a.reportTrade("swap", sig, err)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "Input token mint (or SOL/USDC)")
	cmd.Flags().StringVar(&out, "out", "", "Output token mint (or SOL/USDC)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount of the input token in smallest units")
	return cmd
}

func newBuyCommand() *cobra.Command {
	return newLegCommand(autotrade.ActionBuy, "Buy a token with SOL")
}

func newSellCommand() *cobra.Command {
	return newLegCommand(autotrade.ActionSell, "Sell a token for SOL")
}

func newLegCommand(action autotrade.Action, short string) *cobra.Command {
	var (
		token  string
		amount uint64
	)
	cmd := &cobra.Command{
		Use:   string(action),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			token = resolveMint(token)

			ok, err := a.confirmFunc()(ctx, fmt.Sprintf("%s %d of %s?", capitalize(string(action)), amount, token))
			if err != nil {
				return err
			}
			if !ok {
				a.report.ReportResult(&strategy.Result{Strategy: string(action), Outcome: strategy.OutcomeCancelled, Message: strategy.MessageCancelled})
				return nil
			}

			var sig string
			if action == autotrade.ActionBuy {
				sig, err = a.executor.Buy(ctx, token, amount)
			} else {
				sig, err = a.executor.Sell(ctx, token, amount)
			}
			return a.reportTrade(string(action), sig, err)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token mint")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount in smallest units of the input asset")
	return cmd
}

func (a *app) reportTrade(name, sig string, err error) error {
	if err != nil {
		a.report.ReportError(name, err)
		return err
	}
	a.report.ReportResult(&strategy.Result{
		Strategy:   name,
		Outcome:    strategy.OutcomeExecuted,
		Message:    "Transaction confirmed.",
		Signatures: []string{sig},
	})
	return nil
}

func newBalanceCommand() *cobra.Command {
	var tokens []string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show wallet balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			sol, err := a.signer.GetSOLBalance(ctx)
			if err != nil {
				a.report.ReportError("balance", err)
				return err
			}
			balances := []reporter.Balance{{Asset: "SOL", Amount: sol}}

			for _, token := range tokens {
				mint := resolveMint(token)
				amount, err := a.signer.GetTokenBalance(ctx, mint)
				if err != nil {
					a.report.ReportError("balance", fmt.Errorf("%s: %w", token, err))
					continue
				}
				balances = append(balances, reporter.Balance{Asset: token, Amount: amount})
			}

			a.report.ReportBalances(a.signer.PublicKeyString(), balances)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tokens, "token", []string{"USDC"}, "Token mints (or USDC) to include")
	return cmd
}

func newAutoTradeCommand() *cobra.Command {
	var spec autotrade.JobSpec
	var action string
	cmd := &cobra.Command{
		Use:   "autotrade",
		Short: "Repeat a buy or sell on a fixed interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			spec.TokenMint = resolveMint(spec.TokenMint)
			spec.Action = autotrade.Action(action)

			scheduler := a.newScheduler(ctx)
			defer scheduler.Close()

			job, err := scheduler.Start(spec)
			if err != nil {
				a.report.ReportError("autotrade", err)
				return err
			}
			a.log.WithField("job_id", job.ID).Info("Auto-trade running; press Ctrl+C to stop")
			if a.notifier.IsEnabled() {
				if err := a.notifier.SendTestMessage(ctx); err != nil {
					a.log.WithError(err).Warn("Slack test message failed")
				}
			}

			<-ctx.Done()
			a.log.WithFields(logrus.Fields{
				"runs":     job.Runs(),
				"failures": job.Failures(),
			}).Info("Auto-trade stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&spec.TokenMint, "token", "", "Token mint")
	cmd.Flags().StringVar(&action, "action", string(autotrade.ActionBuy), "buy or sell")
	cmd.Flags().Uint64Var(&spec.Amount, "amount", 0, "Amount per trade in smallest units")
	cmd.Flags().DurationVar(&spec.Interval, "interval", 0, "Time between trades (default from config)")
	return cmd
}
