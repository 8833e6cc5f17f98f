package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonasrmichel/solstrat/pkg/pricewatch"
	"github.com/jonasrmichel/solstrat/pkg/reporter"
)

func newScamCheckCommand() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "scamcheck",
		Short: "Score a token's rug-pull risk from Dexscreener and on-chain data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			report, err := a.checker.Check(ctx, resolveMint(token))
			if err != nil {
				a.report.ReportError("scamcheck", err)
				return err
			}
			a.report.ReportScamCheck(report)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token mint to check")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

// watchService is the part of the price watch service the shell drives.
type watchService interface {
	Start(ctx context.Context, tokenMint string, interval time.Duration) (*pricewatch.Watch, error)
	Stop(id string) bool
	StopAll()
	List() []pricewatch.Watch
}

func newMonitorCommand() *cobra.Command {
	var (
		tokens   []string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Watch token prices with RSI, MACD and Bollinger Bands; never trades",
		Long: `Starts a price monitor for each --token, then reads commands from stdin:

  start <mint> [interval]   start another monitor
  stop <id>                 stop a monitor
  list                      list running monitors
  quit                      stop everything and exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}

			for _, token := range tokens {
				if _, err := a.watches.Start(ctx, resolveMint(token), interval); err != nil {
					a.report.ReportError("monitor", err)
				}
			}
			runMonitorShell(ctx, os.Stdin, os.Stderr, a.watches, a.report, interval)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tokens, "token", nil, "Token mints (or SOL/USDC) to watch")
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "Default poll interval")
	return cmd
}

// runMonitorShell executes monitor commands read from in until quit, end of
// input or ctx ends. Every watch is stopped on return.
func runMonitorShell(ctx context.Context, in io.Reader, out io.Writer, svc watchService, report *reporter.Reporter, interval time.Duration) {
	defer svc.StopAll()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return
		case line, ok = <-lines:
			if !ok {
				return
			}
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch cmd := strings.ToLower(fields[0]); cmd {
		case "start":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: start <mint> [interval]")
				continue
			}
			every := interval
			if len(fields) > 2 {
				d, err := time.ParseDuration(fields[2])
				if err != nil {
					fmt.Fprintf(out, "invalid interval %q: %v\n", fields[2], err)
					continue
				}
				every = d
			}
			w, err := svc.Start(ctx, resolveMint(fields[1]), every)
			if err != nil {
				report.ReportError("monitor", err)
				continue
			}
			fmt.Fprintf(out, "Price monitor started: %s\n", w.ID)
		case "stop":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: stop <id>")
				continue
			}
			if svc.Stop(fields[1]) {
				fmt.Fprintf(out, "Price monitor stopped: %s\n", fields[1])
			} else {
				fmt.Fprintf(out, "No price monitor with id %s\n", fields[1])
			}
		case "list":
			report.ReportWatches(svc.List())
		case "quit", "exit":
			return
		default:
			fmt.Fprintf(out, "unknown command %q (start, stop, list, quit)\n", cmd)
		}
	}
}
