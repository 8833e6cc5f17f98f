package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jonasrmichel/solstrat/pkg/strategy"
)

// promptConfirm asks on out and reads a y/n answer from in. Anything other
// than y or yes declines; EOF declines too.
func promptConfirm(in io.Reader, out io.Writer) strategy.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, message string) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(out, "%s [y/N]: ", message)

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, fmt.Errorf("read confirmation: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
