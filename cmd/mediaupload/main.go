package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitrise-io/go-utils/v2/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}

// run keeps stdout for the JSON-lines results. Logs and config dumps write
// to os.Stdout, so it points at stderr while the command runs.
func run(ctx context.Context, args []string) error {
	results := os.Stdout
	os.Stdout = os.Stderr
	defer func() { os.Stdout = results }()

	logger := log.NewLogger()
	cmd := newRootCommand(logger)
	cmd.SetOut(results)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Errorf("%s", err)
		return err
	}
	return nil
}
