package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pdfbatch/internal/app"
	"pdfbatch/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runner := app.NewAppRunner()
	err := runner.Run(ctx, os.Args[1:])
	stop()
	if err != nil {
		// Errors are always reported, even with logging set to none.
		if logging.GetLevel() < logging.Error {
			logging.SetLevel(logging.Error)
		}
		logging.Logf(logging.Error, "Application execution failed: %v", err)
		if errors.Is(err, app.ErrMissingArgs) || errors.Is(err, app.ErrConfigNotFound) {
			fmt.Fprintln(os.Stderr)
			runner.Usage(os.Stderr)
		}
		os.Exit(1)
	}
}
