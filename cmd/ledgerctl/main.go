// Command ledgerctl runs ledger tools, prompts and resources from the shell
// against the configured backend.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ledgerkit/internal/cli"
	"ledgerkit/internal/log"
	"ledgerkit/internal/tools"
)

func main() {
	cli.LoadEnvFile()
	// Tool-call logs would drown the output; opt in with LOG_LEVEL.
	if os.Getenv("LOG_LEVEL") == "" {
		_ = os.Setenv("LOG_LEVEL", "warn")
	}
	cfg, logger := cli.LoadAndValidateConfig(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	args := os.Args[1:]

	if len(args) > 0 && args[0] == "events" {
		code := watchEvents(ctx, cfg, os.Stdout, os.Stderr)
		stop()
		os.Exit(code)
	}

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		printError(os.Stderr, "Error: "+err.Error())
		stop()
		os.Exit(exitError)
	}

	a := &app{
		reg: tools.New(tools.Deps{
			Ledger:               res.Ledger,
			Service:              res.Service,
			Logger:               logger,
			DefaultSummaryMonths: cfg.DefaultSummaryMonths,
			DefaultHistoryMonths: cfg.DefaultHistoryMonths,
		}),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	code := a.run(ctx, args)

	if err := res.Cleanup(); err != nil {
		logger.Warn("Backend cleanup error", log.FieldError, err.Error())
	}
	stop()
	os.Exit(code)
}
