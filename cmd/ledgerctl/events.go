package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ledgerkit/internal/amqp"
	"ledgerkit/internal/config"
)

// watchEvents prints ledger events from the configured queue until ctx is
// cancelled.
func watchEvents(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	if cfg.AMQPURL == "" {
		printError(stderr, "AMQP_URL is not set; ledger events are disabled")
		return exitUsage
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		printError(stderr, "Error: "+err.Error())
		return exitError
	}
	defer client.Close()

	printHeading(stdout, fmt.Sprintf("Watching %s (exchange %s), Ctrl-C to stop", cfg.AMQPQueue, cfg.AMQPExchange))
	err = client.Consume(ctx, func(_ context.Context, ev amqp.LedgerEvent) error {
		printEvent(stdout, ev)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		printError(stderr, "Error: "+err.Error())
		return exitError
	}
	return exitOK
}

func printEvent(w io.Writer, ev amqp.LedgerEvent) {
	faint.Fprintf(w, "%s ", ev.Timestamp.Local().Format(time.DateTime))
	routing := green
	switch ev.Op {
	case amqp.OpDelete, amqp.OpClose:
		routing = red
	case amqp.OpUpdate, amqp.OpReopen:
		routing = cyan
	}
	routing.Fprintf(w, "%-22s", ev.RoutingKey())
	fmt.Fprintf(w, " %s\n", ev.EntityID)
}
