package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dealership/internal/app"
	"dealership/internal/console"
	"dealership/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := app.LoadConfigAndLogger("console-main")
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("init application")
		return err
	}
	defer a.Close()

	go a.Scheduler.Start(ctx)
	a.StartMetricsServer(ctx)

	c := console.New(os.Stdin, os.Stdout, console.Services{
		Transactions: a.Transactions,
		Inventory:    a.Inventory,
		Customers:    a.Customers,
		Reports:      a.Reports,
		Admin:        a.Auth,
		Exporter:     a.Exporter,
	}, logging.Component(logger, "console"))

	err = c.Run(ctx)
	stop()
	return err
}
