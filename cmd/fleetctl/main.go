package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sumanuel/Auto-Guardian-sub000/cmd/fleetctl/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewRootCommand(ctx).Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}
