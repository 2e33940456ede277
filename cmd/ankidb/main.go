// Package main is the entry point for the ankidb CLI.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/bgunnarsson/ankidb/cmd/ankidb/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
