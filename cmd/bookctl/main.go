// Package main provides bookctl, the operator CLI for the book identity server.
//
// bookctl works directly against the data directory. Run it while the server
// is stopped, or accept that the server will not see CLI changes as events.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
