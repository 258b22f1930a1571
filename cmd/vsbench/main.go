// Command vsbench benchmarks trigger-maintained against view-derived
// vehicle search documents and verifies both stay consistent with their
// source tables.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatalf("vsbench: %v", err)
	}
}
