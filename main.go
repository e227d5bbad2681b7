package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/panyam/prefixer/cmd"
)

func main() {
	// Cancelled on SIGINT or SIGTERM; the run flushes its output and exits 0.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx, os.Args[1:], cmd.StdStreams())
	stop()
	os.Exit(code)
}
