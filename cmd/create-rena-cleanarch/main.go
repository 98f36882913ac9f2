package main

import (
	"context"
	"os"
	"os/signal"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := newCLI().execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
