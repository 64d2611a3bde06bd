// Command mint creates a new SPL token and mints its initial supply to the
// payer's associated token account.
//
// Usage:
//
//	mint --keypair ~/.config/solana/id.json [--rpc URL] [--decimals N] [--supply N]
//
// Every flag falls back to an environment variable (see --help), which may
// also be set in a .env file in the working directory.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	code := run(ctx, os.Args, defaultRuntime(os.Stdout, os.Stderr))
	cancel()
	os.Exit(code)
}
