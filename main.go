// main is the entry point for the commitclock CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/commitclock/cmd"
	"github.com/huangsam/commitclock/internal/iocache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	err := cmd.Execute(ctx)
	if perr := cmd.StopProfiling(); perr != nil {
		fmt.Fprintln(os.Stderr, "❌", perr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		iocache.CloseStores()
		os.Exit(1)
	}
}
