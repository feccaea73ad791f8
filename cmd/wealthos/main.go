package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nickeldime/wealthos/internal/app"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to wealthos.toml (default: $WEALTHOS_CONFIG, then binary dir)")
		watch      = flag.Bool("watch", false, "keep running and refresh on the configured schedule")
	)
	flag.Parse()

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*watch {
		// One-shot: refresh, export, exit.
		err := a.RunCycle(ctx)
		if err != nil {
			a.Logger.Error().Err(err).Msg("Refresh failed")
		}
		a.Shutdown()
		if err != nil {
			os.Exit(1)
		}
		return
	}

	if err := a.StartScheduler(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("Scheduler failed to start")
		a.Shutdown()
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")
	cancel()
	a.Shutdown()
}
