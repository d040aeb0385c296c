package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/brewhaven/internal/app"
	"github.com/Skotchmaster/brewhaven/internal/config"
	"github.com/Skotchmaster/brewhaven/internal/logging"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "shopctl",
		Short:         "Operate a BrewHaven store without the HTTP server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(eventsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp connects the configured store and builds the services on it. The
// caller closes the returned app.
func openApp(ctx context.Context) (*app.App, error) {
	cfg := config.Load()
	ctx = logging.IntoContext(ctx, logging.New(cfg.LogLevel))

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a, err := app.Build(ctx, cfg, store, Version)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return a, nil
}
