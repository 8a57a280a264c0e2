package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"TradeYodha/internal/di"
	"TradeYodha/pkg/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tradeyodha",
		Short:         "Market signal aggregation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	load := func() (*config.Config, error) {
		// .env is optional
		_ = godotenv.Load()
		cfg, err := config.LoadWithEnv(configPath)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load), newSnapshotCmd(load))
	return root
}

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP signal API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()
			return app.Run(cmd.Context())
		},
	}
}

func newSnapshotCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		tickers string
		timeout time.Duration
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Compute every signal once and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			runner, cleanup, err := di.InitializeSnapshotRunner(cfg)
			if err != nil {
				return fmt.Errorf("snapshot initialization failed: %w", err)
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			report, err := runner.Run(ctx, tickers)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !asJSON {
				_, err = fmt.Fprint(out, report.Summary)
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&tickers, "tickers", "", "comma separated tickers; empty uses the default watchlist")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	return cmd
}
