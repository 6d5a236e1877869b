package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fusionn-scout/internal/config"
	"github.com/fusionn-scout/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run discovery once and print the results as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(isDev())
		defer logger.Sync()

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		initLogger(cfg)

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		run, runErr := a.discovery.ProcessDiscovery(ctx)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return err
		}
		return runErr
	},
}
