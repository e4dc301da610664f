package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homeit/platform/internal/config"
	"github.com/homeit/platform/internal/db"
	"github.com/homeit/platform/internal/notify"
	"github.com/homeit/platform/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the maintenance daemon (overdue invoices, estimate expiry)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, configPath, once)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "homeit.yaml", "path to config file")
	cmd.Flags().BoolVar(&once, "once", false, "run both sweeps immediately and exit")
	return cmd
}

func runSweep(cmd *cobra.Command, configPath string, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}

	notifier := notify.New(cfg.Slack.BotToken, cfg.Slack.Channel, logger)
	sweeper := sweep.New(gormDB, cfg.Sweep, notifier, logger)

	if once {
		overdue, expired, err := sweeper.RunOnce()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Swept: %d invoices overdue, %d estimates expired\n", overdue, expired)
		return nil
	}

	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
