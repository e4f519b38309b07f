package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quotereel/internal/daemon"
	"quotereel/internal/jobstore"
	"quotereel/internal/logging"
	"quotereel/internal/workflow"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the render daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("configuration loaded",
		logging.String("path", ctx.configPath),
		logging.String("store", cfg.Store.Backend),
		logging.String("api_bind", cfg.Paths.APIBind),
	)

	store, err := jobstore.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open job store", "store_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the [store] section of the config"),
		)
		return err
	}

	manager := workflow.NewProductionManager(cfg, store, logger)
	d, err := daemon.New(cfg, store, manager, logger)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("quotereel shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}
